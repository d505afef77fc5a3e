package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/healthbridge/appointment-engine/internal/appointment"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

func reserveHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := userID(w, r)
		if !ok {
			return
		}

		var req ReserveRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		consultationType, err := slot.ParseConsultationType(req.ConsultationType)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}

		in := appointment.ReserveInput{
			DoctorID:         uuid.MustParse(req.DoctorID),
			SlotID:           uuid.MustParse(req.SlotID),
			ConsultationType: consultationType,
			Notes:            req.BookingNotes,
		}
		if req.ClinicID != "" {
			clinicID := uuid.MustParse(req.ClinicID)
			in.ClinicID = &clinicID
		}

		appt, err := svc.Reserve(r.Context(), patientID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(appt))
	}
}

func confirmHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := userID(w, r)
		if !ok {
			return
		}

		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req ConfirmRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		appt, err := svc.Confirm(r.Context(), patientID, appointmentID, appointment.PaymentConfirmation{
			PaymentID: uuid.MustParse(req.PaymentID),
			Status:    req.Status,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := userID(w, r)
		if !ok {
			return
		}

		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		appt, err := svc.Cancel(r.Context(), callerID, appointmentID, req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), appointmentID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func patientAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := userID(w, r)
		if !ok {
			return
		}

		status, ok := statusParam(w, r)
		if !ok {
			return
		}
		fromDate, ok := dateParam(w, r, "fromDate")
		if !ok {
			return
		}

		page := intParam(r, "page", 0)
		size := intParam(r, "size", 20)

		appts, err := svc.ListByPatient(r.Context(), patientID, status, fromDate, page, size)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func doctorAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		status, ok := statusParam(w, r)
		if !ok {
			return
		}
		date, ok := dateParam(w, r, "date")
		if !ok {
			return
		}

		appts, err := svc.ListByDoctor(r.Context(), doctorID, date, status)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func statusParam(w http.ResponseWriter, r *http.Request) (*appointment.Status, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}

	status, err := appointment.ParseStatus(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return nil, false
	}
	return &status, true
}

func dateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}

	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func toReservationResponse(appt *appointment.Appointment) ReservationResponse {
	resp := ReservationResponse{
		AppointmentID:    appt.ID,
		DoctorID:         appt.DoctorID,
		ScheduledAt:      appt.ScheduledAt,
		ConsultationType: string(appt.ConsultationType),
		ConsultationFee:  appt.ConsultationFee,
		PlatformFee:      appt.PlatformFee,
		TotalAmount:      appt.TotalAmount,
		Currency:         appt.Currency,
		ReservedUntil:    appt.ReservedUntil,
	}
	if appt.ReservedUntil != nil {
		resp.ExpiresInSeconds = int64(time.Until(*appt.ReservedUntil).Seconds())
	}
	return resp
}

func toAppointmentResponse(appt *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 appt.ID,
		PatientID:          appt.PatientID,
		DoctorID:           appt.DoctorID,
		ClinicID:           appt.ClinicID,
		SlotID:             appt.SlotID,
		ScheduledAt:        appt.ScheduledAt,
		DurationMinutes:    appt.DurationMinutes,
		ConsultationType:   string(appt.ConsultationType),
		Status:             string(appt.Status),
		StatusDisplay:      appt.Status.DisplayName(),
		ConsultationFee:    appt.ConsultationFee,
		PlatformFee:        appt.PlatformFee,
		DiscountAmount:     appt.DiscountAmount,
		TotalAmount:        appt.TotalAmount,
		Currency:           appt.Currency,
		PaymentStatus:      appt.PaymentStatus,
		BookingNotes:       appt.BookingNotes,
		CancelledAt:        appt.CancelledAt,
		CancellationReason: appt.CancellationReason,
		RescheduleCount:    appt.RescheduleCount,
		Followup:           appt.Followup,
		ReservedUntil:      appt.ReservedUntil,
		CreatedAt:          appt.CreatedAt,
	}
}

func toAppointmentResponses(appts []appointment.Appointment) []AppointmentResponse {
	result := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		result = append(result, toAppointmentResponse(&appts[i]))
	}
	return result
}
