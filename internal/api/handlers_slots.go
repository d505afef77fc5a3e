package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/healthbridge/appointment-engine/internal/redis"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

const defaultListingDays = 7

// availableSlotsHandler serves the public availability listing, grouped by
// day. Listings are read through the versioned cache when one is wired;
// cache failures silently fall back to Postgres.
func availableSlotsHandler(slots slot.Repository, cache *redisclient.SlotCache, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		q := slot.AvailabilityQuery{DoctorID: doctorID}

		start, ok := dateParam(w, r, "startDate")
		if !ok {
			return
		}
		end, ok := dateParam(w, r, "endDate")
		if !ok {
			return
		}
		if start != nil {
			q.StartDate = *start
		} else {
			q.StartDate = dateOnlyUTC(time.Now())
		}
		if end != nil {
			q.EndDate = *end
		} else {
			q.EndDate = q.StartDate.AddDate(0, 0, defaultListingDays)
		}
		if q.EndDate.Before(q.StartDate) {
			writeError(w, http.StatusBadRequest, "invalid_date", "endDate must not precede startDate")
			return
		}

		if raw := r.URL.Query().Get("consultationType"); raw != "" {
			ct, err := slot.ParseConsultationType(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "validation_error", err.Error())
				return
			}
			q.ConsultationType = ct
		}
		if raw := r.URL.Query().Get("clinicId"); raw != "" {
			clinicID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_clinic_id", "clinicId must be a valid UUID")
				return
			}
			q.ClinicID = &clinicID
		}

		var cacheKey string
		if cache != nil {
			cacheKey = cache.Key(r.Context(), doctorID,
				q.StartDate.Format("2006-01-02"),
				q.EndDate.Format("2006-01-02"),
				string(q.ConsultationType),
				clinicPart(q.ClinicID),
			)
			if payload, hit := cache.Get(r.Context(), cacheKey); hit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(payload)
				return
			}
		}

		found, err := slots.ListAvailable(r.Context(), q)
		if err != nil {
			log.Error("list available slots failed",
				zap.String("doctor_id", doctorID.String()), zap.Error(err))
			writeServiceError(w, err)
			return
		}

		resp := groupByDay(doctorID, q, found)

		if cache != nil {
			payload, err := json.Marshal(resp)
			if err == nil {
				if err := cache.Set(r.Context(), cacheKey, payload); err != nil {
					log.Warn("slot cache write failed",
						zap.String("doctor_id", doctorID.String()), zap.Error(err))
				}
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func groupByDay(doctorID uuid.UUID, q slot.AvailabilityQuery, found []slot.Slot) AvailableSlotsResponse {
	resp := AvailableSlotsResponse{
		DoctorID:            doctorID,
		StartDate:           q.StartDate.Format("2006-01-02"),
		EndDate:             q.EndDate.Format("2006-01-02"),
		Days:                []DaySlots{},
		TotalAvailableSlots: len(found),
	}

	// found is ordered by date then start time, so one pass groups it.
	for _, s := range found {
		date := s.Date.Format("2006-01-02")
		if len(resp.Days) == 0 || resp.Days[len(resp.Days)-1].Date != date {
			resp.Days = append(resp.Days, DaySlots{
				Date:    date,
				DayName: s.Date.Weekday().String(),
				Slots:   []SlotResponse{},
			})
		}
		day := &resp.Days[len(resp.Days)-1]
		day.Slots = append(day.Slots, SlotResponse{
			SlotID:           s.ID,
			Date:             date,
			StartTime:        s.StartTime,
			EndTime:          s.EndTime,
			DurationMinutes:  s.DurationMinutes,
			ConsultationType: string(s.ConsultationType),
			ClinicID:         s.ClinicID,
		})
	}

	return resp
}

func clinicPart(clinicID *uuid.UUID) string {
	if clinicID == nil {
		return "all"
	}
	return clinicID.String()
}

func dateOnlyUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
