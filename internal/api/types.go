package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReserveRequest struct {
	DoctorID         string `json:"doctor_id" validate:"required,uuid"`
	SlotID           string `json:"slot_id" validate:"required,uuid"`
	ConsultationType string `json:"consultation_type" validate:"required"`
	ClinicID         string `json:"clinic_id" validate:"omitempty,uuid"`
	BookingNotes     string `json:"booking_notes" validate:"max=500"`
}

type ConfirmRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,max=50"`
}

type CancelRequest struct {
	Reason        string `json:"reason" validate:"max=500"`
	RequestRefund bool   `json:"request_refund"`
}

type WeeklyRuleRequest struct {
	DayOfWeek           *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime           string `json:"start_time" validate:"required"`
	EndTime             string `json:"end_time" validate:"required"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"required,min=5,max=120"`
	BufferMinutes       *int   `json:"buffer_minutes" validate:"omitempty,min=0,max=60"`
	ConsultationType    string `json:"consultation_type" validate:"required"`
	ClinicID            string `json:"clinic_id" validate:"omitempty,uuid"`
}

type BlockRequest struct {
	StartDatetime     time.Time `json:"start_datetime" validate:"required"`
	EndDatetime       time.Time `json:"end_datetime" validate:"required"`
	Reason            string    `json:"reason" validate:"max=500"`
	BlockType         string    `json:"block_type" validate:"omitempty,oneof=LEAVE BREAK OTHER"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern"`
}

type ReservationResponse struct {
	AppointmentID    uuid.UUID       `json:"appointment_id"`
	DoctorID         uuid.UUID       `json:"doctor_id"`
	ScheduledAt      time.Time       `json:"scheduled_at"`
	ConsultationType string          `json:"consultation_type"`
	ConsultationFee  decimal.Decimal `json:"consultation_fee"`
	PlatformFee      decimal.Decimal `json:"platform_fee"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	ReservedUntil    *time.Time      `json:"reserved_until"`
	ExpiresInSeconds int64           `json:"expires_in_seconds"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID       `json:"id"`
	PatientID          uuid.UUID       `json:"patient_id"`
	DoctorID           uuid.UUID       `json:"doctor_id"`
	ClinicID           *uuid.UUID      `json:"clinic_id,omitempty"`
	SlotID             uuid.UUID       `json:"slot_id"`
	ScheduledAt        time.Time       `json:"scheduled_at"`
	DurationMinutes    int             `json:"duration_minutes"`
	ConsultationType   string          `json:"consultation_type"`
	Status             string          `json:"status"`
	StatusDisplay      string          `json:"status_display"`
	ConsultationFee    decimal.Decimal `json:"consultation_fee"`
	PlatformFee        decimal.Decimal `json:"platform_fee"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Currency           string          `json:"currency"`
	PaymentStatus      *string         `json:"payment_status,omitempty"`
	BookingNotes       *string         `json:"booking_notes,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	RescheduleCount    int             `json:"reschedule_count"`
	Followup           bool            `json:"is_followup"`
	ReservedUntil      *time.Time      `json:"reserved_until,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type WeeklyRuleResponse struct {
	ID                  uuid.UUID  `json:"id"`
	DoctorID            uuid.UUID  `json:"doctor_id"`
	ClinicID            *uuid.UUID `json:"clinic_id,omitempty"`
	DayOfWeek           int        `json:"day_of_week"`
	DayName             string     `json:"day_name"`
	StartTime           string     `json:"start_time"`
	EndTime             string     `json:"end_time"`
	SlotDurationMinutes int        `json:"slot_duration_minutes"`
	BufferMinutes       int        `json:"buffer_minutes"`
	ConsultationType    string     `json:"consultation_type"`
	Active              bool       `json:"is_active"`
}

type BlockResponse struct {
	ID                uuid.UUID `json:"id"`
	DoctorID          uuid.UUID `json:"doctor_id"`
	StartDatetime     time.Time `json:"start_datetime"`
	EndDatetime       time.Time `json:"end_datetime"`
	Reason            string    `json:"reason,omitempty"`
	BlockType         string    `json:"block_type"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern *string   `json:"recurrence_pattern,omitempty"`
}

type SlotResponse struct {
	SlotID           uuid.UUID  `json:"slot_id"`
	Date             string     `json:"date"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	DurationMinutes  int        `json:"duration_minutes"`
	ConsultationType string     `json:"consultation_type"`
	ClinicID         *uuid.UUID `json:"clinic_id,omitempty"`
}

type DaySlots struct {
	Date    string         `json:"date"`
	DayName string         `json:"day_name"`
	Slots   []SlotResponse `json:"slots"`
}

type AvailableSlotsResponse struct {
	DoctorID            uuid.UUID  `json:"doctor_id"`
	StartDate           string     `json:"start_date"`
	EndDate             string     `json:"end_date"`
	Days                []DaySlots `json:"days"`
	TotalAvailableSlots int        `json:"total_available_slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
