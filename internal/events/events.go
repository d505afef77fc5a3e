// Package events is the outbound boundary to the notification subsystem.
// Events are published fire-and-forget after the owning state transition
// has committed; a delivery failure never rolls the transition back.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeReserved  = "RESERVED"
	TypeConfirmed = "CONFIRMED"
	TypeCancelled = "CANCELLED"
	TypeExpired   = "EXPIRED"
)

// AppointmentEvent is the wire payload consumed by the notification
// subsystem.
type AppointmentEvent struct {
	EventType        string          `json:"event_type"`
	AppointmentID    uuid.UUID       `json:"appointment_id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	DoctorID         uuid.UUID       `json:"doctor_id"`
	ScheduledAt      time.Time       `json:"scheduled_at"`
	ConsultationType string          `json:"consultation_type"`
	Status           string          `json:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	Timestamp        time.Time       `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event AppointmentEvent) error
}

// NopPublisher drops every event. Used in tests and when no broker is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AppointmentEvent) error { return nil }
