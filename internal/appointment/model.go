package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

// Appointment is one patient booking, from tentative reservation through
// its terminal state. Rows are never deleted; terminal appointments stay
// for audit and analytics.
type Appointment struct {
	ID                    uuid.UUID
	PatientID             uuid.UUID
	DoctorID              uuid.UUID
	ClinicID              *uuid.UUID
	SlotID                uuid.UUID
	ScheduledAt           time.Time
	DurationMinutes       int
	ConsultationType      slot.ConsultationType
	Status                Status
	ConsultationFee       decimal.Decimal
	PlatformFee           decimal.Decimal
	DiscountAmount        decimal.Decimal
	TotalAmount           decimal.Decimal
	Currency              string
	PaymentID             *uuid.UUID
	PaymentStatus         *string
	BookingNotes          *string
	CancelledAt           *time.Time
	CancelledBy           *uuid.UUID
	CancellationReason    *string
	RescheduledFromID     *uuid.UUID
	RescheduledToID       *uuid.UUID
	RescheduleCount       int
	Followup              bool
	OriginalAppointmentID *uuid.UUID
	// ReservedUntil bounds the payment hold; nil once confirmed.
	ReservedUntil *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusHistory is one append-only audit row per status transition.
// FromStatus is nil for the creation row.
type StatusHistory struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	FromStatus    *Status
	ToStatus      Status
	ChangedBy     *uuid.UUID
	Reason        string
	CreatedAt     time.Time
}
