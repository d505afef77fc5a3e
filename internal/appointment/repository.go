package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrConflict means the conditional status update found the row in a
	// different status than expected: a concurrent writer won.
	ErrConflict = errors.New("appointment status conflict")
)

// StatusUpdate carries the field changes applied together with a status
// transition. Nil fields leave the column untouched.
type StatusUpdate struct {
	To                 Status
	PaymentID          *uuid.UUID
	PaymentStatus      *string
	ClearReservedUntil bool
	SetReservedUntil   *time.Time
	CancelledAt        *time.Time
	CancelledBy        *uuid.UUID
	CancellationReason *string
}

// PatientQuery filters a patient's appointment listing.
type PatientQuery struct {
	PatientID uuid.UUID
	Status    *Status
	FromDate  *time.Time
	Limit     int
	Offset    int
}

// DoctorQuery filters a doctor's appointment listing.
type DoctorQuery struct {
	DoctorID uuid.UUID
	Date     *time.Time
	Status   *Status
}

// Repository contains all DB interactions needed by the coordinator.
// UpdateStatus is the appointment-side compare-and-set: the sole mechanism
// linearizing transitions on one appointment row.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus applies upd only if the row's current status equals
	// from; one conditional write, never read-then-write. Returns
	// ErrNotFound if the row is absent and ErrConflict if the guard failed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from Status, upd StatusUpdate) (*Appointment, error)

	ListByPatient(ctx context.Context, q PatientQuery) ([]Appointment, error)
	ListByDoctor(ctx context.Context, q DoctorQuery) ([]Appointment, error)

	// FindExpiredReservations returns PENDING_PAYMENT appointments whose
	// hold lapsed before now.
	FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]Appointment, error)

	AppendHistory(ctx context.Context, h *StatusHistory) error
}
