package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AvailabilityQuery selects AVAILABLE slots for listing.
type AvailabilityQuery struct {
	DoctorID         uuid.UUID
	StartDate        time.Time
	EndDate          time.Time
	ConsultationType ConsultationType // empty matches all types
	ClinicID         *uuid.UUID       // nil matches all clinics
}

// Repository is the slot ledger. Transition is the engine's single
// concurrency-critical primitive: a compare-and-set on the status column.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Slot, error)

	// Transition sets the slot to status `to`, linking appointmentID (nil
	// unlinks), only if its current status is `from`. It must be one
	// conditional write, never read-then-write. Returns ErrNotFound if the
	// slot does not exist and ErrConflict if the guard failed.
	Transition(ctx context.Context, id uuid.UUID, from, to Status, appointmentID *uuid.UUID) error

	// ReplaceAvailable atomically swaps the doctor's AVAILABLE slots inside
	// [from, to] for the candidate set. RESERVED and BOOKED rows are left
	// untouched; candidates colliding with a surviving row on the slot
	// identity are silently skipped.
	ReplaceAvailable(ctx context.Context, doctorID uuid.UUID, from, to time.Time, candidates []Slot) error

	ListAvailable(ctx context.Context, q AvailabilityQuery) ([]Slot, error)
}
