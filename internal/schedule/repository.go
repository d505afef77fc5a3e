package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RuleRepository persists weekly availability rules. Deactivation is the
// only form of deletion.
type RuleRepository interface {
	Create(ctx context.Context, rule *WeeklyRule) error
	Update(ctx context.Context, rule *WeeklyRule) error
	GetByID(ctx context.Context, id uuid.UUID) (*WeeklyRule, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, activeOnly bool) ([]WeeklyRule, error)
	DeactivateByDoctor(ctx context.Context, doctorID uuid.UUID) error
}

// BlockRepository persists one-off exclusion windows.
type BlockRepository interface {
	Create(ctx context.Context, block *BlockedInterval) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*BlockedInterval, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]BlockedInterval, error)
	// ListOverlapping returns blocks intersecting [from, to).
	ListOverlapping(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]BlockedInterval, error)
}
