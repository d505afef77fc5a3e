package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

const defaultBufferMinutes = 5

// CacheInvalidator drops cached availability listings for a doctor after
// the slot set changes. Invalidation failures are logged, never surfaced.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, doctorID uuid.UUID) error
}

// Service owns weekly rules and blocked intervals, and drives slot
// regeneration after every mutation.
type Service struct {
	rules       RuleRepository
	blocks      BlockRepository
	slots       slot.Repository
	cache       CacheInvalidator // optional
	log         *zap.Logger
	horizonDays int
	now         func() time.Time
}

func NewService(rules RuleRepository, blocks BlockRepository, slots slot.Repository, cache CacheInvalidator, log *zap.Logger, horizonDays int) *Service {
	return &Service{
		rules:       rules,
		blocks:      blocks,
		slots:       slots,
		cache:       cache,
		log:         log,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// RuleInput carries a doctor's weekly rule edit.
type RuleInput struct {
	DayOfWeek           int
	StartTime           string
	EndTime             string
	SlotDurationMinutes int
	BufferMinutes       *int
	ConsultationType    slot.ConsultationType
	ClinicID            *uuid.UUID
}

func (in RuleInput) toRule(doctorID uuid.UUID) WeeklyRule {
	buffer := defaultBufferMinutes
	if in.BufferMinutes != nil {
		buffer = *in.BufferMinutes
	}
	return WeeklyRule{
		DoctorID:            doctorID,
		ClinicID:            in.ClinicID,
		DayOfWeek:           in.DayOfWeek,
		StartTime:           in.StartTime,
		EndTime:             in.EndTime,
		SlotDurationMinutes: in.SlotDurationMinutes,
		BufferMinutes:       buffer,
		ConsultationType:    in.ConsultationType,
		MaxPatientsPerSlot:  1,
		Active:              true,
	}
}

func (s *Service) WeeklySchedule(ctx context.Context, doctorID uuid.UUID) ([]WeeklyRule, error) {
	return s.rules.ListByDoctor(ctx, doctorID, true)
}

func (s *Service) AddRule(ctx context.Context, doctorID uuid.UUID, in RuleInput) (*WeeklyRule, error) {
	rule := in.toRule(doctorID)
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if err := s.rules.Create(ctx, &rule); err != nil {
		return nil, fmt.Errorf("create weekly rule: %w", err)
	}

	if err := s.Regenerate(ctx, doctorID); err != nil {
		return nil, err
	}

	return &rule, nil
}

func (s *Service) UpdateRule(ctx context.Context, doctorID, ruleID uuid.UUID, in RuleInput) (*WeeklyRule, error) {
	existing, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if existing.DoctorID != doctorID {
		return nil, ErrRuleNotFound
	}

	updated := in.toRule(doctorID)
	updated.ID = existing.ID
	updated.ClinicID = existing.ClinicID
	if in.ClinicID != nil {
		updated.ClinicID = in.ClinicID
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.rules.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update weekly rule: %w", err)
	}

	if err := s.Regenerate(ctx, doctorID); err != nil {
		return nil, err
	}

	return &updated, nil
}

// DeleteRule deactivates the rule; the row survives so historical slots
// keep their provenance.
func (s *Service) DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error {
	existing, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if existing.DoctorID != doctorID {
		return ErrRuleNotFound
	}

	existing.Active = false
	if err := s.rules.Update(ctx, existing); err != nil {
		return fmt.Errorf("deactivate weekly rule: %w", err)
	}

	return s.Regenerate(ctx, doctorID)
}

// SetWeeklySchedule replaces the doctor's whole weekly schedule: every
// current rule is deactivated and the given set is created, then slots are
// regenerated once.
func (s *Service) SetWeeklySchedule(ctx context.Context, doctorID uuid.UUID, inputs []RuleInput) ([]WeeklyRule, error) {
	rules := make([]WeeklyRule, 0, len(inputs))
	for _, in := range inputs {
		rule := in.toRule(doctorID)
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := s.rules.DeactivateByDoctor(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("deactivate weekly schedule: %w", err)
	}

	for i := range rules {
		if err := s.rules.Create(ctx, &rules[i]); err != nil {
			return nil, fmt.Errorf("create weekly rule: %w", err)
		}
	}

	if err := s.Regenerate(ctx, doctorID); err != nil {
		return nil, err
	}

	return rules, nil
}

// BlockInput carries a new exclusion window.
type BlockInput struct {
	StartAt           time.Time
	EndAt             time.Time
	Reason            string
	BlockType         string
	Recurring         bool
	RecurrencePattern *string
}

func (s *Service) Block(ctx context.Context, doctorID uuid.UUID, in BlockInput) (*BlockedInterval, error) {
	blockType := in.BlockType
	if blockType == "" {
		blockType = "LEAVE"
	}

	block := BlockedInterval{
		DoctorID:          doctorID,
		StartAt:           in.StartAt,
		EndAt:             in.EndAt,
		Reason:            in.Reason,
		BlockType:         blockType,
		Recurring:         in.Recurring,
		RecurrencePattern: in.RecurrencePattern,
	}
	if err := block.Validate(); err != nil {
		return nil, err
	}

	if err := s.blocks.Create(ctx, &block); err != nil {
		return nil, fmt.Errorf("create blocked interval: %w", err)
	}

	if err := s.Regenerate(ctx, doctorID); err != nil {
		return nil, err
	}

	return &block, nil
}

func (s *Service) Unblock(ctx context.Context, doctorID, blockID uuid.UUID) error {
	block, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		return err
	}
	if block.DoctorID != doctorID {
		return ErrBlockNotFound
	}

	if err := s.blocks.Delete(ctx, blockID); err != nil {
		return fmt.Errorf("delete blocked interval: %w", err)
	}

	return s.Regenerate(ctx, doctorID)
}

func (s *Service) BlockedIntervals(ctx context.Context, doctorID uuid.UUID) ([]BlockedInterval, error) {
	return s.blocks.ListByDoctor(ctx, doctorID)
}

// Regenerate recomputes the doctor's AVAILABLE slots over the rolling
// horizon. Safe to call repeatedly; RESERVED/BOOKED slots are never
// touched. The replace happens in one storage transaction, so a failure
// leaves the previous slot set intact.
func (s *Service) Regenerate(ctx context.Context, doctorID uuid.UUID) error {
	from := DateOnly(s.now())
	to := from.AddDate(0, 0, s.horizonDays)

	rules, err := s.rules.ListByDoctor(ctx, doctorID, true)
	if err != nil {
		return fmt.Errorf("load weekly rules: %w", err)
	}

	blocks, err := s.blocks.ListOverlapping(ctx, doctorID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("load blocked intervals: %w", err)
	}

	candidates := ExpandRules(rules, blocks, from, to)

	if err := s.slots.ReplaceAvailable(ctx, doctorID, from, to, candidates); err != nil {
		return fmt.Errorf("replace available slots: %w", err)
	}

	s.log.Info("regenerated slots",
		zap.String("doctor_id", doctorID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Time("horizon_start", from),
		zap.Time("horizon_end", to),
	)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, doctorID); err != nil {
			s.log.Warn("slot cache invalidation failed",
				zap.String("doctor_id", doctorID.String()), zap.Error(err))
		}
	}

	return nil
}
