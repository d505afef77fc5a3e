package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

var (
	ErrRuleNotFound  = errors.New("weekly rule not found")
	ErrBlockNotFound = errors.New("blocked interval not found")
	ErrInvalidRule   = errors.New("invalid weekly rule")
	ErrInvalidBlock  = errors.New("invalid blocked interval")
)

var dayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DayName maps a Sunday-first day-of-week index (0-6) to its English name.
func DayName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return ""
	}
	return dayNames[dayOfWeek]
}

// WeeklyRule is one recurring availability window. Rules are never hard
// deleted; deactivation keeps provenance for slots already generated from
// them.
type WeeklyRule struct {
	ID                  uuid.UUID
	DoctorID            uuid.UUID
	ClinicID            *uuid.UUID
	DayOfWeek           int    // 0 = Sunday .. 6 = Saturday
	StartTime           string // "HH:MM"
	EndTime             string // "HH:MM"
	SlotDurationMinutes int
	BufferMinutes       int
	ConsultationType    slot.ConsultationType
	MaxPatientsPerSlot  int
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r *WeeklyRule) Validate() error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("%w: day of week must be 0-6", ErrInvalidRule)
	}
	start, err := ParseTimeOfDay(r.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start time: %v", ErrInvalidRule, err)
	}
	end, err := ParseTimeOfDay(r.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end time: %v", ErrInvalidRule, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start time must be before end time", ErrInvalidRule)
	}
	if r.SlotDurationMinutes < 5 || r.SlotDurationMinutes > 120 {
		return fmt.Errorf("%w: slot duration must be 5-120 minutes", ErrInvalidRule)
	}
	if r.BufferMinutes < 0 || r.BufferMinutes > 60 {
		return fmt.Errorf("%w: buffer must be 0-60 minutes", ErrInvalidRule)
	}
	if !r.ConsultationType.Valid() {
		return fmt.Errorf("%w: unknown consultation type %q", ErrInvalidRule, r.ConsultationType)
	}
	if r.ConsultationType == slot.TypeInPerson && r.ClinicID == nil {
		return fmt.Errorf("%w: clinic is required for in-person consultations", ErrInvalidRule)
	}
	return nil
}

// BlockedInterval carves availability out of the generated slot set
// (leave, breaks). The recurrence descriptor is stored verbatim; each row
// is treated as one concrete window during generation.
type BlockedInterval struct {
	ID                uuid.UUID
	DoctorID          uuid.UUID
	StartAt           time.Time
	EndAt             time.Time
	Reason            string
	BlockType         string
	Recurring         bool
	RecurrencePattern *string
	CreatedAt         time.Time
}

func (b *BlockedInterval) Validate() error {
	if !b.StartAt.Before(b.EndAt) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidBlock)
	}
	return nil
}

// ParseTimeOfDay converts "HH:MM" to minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("time of day must be HH:MM: %w", err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatTimeOfDay converts minutes since midnight back to "HH:MM".
func FormatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
