package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func mondayRule(doctorID uuid.UUID) WeeklyRule {
	return WeeklyRule{
		ID:                  uuid.New(),
		DoctorID:            doctorID,
		DayOfWeek:           1,
		StartTime:           "09:00",
		EndTime:             "10:00",
		SlotDurationMinutes: 20,
		BufferMinutes:       5,
		ConsultationType:    slot.TypeVideo,
		Active:              true,
	}
}

func TestExpandRulesWalk(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	// 09:00-10:00 at 20min slots with a 5min buffer: 09:00, 09:25, 09:50
	// would end at 10:10, so only two slots fit.
	got := ExpandRules(rules, nil, monday, monday)

	require.Len(t, got, 2)
	assert.Equal(t, "09:00", got[0].StartTime)
	assert.Equal(t, "09:20", got[0].EndTime)
	assert.Equal(t, "09:25", got[1].StartTime)
	assert.Equal(t, "09:45", got[1].EndTime)

	for _, s := range got {
		assert.Equal(t, doctorID, s.DoctorID)
		assert.Equal(t, monday, s.Date)
		assert.Equal(t, slot.StatusAvailable, s.Status)
		assert.Equal(t, slot.TypeVideo, s.ConsultationType)
		assert.Equal(t, 20, s.DurationMinutes)
	}
}

func TestExpandRulesExactFit(t *testing.T) {
	doctorID := uuid.New()
	rule := mondayRule(doctorID)
	rule.StartTime = "09:00"
	rule.EndTime = "09:40"
	rule.SlotDurationMinutes = 20
	rule.BufferMinutes = 0

	got := ExpandRules([]WeeklyRule{rule}, nil, monday, monday)

	// A slot ending exactly at the window end is kept.
	require.Len(t, got, 2)
	assert.Equal(t, "09:20", got[1].StartTime)
	assert.Equal(t, "09:40", got[1].EndTime)
}

func TestExpandRulesSkipsOtherDays(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	tuesday := monday.AddDate(0, 0, 1)
	got := ExpandRules(rules, nil, tuesday, tuesday)
	assert.Empty(t, got)
}

func TestExpandRulesSkipsInactive(t *testing.T) {
	doctorID := uuid.New()
	rule := mondayRule(doctorID)
	rule.Active = false

	got := ExpandRules([]WeeklyRule{rule}, nil, monday, monday)
	assert.Empty(t, got)
}

func TestExpandRulesMultiWeek(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	// Two Mondays inside a 14-day window.
	got := ExpandRules(rules, nil, monday, monday.AddDate(0, 0, 13))
	require.Len(t, got, 4)
	assert.Equal(t, monday, got[0].Date)
	assert.Equal(t, monday.AddDate(0, 0, 7), got[2].Date)
}

func TestExpandRulesBlockCarveOut(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	// Block 09:10-09:30 clips the first slot; a partial overlap discards
	// the whole candidate.
	blocks := []BlockedInterval{{
		DoctorID: doctorID,
		StartAt:  monday.Add(9*time.Hour + 10*time.Minute),
		EndAt:    monday.Add(9*time.Hour + 30*time.Minute),
	}}

	got := ExpandRules(rules, blocks, monday, monday)
	require.Len(t, got, 1)
	assert.Equal(t, "09:25", got[0].StartTime)
}

func TestExpandRulesBlockBoundaryTouch(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	// Half-open intervals: a block ending exactly at 09:00 excludes nothing.
	blocks := []BlockedInterval{{
		DoctorID: doctorID,
		StartAt:  monday.Add(8 * time.Hour),
		EndAt:    monday.Add(9 * time.Hour),
	}}

	got := ExpandRules(rules, blocks, monday, monday)
	assert.Len(t, got, 2)
}

func TestExpandRulesIgnoresOtherDoctorsBlocks(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	blocks := []BlockedInterval{{
		DoctorID: uuid.New(),
		StartAt:  monday,
		EndAt:    monday.AddDate(0, 0, 1),
	}}

	got := ExpandRules(rules, blocks, monday, monday)
	assert.Len(t, got, 2)
}

func TestExpandRulesDeterministic(t *testing.T) {
	doctorID := uuid.New()
	rules := []WeeklyRule{mondayRule(doctorID)}

	a := ExpandRules(rules, nil, monday, monday.AddDate(0, 0, 6))
	b := ExpandRules(rules, nil, monday, monday.AddDate(0, 0, 6))
	assert.Equal(t, a, b)
}

func TestParseTimeOfDay(t *testing.T) {
	min, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, min)

	_, err = ParseTimeOfDay("9:30am")
	assert.Error(t, err)

	assert.Equal(t, "09:30", FormatTimeOfDay(570))
	assert.Equal(t, "00:00", FormatTimeOfDay(0))
}
