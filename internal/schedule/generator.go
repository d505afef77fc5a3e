package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

// ExpandRules deterministically turns weekly rules and blocked intervals
// into concrete AVAILABLE slot candidates for every date in [from, to].
// Inactive rules are skipped. A candidate overlapping any blocked interval,
// even partially, is discarded whole. The walk steps by duration+buffer and
// never emits a trailing partial slot.
//
// The function is pure: same inputs, same candidate set.
func ExpandRules(rules []WeeklyRule, blocks []BlockedInterval, from, to time.Time) []slot.Slot {
	var candidates []slot.Slot

	for date := DateOnly(from); !date.After(DateOnly(to)); date = date.AddDate(0, 0, 1) {
		dayOfWeek := int(date.Weekday())

		for i := range rules {
			rule := &rules[i]
			if !rule.Active || rule.DayOfWeek != dayOfWeek {
				continue
			}

			ruleStart, err := ParseTimeOfDay(rule.StartTime)
			if err != nil {
				continue
			}
			ruleEnd, err := ParseTimeOfDay(rule.EndTime)
			if err != nil {
				continue
			}

			step := rule.SlotDurationMinutes + rule.BufferMinutes
			for cur := ruleStart; cur+rule.SlotDurationMinutes <= ruleEnd; cur += step {
				end := cur + rule.SlotDurationMinutes

				if overlapsAny(blocks, rule.DoctorID, date, cur, end) {
					continue
				}

				candidates = append(candidates, slot.Slot{
					DoctorID:         rule.DoctorID,
					ClinicID:         rule.ClinicID,
					Date:             date,
					StartTime:        FormatTimeOfDay(cur),
					EndTime:          FormatTimeOfDay(end),
					ConsultationType: rule.ConsultationType,
					DurationMinutes:  rule.SlotDurationMinutes,
					Status:           slot.StatusAvailable,
				})
			}
		}
	}

	return candidates
}

// overlapsAny reports whether the candidate [startMin, endMin) on date
// intersects any blocked interval belonging to the doctor. Intervals are
// half-open, so a block ending exactly at the candidate start does not
// exclude it.
func overlapsAny(blocks []BlockedInterval, doctorID uuid.UUID, date time.Time, startMin, endMin int) bool {
	candStart := date.Add(time.Duration(startMin) * time.Minute)
	candEnd := date.Add(time.Duration(endMin) * time.Minute)

	for i := range blocks {
		b := &blocks[i]
		if b.DoctorID != doctorID {
			continue
		}
		if candStart.Before(b.EndAt) && b.StartAt.Before(candEnd) {
			return true
		}
	}
	return false
}

// DateOnly truncates an instant to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
