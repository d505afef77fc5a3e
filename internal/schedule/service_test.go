package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/slot"
)

type memRuleRepo struct {
	rules map[uuid.UUID]*WeeklyRule
}

func newMemRuleRepo() *memRuleRepo {
	return &memRuleRepo{rules: make(map[uuid.UUID]*WeeklyRule)}
}

func (r *memRuleRepo) Create(_ context.Context, rule *WeeklyRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *memRuleRepo) Update(_ context.Context, rule *WeeklyRule) error {
	if _, ok := r.rules[rule.ID]; !ok {
		return ErrRuleNotFound
	}
	cp := *rule
	r.rules[rule.ID] = &cp
	return nil
}

func (r *memRuleRepo) GetByID(_ context.Context, id uuid.UUID) (*WeeklyRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	cp := *rule
	return &cp, nil
}

func (r *memRuleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, activeOnly bool) ([]WeeklyRule, error) {
	var result []WeeklyRule
	for _, rule := range r.rules {
		if rule.DoctorID != doctorID {
			continue
		}
		if activeOnly && !rule.Active {
			continue
		}
		result = append(result, *rule)
	}
	return result, nil
}

func (r *memRuleRepo) DeactivateByDoctor(_ context.Context, doctorID uuid.UUID) error {
	for _, rule := range r.rules {
		if rule.DoctorID == doctorID {
			rule.Active = false
		}
	}
	return nil
}

type memBlockRepo struct {
	blocks map[uuid.UUID]*BlockedInterval
}

func newMemBlockRepo() *memBlockRepo {
	return &memBlockRepo{blocks: make(map[uuid.UUID]*BlockedInterval)}
}

func (r *memBlockRepo) Create(_ context.Context, block *BlockedInterval) error {
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	cp := *block
	r.blocks[block.ID] = &cp
	return nil
}

func (r *memBlockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.blocks[id]; !ok {
		return ErrBlockNotFound
	}
	delete(r.blocks, id)
	return nil
}

func (r *memBlockRepo) GetByID(_ context.Context, id uuid.UUID) (*BlockedInterval, error) {
	block, ok := r.blocks[id]
	if !ok {
		return nil, ErrBlockNotFound
	}
	cp := *block
	return &cp, nil
}

func (r *memBlockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]BlockedInterval, error) {
	var result []BlockedInterval
	for _, block := range r.blocks {
		if block.DoctorID == doctorID {
			result = append(result, *block)
		}
	}
	return result, nil
}

func (r *memBlockRepo) ListOverlapping(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]BlockedInterval, error) {
	var result []BlockedInterval
	for _, block := range r.blocks {
		if block.DoctorID != doctorID {
			continue
		}
		if block.StartAt.Before(to) && from.Before(block.EndAt) {
			result = append(result, *block)
		}
	}
	return result, nil
}

// captureSlotRepo records ReplaceAvailable calls so tests can inspect what
// regeneration would have written.
type captureSlotRepo struct {
	replaceCalls int
	lastDoctorID uuid.UUID
	lastFrom     time.Time
	lastTo       time.Time
	lastSlots    []slot.Slot
}

func (r *captureSlotRepo) GetByID(context.Context, uuid.UUID) (*slot.Slot, error) {
	return nil, slot.ErrNotFound
}

func (r *captureSlotRepo) Transition(context.Context, uuid.UUID, slot.Status, slot.Status, *uuid.UUID) error {
	return nil
}

func (r *captureSlotRepo) ReplaceAvailable(_ context.Context, doctorID uuid.UUID, from, to time.Time, candidates []slot.Slot) error {
	r.replaceCalls++
	r.lastDoctorID = doctorID
	r.lastFrom = from
	r.lastTo = to
	r.lastSlots = candidates
	return nil
}

func (r *captureSlotRepo) ListAvailable(context.Context, slot.AvailabilityQuery) ([]slot.Slot, error) {
	return nil, nil
}

func newScheduleFixture() (*Service, *memRuleRepo, *memBlockRepo, *captureSlotRepo) {
	rules := newMemRuleRepo()
	blocks := newMemBlockRepo()
	slots := &captureSlotRepo{}

	svc := NewService(rules, blocks, slots, nil, zap.NewNop(), 14)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // a Monday
	}
	return svc, rules, blocks, slots
}

func videoRuleInput() RuleInput {
	return RuleInput{
		DayOfWeek:           1,
		StartTime:           "09:00",
		EndTime:             "10:00",
		SlotDurationMinutes: 20,
		ConsultationType:    slot.TypeVideo,
	}
}

func TestAddRuleRegenerates(t *testing.T) {
	svc, _, _, slots := newScheduleFixture()
	doctorID := uuid.New()

	rule, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)

	assert.Equal(t, 5, rule.BufferMinutes) // default applied
	assert.True(t, rule.Active)

	require.Equal(t, 1, slots.replaceCalls)
	assert.Equal(t, doctorID, slots.lastDoctorID)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), slots.lastFrom)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), slots.lastTo)

	// 3 Mondays in a 14-day horizon starting on one, 2 slots each.
	assert.Len(t, slots.lastSlots, 6)
}

func TestAddRuleValidation(t *testing.T) {
	svc, _, _, slots := newScheduleFixture()

	in := videoRuleInput()
	in.EndTime = "08:00"

	_, err := svc.AddRule(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.Zero(t, slots.replaceCalls)
}

func TestAddRuleInPersonNeedsClinic(t *testing.T) {
	svc, _, _, _ := newScheduleFixture()

	in := videoRuleInput()
	in.ConsultationType = slot.TypeInPerson

	_, err := svc.AddRule(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestUpdateRuleWrongDoctor(t *testing.T) {
	svc, _, _, _ := newScheduleFixture()
	doctorID := uuid.New()

	rule, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)

	_, err = svc.UpdateRule(context.Background(), uuid.New(), rule.ID, videoRuleInput())
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestDeleteRuleDeactivates(t *testing.T) {
	svc, rules, _, slots := newScheduleFixture()
	doctorID := uuid.New()

	rule, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRule(context.Background(), doctorID, rule.ID))

	stored, err := rules.GetByID(context.Background(), rule.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	// Regeneration after the delete writes an empty candidate set.
	assert.Equal(t, 2, slots.replaceCalls)
	assert.Empty(t, slots.lastSlots)
}

func TestSetWeeklyScheduleReplaces(t *testing.T) {
	svc, rules, _, slots := newScheduleFixture()
	doctorID := uuid.New()

	_, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)

	in2 := videoRuleInput()
	in2.DayOfWeek = 3
	created, err := svc.SetWeeklySchedule(context.Background(), doctorID, []RuleInput{in2})
	require.NoError(t, err)
	require.Len(t, created, 1)

	active, err := rules.ListByDoctor(context.Background(), doctorID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].DayOfWeek)

	// 2 Wednesdays fall inside the horizon.
	assert.Len(t, slots.lastSlots, 4)
}

func TestBlockCarvesSlots(t *testing.T) {
	svc, _, _, slots := newScheduleFixture()
	doctorID := uuid.New()

	_, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)
	require.Len(t, slots.lastSlots, 6)

	// Block the whole first Monday morning.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	block, err := svc.Block(context.Background(), doctorID, BlockInput{
		StartAt: monday.Add(9 * time.Hour),
		EndAt:   monday.Add(12 * time.Hour),
		Reason:  "conference",
	})
	require.NoError(t, err)
	assert.Equal(t, "LEAVE", block.BlockType)

	assert.Len(t, slots.lastSlots, 4)

	require.NoError(t, svc.Unblock(context.Background(), doctorID, block.ID))
	assert.Len(t, slots.lastSlots, 6)
}

func TestBlockInvalidWindow(t *testing.T) {
	svc, _, _, _ := newScheduleFixture()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := svc.Block(context.Background(), uuid.New(), BlockInput{
		StartAt: now,
		EndAt:   now,
	})
	assert.ErrorIs(t, err, ErrInvalidBlock)
}

func TestUnblockWrongDoctor(t *testing.T) {
	svc, _, _, _ := newScheduleFixture()
	doctorID := uuid.New()

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	block, err := svc.Block(context.Background(), doctorID, BlockInput{
		StartAt: monday.Add(9 * time.Hour),
		EndAt:   monday.Add(10 * time.Hour),
	})
	require.NoError(t, err)

	err = svc.Unblock(context.Background(), uuid.New(), block.ID)
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

// memSlotStore honors the full ReplaceAvailable contract the Postgres
// implementation provides: only AVAILABLE rows inside the window are
// swapped out, and candidates colliding with a surviving row on the slot
// identity (doctor, date, start time, consultation type) are skipped.
type memSlotStore struct {
	slots map[uuid.UUID]*slot.Slot
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{slots: make(map[uuid.UUID]*slot.Slot)}
}

func identityKey(s *slot.Slot) string {
	return s.DoctorID.String() + "|" + s.Date.Format("2006-01-02") + "|" +
		s.StartTime + "|" + string(s.ConsultationType)
}

func (r *memSlotStore) GetByID(_ context.Context, id uuid.UUID) (*slot.Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, slot.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSlotStore) Transition(_ context.Context, id uuid.UUID, from, to slot.Status, appointmentID *uuid.UUID) error {
	s, ok := r.slots[id]
	if !ok {
		return slot.ErrNotFound
	}
	if s.Status != from {
		return slot.ErrConflict
	}
	s.Status = to
	s.AppointmentID = appointmentID
	return nil
}

func (r *memSlotStore) ReplaceAvailable(_ context.Context, doctorID uuid.UUID, from, to time.Time, candidates []slot.Slot) error {
	for id, s := range r.slots {
		if s.DoctorID == doctorID && s.Status == slot.StatusAvailable &&
			!s.Date.Before(from) && !s.Date.After(to) {
			delete(r.slots, id)
		}
	}

	taken := make(map[string]bool)
	for _, s := range r.slots {
		taken[identityKey(s)] = true
	}

	for _, c := range candidates {
		cp := c
		if taken[identityKey(&cp)] {
			continue
		}
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		taken[identityKey(&cp)] = true
		r.slots[cp.ID] = &cp
	}

	return nil
}

func (r *memSlotStore) ListAvailable(_ context.Context, q slot.AvailabilityQuery) ([]slot.Slot, error) {
	var result []slot.Slot
	for _, s := range r.slots {
		if s.DoctorID == q.DoctorID && s.Status == slot.StatusAvailable {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (r *memSlotStore) byIdentity(date time.Time, start string) *slot.Slot {
	for _, s := range r.slots {
		if s.Date.Equal(date) && s.StartTime == start {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (r *memSlotStore) availableIdentities(doctorID uuid.UUID) map[string]bool {
	result := make(map[string]bool)
	for _, s := range r.slots {
		if s.DoctorID == doctorID && s.Status == slot.StatusAvailable {
			result[identityKey(s)] = true
		}
	}
	return result
}

func newRegenFixture() (*Service, *memSlotStore) {
	store := newMemSlotStore()
	svc := NewService(newMemRuleRepo(), newMemBlockRepo(), store, nil, zap.NewNop(), 14)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) // a Monday
	}
	return svc, store
}

func TestRegeneratePreservesHolds(t *testing.T) {
	svc, store := newRegenFixture()
	doctorID := uuid.New()

	_, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)
	require.Len(t, store.slots, 6)

	// Reserve the first Monday 09:00 slot, as a booking flow would.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	held := store.byIdentity(monday, "09:00")
	require.NotNil(t, held)

	apptID := uuid.New()
	require.NoError(t, store.Transition(context.Background(), held.ID, slot.StatusAvailable, slot.StatusReserved, &apptID))

	require.NoError(t, svc.Regenerate(context.Background(), doctorID))

	// The hold survives regeneration exactly as issued.
	kept, err := store.GetByID(context.Background(), held.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.StatusReserved, kept.Status)
	require.NotNil(t, kept.AppointmentID)
	assert.Equal(t, apptID, *kept.AppointmentID)

	// The colliding candidate was skipped: the held identity never
	// reappears as a second, bookable row.
	available := store.availableIdentities(doctorID)
	assert.Len(t, available, 5)
	assert.False(t, available[identityKey(kept)])
	assert.Len(t, store.slots, 6)
}

func TestRegenerateIdempotent(t *testing.T) {
	svc, store := newRegenFixture()
	doctorID := uuid.New()

	_, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)
	first := store.availableIdentities(doctorID)
	require.Len(t, first, 6)

	require.NoError(t, svc.Regenerate(context.Background(), doctorID))
	require.NoError(t, svc.Regenerate(context.Background(), doctorID))

	assert.Equal(t, first, store.availableIdentities(doctorID))
}

func TestRegenerateAfterRuleDeleteKeepsBookings(t *testing.T) {
	svc, store := newRegenFixture()
	doctorID := uuid.New()

	rule, err := svc.AddRule(context.Background(), doctorID, videoRuleInput())
	require.NoError(t, err)

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	booked := store.byIdentity(monday, "09:25")
	require.NotNil(t, booked)

	apptID := uuid.New()
	require.NoError(t, store.Transition(context.Background(), booked.ID, slot.StatusAvailable, slot.StatusReserved, &apptID))
	require.NoError(t, store.Transition(context.Background(), booked.ID, slot.StatusReserved, slot.StatusBooked, &apptID))

	// Dropping the rule clears every AVAILABLE slot, but a booking made
	// under the old rule is honored as issued.
	require.NoError(t, svc.DeleteRule(context.Background(), doctorID, rule.ID))

	assert.Empty(t, store.availableIdentities(doctorID))
	kept, err := store.GetByID(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.StatusBooked, kept.Status)
	require.NotNil(t, kept.AppointmentID)
	assert.Equal(t, apptID, *kept.AppointmentID)
}
