package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/healthbridge/appointment-engine/internal/appointment"
	"github.com/healthbridge/appointment-engine/internal/schedule"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"slot missing", slot.ErrNotFound, http.StatusNotFound, "slot_not_found"},
		{"appointment missing", appointment.ErrNotFound, http.StatusNotFound, "appointment_not_found"},
		{"rule missing", schedule.ErrRuleNotFound, http.StatusNotFound, "weekly_rule_not_found"},
		{"block missing", schedule.ErrBlockNotFound, http.StatusNotFound, "blocked_interval_not_found"},
		{"slot taken", appointment.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{"slot conflict", slot.ErrConflict, http.StatusConflict, "slot_unavailable"},
		{"hold lapsed", appointment.ErrReservationExpired, http.StatusConflict, "reservation_expired"},
		{"bad transition", appointment.ErrInvalidState, http.StatusConflict, "invalid_status_transition"},
		{"appointment conflict", appointment.ErrConflict, http.StatusConflict, "invalid_status_transition"},
		{"not a party", appointment.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
		{"past slot", appointment.ErrPastSlot, http.StatusBadRequest, "validation_error"},
		{"bad rule", schedule.ErrInvalidRule, http.StatusBadRequest, "validation_error"},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}

func TestUserIDHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	_, ok := userID(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-Id", "not-a-uuid")
	rec = httptest.NewRecorder()

	_, ok = userID(rec, r)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	want := uuid.New()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-Id", want.String())
	rec = httptest.NewRecorder()

	got, ok := userID(rec, r)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

// stubSlotRepo serves a canned availability listing.
type stubSlotRepo struct {
	slots   []slot.Slot
	lastQ   slot.AvailabilityQuery
	queried bool
}

func (r *stubSlotRepo) GetByID(context.Context, uuid.UUID) (*slot.Slot, error) {
	return nil, slot.ErrNotFound
}

func (r *stubSlotRepo) Transition(context.Context, uuid.UUID, slot.Status, slot.Status, *uuid.UUID) error {
	return nil
}

func (r *stubSlotRepo) ReplaceAvailable(context.Context, uuid.UUID, time.Time, time.Time, []slot.Slot) error {
	return nil
}

func (r *stubSlotRepo) ListAvailable(_ context.Context, q slot.AvailabilityQuery) ([]slot.Slot, error) {
	r.lastQ = q
	r.queried = true
	return r.slots, nil
}

func slotsRouter(repo slot.Repository) http.Handler {
	r := chi.NewRouter()
	r.Get("/doctors/{doctorID}/slots", availableSlotsHandler(repo, nil, zap.NewNop()))
	return r
}

func TestAvailableSlotsGroupedByDay(t *testing.T) {
	doctorID := uuid.New()
	day1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	repo := &stubSlotRepo{slots: []slot.Slot{
		{ID: uuid.New(), DoctorID: doctorID, Date: day1, StartTime: "09:00", EndTime: "09:20", ConsultationType: slot.TypeVideo, DurationMinutes: 20},
		{ID: uuid.New(), DoctorID: doctorID, Date: day1, StartTime: "09:25", EndTime: "09:45", ConsultationType: slot.TypeVideo, DurationMinutes: 20},
		{ID: uuid.New(), DoctorID: doctorID, Date: day2, StartTime: "14:00", EndTime: "14:30", ConsultationType: slot.TypeInPerson, DurationMinutes: 30},
	}}

	req := httptest.NewRequest(http.MethodGet,
		"/doctors/"+doctorID.String()+"/slots?startDate=2026-03-02&endDate=2026-03-08", nil)
	rec := httptest.NewRecorder()
	slotsRouter(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AvailableSlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, doctorID, resp.DoctorID)
	assert.Equal(t, 3, resp.TotalAvailableSlots)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, "2026-03-02", resp.Days[0].Date)
	assert.Equal(t, "Monday", resp.Days[0].DayName)
	assert.Len(t, resp.Days[0].Slots, 2)
	assert.Equal(t, "2026-03-03", resp.Days[1].Date)
	assert.Len(t, resp.Days[1].Slots, 1)
	assert.Equal(t, "14:00", resp.Days[1].Slots[0].StartTime)
}

func TestAvailableSlotsQueryFilters(t *testing.T) {
	doctorID := uuid.New()
	clinicID := uuid.New()
	repo := &stubSlotRepo{}

	req := httptest.NewRequest(http.MethodGet,
		"/doctors/"+doctorID.String()+"/slots?startDate=2026-03-02&endDate=2026-03-04&consultationType=VIDEO&clinicId="+clinicID.String(), nil)
	rec := httptest.NewRecorder()
	slotsRouter(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, repo.queried)
	assert.Equal(t, doctorID, repo.lastQ.DoctorID)
	assert.Equal(t, slot.TypeVideo, repo.lastQ.ConsultationType)
	require.NotNil(t, repo.lastQ.ClinicID)
	assert.Equal(t, clinicID, *repo.lastQ.ClinicID)
}

func TestAvailableSlotsBadInput(t *testing.T) {
	repo := &stubSlotRepo{}

	req := httptest.NewRequest(http.MethodGet, "/doctors/nope/slots", nil)
	rec := httptest.NewRecorder()
	slotsRouter(repo).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet,
		"/doctors/"+uuid.NewString()+"/slots?startDate=2026-03-08&endDate=2026-03-02", nil)
	rec = httptest.NewRecorder()
	slotsRouter(repo).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet,
		"/doctors/"+uuid.NewString()+"/slots?consultationType=TELEPATHY", nil)
	rec = httptest.NewRecorder()
	slotsRouter(repo).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
