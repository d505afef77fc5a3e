package api

import (
	"errors"
	"net/http"

	"github.com/healthbridge/appointment-engine/internal/appointment"
	"github.com/healthbridge/appointment-engine/internal/schedule"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

// writeServiceError maps engine errors onto the HTTP contract. Conflicts
// stay distinguishable on the wire: a lost reservation race, a lapsed
// hold, and an invalid transition each get their own code so clients can
// react differently (re-poll availability vs. restart checkout).
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, slot.ErrNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", "slot not found")
	case errors.Is(err, appointment.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.Is(err, schedule.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, "weekly_rule_not_found", "weekly rule not found")
	case errors.Is(err, schedule.ErrBlockNotFound):
		writeError(w, http.StatusNotFound, "blocked_interval_not_found", "blocked interval not found")
	case errors.Is(err, appointment.ErrSlotUnavailable), errors.Is(err, slot.ErrConflict):
		writeError(w, http.StatusConflict, "slot_unavailable", "slot is no longer available")
	case errors.Is(err, appointment.ErrReservationExpired):
		writeError(w, http.StatusConflict, "reservation_expired", "reservation hold has expired")
	case errors.Is(err, appointment.ErrInvalidState), errors.Is(err, appointment.ErrConflict):
		writeError(w, http.StatusConflict, "invalid_status_transition", "operation not valid in current status")
	case errors.Is(err, appointment.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized", "actor is not a party to this appointment")
	case errors.Is(err, appointment.ErrPastSlot):
		writeError(w, http.StatusBadRequest, "validation_error", "cannot book a past slot")
	case errors.Is(err, schedule.ErrInvalidRule), errors.Is(err, schedule.ErrInvalidBlock):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
