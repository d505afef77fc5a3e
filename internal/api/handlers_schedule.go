package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/healthbridge/appointment-engine/internal/schedule"
	"github.com/healthbridge/appointment-engine/internal/slot"
)

func listWeeklyScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		rules, err := svc.WeeklySchedule(r.Context(), doctorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRuleResponses(rules))
	}
}

func addWeeklyRuleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		var req WeeklyRuleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		in, ok2 := ruleInput(w, req)
		if !ok2 {
			return
		}

		rule, err := svc.AddRule(r.Context(), doctorID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRuleResponse(rule))
	}
}

func setWeeklyScheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		var reqs []WeeklyRuleRequest
		if !decodeBody(w, r, &reqs) {
			return
		}

		inputs := make([]schedule.RuleInput, 0, len(reqs))
		for _, req := range reqs {
			if !validateStruct(w, &req) {
				return
			}
			in, ok2 := ruleInput(w, req)
			if !ok2 {
				return
			}
			inputs = append(inputs, in)
		}

		rules, err := svc.SetWeeklySchedule(r.Context(), doctorID, inputs)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRuleResponses(rules))
	}
}

func updateWeeklyRuleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rule_id", "id must be a valid UUID")
			return
		}

		var req WeeklyRuleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		in, ok2 := ruleInput(w, req)
		if !ok2 {
			return
		}

		rule, err := svc.UpdateRule(r.Context(), doctorID, ruleID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRuleResponse(rule))
	}
}

func deleteWeeklyRuleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rule_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteRule(r.Context(), doctorID, ruleID); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listBlocksHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		blocks, err := svc.BlockedIntervals(r.Context(), doctorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBlockResponses(blocks))
	}
}

func blockHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		var req BlockRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		block, err := svc.Block(r.Context(), doctorID, schedule.BlockInput{
			StartAt:           req.StartDatetime,
			EndAt:             req.EndDatetime,
			Reason:            req.Reason,
			BlockType:         req.BlockType,
			Recurring:         req.IsRecurring,
			RecurrencePattern: req.RecurrencePattern,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toBlockResponse(block))
	}
}

func unblockHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		blockID, err := uuid.Parse(chi.URLParam(r, "blockID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_block_id", "id must be a valid UUID")
			return
		}

		if err := svc.Unblock(r.Context(), doctorID, blockID); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func regenerateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := userID(w, r)
		if !ok {
			return
		}

		if err := svc.Regenerate(r.Context(), doctorID); err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]string{"status": "regenerated"})
	}
}

func ruleInput(w http.ResponseWriter, req WeeklyRuleRequest) (schedule.RuleInput, bool) {
	consultationType, err := slot.ParseConsultationType(req.ConsultationType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return schedule.RuleInput{}, false
	}

	in := schedule.RuleInput{
		DayOfWeek:           *req.DayOfWeek,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDurationMinutes,
		BufferMinutes:       req.BufferMinutes,
		ConsultationType:    consultationType,
	}
	if req.ClinicID != "" {
		clinicID := uuid.MustParse(req.ClinicID)
		in.ClinicID = &clinicID
	}
	return in, true
}

func toRuleResponse(rule *schedule.WeeklyRule) WeeklyRuleResponse {
	return WeeklyRuleResponse{
		ID:                  rule.ID,
		DoctorID:            rule.DoctorID,
		ClinicID:            rule.ClinicID,
		DayOfWeek:           rule.DayOfWeek,
		DayName:             schedule.DayName(rule.DayOfWeek),
		StartTime:           rule.StartTime,
		EndTime:             rule.EndTime,
		SlotDurationMinutes: rule.SlotDurationMinutes,
		BufferMinutes:       rule.BufferMinutes,
		ConsultationType:    string(rule.ConsultationType),
		Active:              rule.Active,
	}
}

func toRuleResponses(rules []schedule.WeeklyRule) []WeeklyRuleResponse {
	result := make([]WeeklyRuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, toRuleResponse(&rules[i]))
	}
	return result
}

func toBlockResponse(block *schedule.BlockedInterval) BlockResponse {
	return BlockResponse{
		ID:                block.ID,
		DoctorID:          block.DoctorID,
		StartDatetime:     block.StartAt,
		EndDatetime:       block.EndAt,
		Reason:            block.Reason,
		BlockType:         block.BlockType,
		IsRecurring:       block.Recurring,
		RecurrencePattern: block.RecurrencePattern,
	}
}

func toBlockResponses(blocks []schedule.BlockedInterval) []BlockResponse {
	result := make([]BlockResponse, 0, len(blocks))
	for i := range blocks {
		result = append(result, toBlockResponse(&blocks[i]))
	}
	return result
}
