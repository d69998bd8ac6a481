package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/scheduler"
)

// scheduleRequest is the body of POST /schedule. Enabled defaults to true
// and days to the whole week.
type scheduleRequest struct {
	Device  string   `json:"device"`
	Time    string   `json:"time"`
	Action  string   `json:"action"`
	Enabled *bool    `json:"enabled"`
	Days    []string `json:"days"`
}

func (s *Server) handleListSchedules(w http.ResponseWriter, _ *http.Request) {
	rules := s.sched.List()
	writeJSON(w, http.StatusOK, map[string]any{"schedules": rules, "count": len(rules)})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.sched.Get(device.Name(chi.URLParam(r, "device")))
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// handleSetSchedule creates or replaces the rule for a device.
func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule, err := s.sched.Add(scheduler.Rule{
		Device:  device.Name(req.Device),
		Time:    req.Time,
		Action:  device.Action(req.Action),
		Enabled: enabled,
		Days:    req.Days,
	})
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}

	s.record(r, audit.ActionScheduleSet, "schedule", string(rule.Device), map[string]any{
		"time":    rule.Time,
		"action":  string(rule.Action),
		"enabled": rule.Enabled,
		"days":    rule.Days,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "success",
		"message":  "schedule set for " + string(rule.Device),
		"schedule": rule,
	})
}

func (s *Server) handleRemoveSchedule(w http.ResponseWriter, r *http.Request) {
	name := device.Name(chi.URLParam(r, "device"))
	if err := s.sched.Remove(name); err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.record(r, audit.ActionScheduleRemove, "schedule", string(name), nil)
	writeSuccess(w, "schedule removed for "+string(name))
}

// handleToggleSchedule enables or disables a rule.
//
// Query parameters:
//   - enabled: true or false (required)
func (s *Server) handleToggleSchedule(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		writeBadRequest(w, "enabled must be true or false")
		return
	}

	rule, err := s.sched.Toggle(device.Name(chi.URLParam(r, "device")), enabled)
	if err != nil {
		s.writeScheduleError(w, err)
		return
	}
	s.record(r, audit.ActionScheduleToggle, "schedule", string(rule.Device), map[string]any{"enabled": enabled})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"schedule": rule,
	})
}

// writeScheduleError maps scheduler errors onto HTTP responses.
func (s *Server) writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduler.ErrScheduleNotFound):
		writeNotFound(w, "schedule not found")
	case errors.Is(err, scheduler.ErrInvalidRule):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error("schedule operation failed", "error", err)
		writeInternalError(w, "schedule operation failed")
	}
}
