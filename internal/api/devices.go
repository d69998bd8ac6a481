package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/orchestrator"
	"github.com/nerrad567/hearth-core/internal/store"
)

// controlRequest is the body of POST /device/control.
type controlRequest struct {
	Device string `json:"device"`
	Action string `json:"action"`
}

// controlResponse reports the applied command.
type controlResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	orchestrator.Snapshot
}

// handleDeviceControl turns a device on or off.
func (s *Server) handleDeviceControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	name := device.Name(strings.TrimSpace(req.Device))
	action := device.Action(strings.ToUpper(strings.TrimSpace(req.Action)))

	snap, err := s.orch.Control(r.Context(), name, action, device.SourceAPI)
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrValidation), errors.Is(err, device.ErrDeviceNotFound):
			writeValidationError(w, err.Error())
		default:
			s.logger.Error("device control failed", "device", name, "action", action, "error", err)
			writeInternalError(w, "failed to control device")
		}
		return
	}

	s.record(r, audit.ActionDeviceControl, "device", string(snap.Device), map[string]any{
		"action":  string(action),
		"changed": snap.Changed,
	})
	writeJSON(w, http.StatusOK, controlResponse{
		Status:   "success",
		Message:  string(snap.Device) + " turned " + string(snap.State),
		Snapshot: snap,
	})
}

// handleDeviceStatus returns registry and hardware state for every device.
func (s *Server) handleDeviceStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

// handleDeviceHistory returns recent state changes for one device.
//
// Query parameters:
//   - limit: maximum entries (default 50)
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	name, err := device.ParseName(chi.URLParam(r, "name"))
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	limit, ok := queryLimit(w, r, store.DefaultHistoryLimit)
	if !ok {
		return
	}

	history, err := s.store.History(r.Context(), name, limit)
	if err != nil {
		s.logger.Error("failed to load device history", "device", name, "error", err)
		writeInternalError(w, "failed to load device history")
		return
	}
	if history == nil {
		history = []device.Transition{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device":  name,
		"history": history,
		"count":   len(history),
	})
}

// queryLimit parses the optional "limit" query parameter. It writes a 400
// and returns false when the value is not a positive integer.
func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeBadRequest(w, "limit must be a positive integer")
		return 0, false
	}
	if n > store.MaxQueryLimit {
		n = store.MaxQueryLimit
	}
	return n, true
}
