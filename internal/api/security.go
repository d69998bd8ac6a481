package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/security"
)

type securityModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSecurityStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Status())
}

func (s *Server) handleSecurityAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := s.monitor.Alerts()
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleSecurityStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.Stats())
}

// handleSetSecurityMode switches the alarm mode.
func (s *Server) handleSetSecurityMode(w http.ResponseWriter, r *http.Request) {
	var req securityModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	mode, err := security.ParseMode(req.Mode)
	if err == nil {
		err = s.monitor.SetMode(mode)
	}
	if err != nil {
		if errors.Is(err, security.ErrInvalidMode) {
			writeValidationError(w, "mode must be one of ARMED, DISARMED, STAY, AWAY")
			return
		}
		writeInternalError(w, "failed to set security mode")
		return
	}

	s.logger.Info("security mode changed", "mode", mode)
	s.record(r, audit.ActionSecurityMode, "security", "", map[string]any{"mode": string(mode)})
	writeSuccess(w, "security mode set to "+string(mode))
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "alert id must be an integer")
		return
	}

	if err := s.monitor.Acknowledge(id); err != nil {
		if errors.Is(err, security.ErrAlertNotFound) {
			writeNotFound(w, "alert not found")
			return
		}
		writeInternalError(w, "failed to acknowledge alert")
		return
	}
	s.record(r, audit.ActionAlertAcknowledge, "security", strconv.FormatInt(id, 10), nil)
	writeSuccess(w, "alert acknowledged")
}

// handleClearAlerts drops every acknowledged alert.
func (s *Server) handleClearAlerts(w http.ResponseWriter, r *http.Request) {
	n := s.monitor.ClearAcknowledged()
	s.record(r, audit.ActionAlertsClear, "security", "", map[string]any{"cleared": n})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"cleared": n,
	})
}

func (s *Server) handleSecurityCameras(w http.ResponseWriter, _ *http.Request) {
	cams := s.monitor.Cameras()
	writeJSON(w, http.StatusOK, map[string]any{"cameras": cams, "count": len(cams)})
}

func (s *Server) handleSecuritySensors(w http.ResponseWriter, _ *http.Request) {
	sensors := s.monitor.Sensors()
	writeJSON(w, http.StatusOK, map[string]any{"sensors": sensors, "count": len(sensors)})
}
