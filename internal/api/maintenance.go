package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/maintenance"
)

// maintenanceRequest is the body of POST /maintenance/schedule.
type maintenanceRequest struct {
	Device string `json:"device"`
	Date   string `json:"date"`
	Notes  string `json:"notes"`
}

// handleMaintenanceAlerts returns service and component alerts, most
// urgent first.
func (s *Server) handleMaintenanceAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := s.maint.Alerts()
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (s *Server) handleMaintenanceHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.maint.Health(device.Name(chi.URLParam(r, "device")))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to compute device health")
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleMaintenanceHistory(w http.ResponseWriter, r *http.Request) {
	name := device.Name(chi.URLParam(r, "device"))
	history, err := s.maint.History(name)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to load maintenance history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": name, "history": history, "count": len(history)})
}

// handleScheduleMaintenance books a service visit.
func (s *Server) handleScheduleMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	conf, err := s.maint.Schedule(device.Name(req.Device), req.Date, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, maintenance.ErrInvalidDate):
			writeValidationError(w, "date must be YYYY-MM-DD")
		case errors.Is(err, device.ErrDeviceNotFound):
			writeValidationError(w, "unknown device")
		default:
			writeInternalError(w, "failed to schedule maintenance")
		}
		return
	}

	s.logger.Info("maintenance scheduled", "device", conf.Device, "date", conf.ScheduledDate, "confirmation_id", conf.ConfirmationID)
	s.record(r, audit.ActionMaintenanceSchedule, "maintenance", string(conf.Device), map[string]any{
		"date":            conf.ScheduledDate,
		"confirmation_id": conf.ConfirmationID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":       "success",
		"confirmation": conf,
	})
}
