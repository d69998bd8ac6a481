package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hearth-core/internal/device"
)

// handlePredict returns the usage outlook for the current hour.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, err := s.insights.Predict(r.Context())
	if err != nil {
		s.logger.Error("failed to build prediction", "error", err)
		writeInternalError(w, "failed to build prediction")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTips(w http.ResponseWriter, _ *http.Request) {
	tips := s.insights.Tips()
	writeJSON(w, http.StatusOK, map[string]any{"tips": tips, "count": len(tips)})
}

func (s *Server) handleDeviceInsight(w http.ResponseWriter, r *http.Request) {
	name, err := device.ParseName(chi.URLParam(r, "device"))
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}

	ins, err := s.insights.DeviceInsight(r.Context(), name)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to build device insight", "device", name, "error", err)
		writeInternalError(w, "failed to build device insight")
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.insights.WeeklySummary(r.Context())
	if err != nil {
		s.logger.Error("failed to build weekly summary", "error", err)
		writeInternalError(w, "failed to build weekly summary")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
