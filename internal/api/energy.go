package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/hearth-core/internal/store"
)

// energyResponse is the body of GET /energy.
type energyResponse struct {
	CurrentWatts  float64              `json:"current_consumption"`
	DeviceWatts   float64              `json:"device_consumption"`
	BaselineWatts float64              `json:"baseline_watts"`
	Unit          string               `json:"unit"`
	History       []store.EnergySample `json:"history"`
	Timestamp     time.Time            `json:"timestamp"`
}

// handleEnergy returns live consumption and the most recent samples.
func (s *Server) handleEnergy(w http.ResponseWriter, r *http.Request) {
	deviceWatts := s.hw.TotalPower()

	history, err := s.store.QueryRecentEnergy(r.Context(), store.DefaultEnergyLimit)
	if err != nil {
		s.logger.Error("failed to load energy history", "error", err)
		writeInternalError(w, "failed to load energy history")
		return
	}
	if history == nil {
		history = []store.EnergySample{}
	}

	writeJSON(w, http.StatusOK, energyResponse{
		CurrentWatts:  deviceWatts + s.telemetryCfg.BaselineWatts,
		DeviceWatts:   deviceWatts,
		BaselineWatts: s.telemetryCfg.BaselineWatts,
		Unit:          "W",
		History:       history,
		Timestamp:     time.Now().UTC(),
	})
}
