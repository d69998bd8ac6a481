package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/store"
)

// handleSensors returns the last sensor reading without advancing the
// simulation.
func (s *Server) handleSensors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hw.Snapshot())
}

// handleSensorHistory returns recent sensor snapshots, newest first.
//
// Query parameters:
//   - limit: maximum entries (default 20)
func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(w, r, store.DefaultSensorLimit)
	if !ok {
		return
	}

	history, err := s.store.QueryRecentSensors(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to load sensor history", "error", err)
		writeInternalError(w, "failed to load sensor history")
		return
	}
	if history == nil {
		history = []hardware.SensorSnapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": history, "count": len(history)})
}

// hardwareStatusResponse is the body of GET /hardware/status.
type hardwareStatusResponse struct {
	Mode            string                  `json:"mode"`
	Devices         []hardware.DeviceState  `json:"devices"`
	TotalPowerWatts float64                 `json:"total_power_watts"`
	Sensors         hardware.SensorSnapshot `json:"sensors"`
	Timestamp       time.Time               `json:"timestamp"`
}

func (s *Server) handleHardwareStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hardwareStatusResponse{
		Mode:            "simulation",
		Devices:         s.hw.Devices(),
		TotalPowerWatts: s.hw.TotalPower(),
		Sensors:         s.hw.Snapshot(),
		Timestamp:       time.Now().UTC(),
	})
}
