package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/hearth-core/internal/auth"
)

// healthTimeout bounds the dependency checks behind /health.
const healthTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/ws", s.handleWebSocket)
		r.With(s.requirePermission(auth.PermSecurityManage)).Get("/audit", s.handleAuditLog)

		r.Route("/device", func(r chi.Router) {
			r.Get("/status", s.handleDeviceStatus)
			r.Get("/{name}/history", s.handleDeviceHistory)
			r.With(s.requirePermission(auth.PermDeviceOperate)).Post("/control", s.handleDeviceControl)
		})

		r.Get("/energy", s.handleEnergy)
		r.Get("/predict", s.handlePredict)

		r.Route("/ai", func(r chi.Router) {
			r.Get("/tips", s.handleTips)
			r.Get("/insights/{device}", s.handleDeviceInsight)
			r.Get("/summary", s.handleWeeklySummary)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Get("/{device}", s.handleGetSchedule)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermScheduleManage))
				r.Post("/", s.handleSetSchedule)
				r.Delete("/{device}", s.handleRemoveSchedule)
				r.Put("/{device}/toggle", s.handleToggleSchedule)
			})
		})

		r.Get("/sensors", s.handleSensors)
		r.Get("/sensors/history", s.handleSensorHistory)
		r.Get("/hardware/status", s.handleHardwareStatus)

		r.Route("/security", func(r chi.Router) {
			r.Get("/", s.handleSecurityStatus)
			r.Get("/alerts", s.handleSecurityAlerts)
			r.Get("/stats", s.handleSecurityStats)
			r.Get("/cameras", s.handleSecurityCameras)
			r.Get("/sensors", s.handleSecuritySensors)

			r.Group(func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermSecurityManage))
				r.Post("/mode", s.handleSetSecurityMode)
				r.Put("/alert/{id}/acknowledge", s.handleAcknowledgeAlert)
				r.Delete("/alerts", s.handleClearAlerts)
			})
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", s.handleMaintenanceAlerts)
			r.Get("/{device}/health", s.handleMaintenanceHealth)
			r.Get("/{device}/history", s.handleMaintenanceHistory)
			r.With(s.requirePermission(auth.PermMaintenanceManage)).Post("/schedule", s.handleScheduleMaintenance)
		})
	})

	return r
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Bus           string `json:"bus"`
	Database      string `json:"database"`
	WSClients     int    `json:"websocket_clients"`
}

// handleHealth reports liveness plus bus and database state. A degraded
// or disconnected bus does not make the service unhealthy; a failing
// database does.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Bus:           "unknown",
		Database:      "ok",
		WSClients:     s.hub.ClientCount(),
	}
	if s.bus != nil {
		resp.Bus = s.bus.Mode()
	}

	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.db.HealthCheck(ctx); err != nil {
			s.logger.Warn("database health check failed", "error", err)
			resp.Status = "unhealthy"
			resp.Database = "error"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

// handleMetrics serves Prometheus metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "metrics are disabled")
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}
