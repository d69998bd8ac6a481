// Package api provides the HTTP REST API and WebSocket server for Hearth Core.
//
// It exposes device control, schedules, telemetry history, usage insights,
// and the security and maintenance monitors to dashboards and wall panels.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
	"github.com/nerrad567/hearth-core/internal/infrastructure/logging"
	"github.com/nerrad567/hearth-core/internal/infrastructure/metrics"
	"github.com/nerrad567/hearth-core/internal/insights"
	"github.com/nerrad567/hearth-core/internal/maintenance"
	"github.com/nerrad567/hearth-core/internal/orchestrator"
	"github.com/nerrad567/hearth-core/internal/scheduler"
	"github.com/nerrad567/hearth-core/internal/security"
	"github.com/nerrad567/hearth-core/internal/store"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// BusStatus reports the message bus mode for health checks.
type BusStatus interface {
	Mode() string
}

// HealthChecker is implemented by the database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	WS           config.WebSocketConfig
	Security     config.SecurityConfig
	Telemetry    config.TelemetryConfig
	Logger       *logging.Logger
	Metrics      *metrics.Metrics
	Orchestrator *orchestrator.Orchestrator
	Hardware     *hardware.Simulator
	Scheduler    *scheduler.Scheduler
	Store        store.Store
	Monitor      *security.Monitor
	Maintenance  *maintenance.Monitor
	Insights     *insights.Analyzer
	Audit        audit.Recorder // optional
	Bus          BusStatus
	DB           HealthChecker
	ExternalHub  *Hub // If set, the server uses this hub instead of creating its own
	Version      string
}

// Server is the HTTP API server for Hearth Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	wsCfg        config.WebSocketConfig
	secCfg       config.SecurityConfig
	telemetryCfg config.TelemetryConfig
	logger       *logging.Logger
	metrics      *metrics.Metrics
	orch         *orchestrator.Orchestrator
	hw           *hardware.Simulator
	sched        *scheduler.Scheduler
	store        store.Store
	monitor      *security.Monitor
	maint        *maintenance.Monitor
	insights     *insights.Analyzer
	audit        audit.Recorder
	bus          BusStatus
	db           HealthChecker
	version      string
	startTime    time.Time
	server       *http.Server
	hub          *Hub
	externalHub  bool               // true if hub was injected externally
	cancel       context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if deps.Hardware == nil {
		return nil, fmt.Errorf("hardware is required")
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("scheduler is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Monitor == nil {
		return nil, fmt.Errorf("security monitor is required")
	}
	if deps.Maintenance == nil {
		return nil, fmt.Errorf("maintenance monitor is required")
	}
	if deps.Insights == nil {
		return nil, fmt.Errorf("insights analyzer is required")
	}

	s := &Server{
		cfg:          deps.Config,
		wsCfg:        deps.WS,
		secCfg:       deps.Security,
		telemetryCfg: deps.Telemetry,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		orch:         deps.Orchestrator,
		hw:           deps.Hardware,
		sched:        deps.Scheduler,
		store:        deps.Store,
		monitor:      deps.Monitor,
		maint:        deps.Maintenance,
		insights:     deps.Insights,
		audit:        deps.Audit,
		bus:          deps.Bus,
		db:           deps.DB,
		version:      deps.Version,
		startTime:    time.Now(),
	}

	// An injected hub is shared with the orchestrator and samplers and is
	// run by its owner.
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	} else {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.hub.SetMetrics(s.metrics)
	}

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listener and serves in a background goroutine. A bind
// failure is returned directly. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("binding API listener: %w", err)
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ServeTLS(ln, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
