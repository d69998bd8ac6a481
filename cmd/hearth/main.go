// Hearth Core - home device orchestration and scheduling.
//
// This is the main entry point. It wires the device registry, the simulated
// hardware layer, the MQTT bus, the scheduler and telemetry samplers behind
// the REST/WebSocket API, and runs them until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/hearth-core/internal/api"
	"github.com/nerrad567/hearth-core/internal/audit"
	"github.com/nerrad567/hearth-core/internal/bus"
	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
	"github.com/nerrad567/hearth-core/internal/infrastructure/database"
	"github.com/nerrad567/hearth-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/hearth-core/internal/infrastructure/logging"
	"github.com/nerrad567/hearth-core/internal/infrastructure/metrics"
	"github.com/nerrad567/hearth-core/internal/insights"
	"github.com/nerrad567/hearth-core/internal/maintenance"
	"github.com/nerrad567/hearth-core/internal/orchestrator"
	"github.com/nerrad567/hearth-core/internal/scheduler"
	"github.com/nerrad567/hearth-core/internal/security"
	"github.com/nerrad567/hearth-core/internal/store"
	"github.com/nerrad567/hearth-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Only configuration, database and HTTP bind failures are returned; the
// broker and InfluxDB being unreachable degrade the service instead.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting Hearth Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	primary := store.NewSQLite(db)
	if initErr := primary.Init(ctx); initErr != nil {
		return fmt.Errorf("running migrations: %w", initErr)
	}
	log.Info("database migrations complete")

	st, influxClient := openStore(cfg, primary, log)
	defer func() {
		if influxClient == nil {
			return
		}
		log.Info("closing InfluxDB connection")
		if closeErr := influxClient.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}()

	m := metrics.New(metrics.DefaultNamespace)

	b := bus.Connect(cfg.MQTT, log.Component("bus"))
	b.SetMetrics(m)
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := b.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("message bus ready", "mode", b.Mode())

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	hub.SetMetrics(m)

	hw := hardware.NewSimulator(nil)

	monitor := security.NewMonitor()
	monitor.SetLogger(log.Component("security"))
	monitor.SetBroadcaster(hub)

	maint := maintenance.NewMonitor(nil)

	orch := orchestrator.New(device.NewRegistry(), hw, st, b)
	orch.SetLogger(log.Component("orchestrator"))
	orch.SetMetrics(m)
	orch.SetBroadcaster(hub)
	orch.SetSecurity(monitor)
	orch.SetUsage(maint)

	if _, syncErr := orch.SyncFromStore(ctx); syncErr != nil {
		log.Warn("device state not restored", "error", syncErr)
	}

	if subErr := b.OnMessage(orch.HandleBusMessage); subErr != nil {
		log.Warn("bus subscription failed", "error", subErr)
	}

	sched := scheduler.New(orch.ScheduledAction, cfg.Location())
	sched.SetLogger(log.Component("scheduler"))
	sched.SetMetrics(m)

	sampler := telemetry.New(telemetry.Config{
		EnergyInterval: cfg.EnergyInterval(),
		SensorInterval: cfg.SensorInterval(),
		BaselineWatts:  cfg.Telemetry.BaselineWatts,
	}, hw, st)
	sampler.SetLogger(log.Component("telemetry"))
	sampler.SetMetrics(m)
	sampler.SetObserver(orch)
	sampler.SetBroadcaster(hub)

	analyzer := insights.New(st, hw, insights.Options{
		Pricing:       cfg.Insights,
		BaselineWatts: cfg.Telemetry.BaselineWatts,
		Location:      cfg.Location(),
	})
	analyzer.SetLogger(log.Component("insights"))

	srv, err := api.New(api.Deps{
		Config:       cfg.API,
		WS:           cfg.WebSocket,
		Security:     cfg.Security,
		Telemetry:    cfg.Telemetry,
		Logger:       log.Component("api"),
		Metrics:      m,
		Orchestrator: orch,
		Hardware:     hw,
		Scheduler:    sched,
		Store:        st,
		Monitor:      monitor,
		Maintenance:  maint,
		Insights:     analyzer,
		Audit:        audit.NewSQLite(db),
		Bus:          b,
		DB:           db,
		ExternalHub:  hub,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := srv.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	if cfg.Security.JWT.Secret == "" {
		log.Warn("security.jwt.secret is empty, mutating routes are unauthenticated")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return sampler.Run(gctx)
	})
	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	} else {
		log.Info("scheduler disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("background task failed: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("Hearth Core stopped")
	return nil
}

// openStore decorates the SQLite store with the InfluxDB mirror when it is
// enabled and reachable. The returned client is nil otherwise.
func openStore(cfg *config.Config, primary store.Store, log *logging.Logger) (store.Store, *influxdb.Client) {
	if !cfg.InfluxDB.Enabled {
		log.Info("InfluxDB disabled")
		return primary, nil
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	if err != nil {
		log.Warn("InfluxDB unavailable, telemetry stays in SQLite only", "error", err)
		return primary, nil
	}
	influxClient.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.InfluxDB.URL,
		"org", cfg.InfluxDB.Org,
		"bucket", cfg.InfluxDB.Bucket,
	)
	return store.NewMirror(primary, influxClient), influxClient
}

// getConfigPath returns the configuration file path.
// Uses HEARTH_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEARTH_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
