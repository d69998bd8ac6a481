package telemetry

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/metrics"
	"github.com/nerrad567/hearth-core/internal/store"
)

// Broadcast channels.
const (
	ChannelEnergy = "energy.sample"
	ChannelSensor = "sensor.snapshot"
)

const (
	defaultInterval = 5 * time.Second
	storeTimeout    = 2 * time.Second
)

// Logger defines the logging interface used by the sampler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Source is the hardware the sampler reads.
type Source interface {
	TotalPower() float64
	ReadSensors() hardware.SensorSnapshot
}

// Sink receives samples.
type Sink interface {
	AppendEnergySample(ctx context.Context, s store.EnergySample) error
	AppendSensorSample(ctx context.Context, s hardware.SensorSnapshot) error
}

// SensorObserver is told about every sensor snapshot.
type SensorObserver interface {
	OnSensorSnapshot(ctx context.Context, snap hardware.SensorSnapshot)
}

// Broadcaster pushes samples to live clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Config holds the sampling periods and the baseline load.
type Config struct {
	EnergyInterval time.Duration
	SensorInterval time.Duration
	BaselineWatts  float64
}

// Sampler runs the energy and sensor loops.
type Sampler struct {
	cfg    Config
	source Source
	sink   Sink

	observer    SensorObserver
	broadcaster Broadcaster
	logger      Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// New creates a sampler. Non-positive intervals fall back to 5 s.
func New(cfg Config, source Source, sink Sink) *Sampler {
	if cfg.EnergyInterval <= 0 {
		cfg.EnergyInterval = defaultInterval
	}
	if cfg.SensorInterval <= 0 {
		cfg.SensorInterval = defaultInterval
	}
	return &Sampler{
		cfg:    cfg,
		source: source,
		sink:   sink,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger. A nil logger is ignored.
func (s *Sampler) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetMetrics attaches Prometheus instruments.
func (s *Sampler) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetObserver registers the sensor snapshot observer.
func (s *Sampler) SetObserver(o SensorObserver) {
	s.observer = o
}

// SetBroadcaster registers the live push target.
func (s *Sampler) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SampleEnergy takes one energy reading and stores it. The sample is
// returned even when storing fails.
func (s *Sampler) SampleEnergy(ctx context.Context) (store.EnergySample, error) {
	sample := store.EnergySample{
		Timestamp:  s.now().UTC(),
		TotalWatts: s.source.TotalPower() + s.cfg.BaselineWatts,
	}

	s.metrics.ObserveEnergySample(sample.TotalWatts)
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ChannelEnergy, sample)
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.sink.AppendEnergySample(sctx, sample); err != nil {
		s.metrics.ObserveStoreError("append_energy")
		return sample, fmt.Errorf("storing energy sample: %w", err)
	}
	return sample, nil
}

// SampleSensors advances the simulated sensors, notifies the observer and
// stores the snapshot. The observer runs even when storing fails.
func (s *Sampler) SampleSensors(ctx context.Context) (hardware.SensorSnapshot, error) {
	snap := s.source.ReadSensors()

	s.metrics.ObserveSensorSample(snap.Temperature, snap.Humidity)
	if s.observer != nil {
		s.observer.OnSensorSnapshot(ctx, snap)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ChannelSensor, snap)
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.sink.AppendSensorSample(sctx, snap); err != nil {
		s.metrics.ObserveStoreError("append_sensor")
		return snap, fmt.Errorf("storing sensor sample: %w", err)
	}
	return snap, nil
}

// Run starts both loops and blocks until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	s.logger.Info("telemetry sampler started",
		"energy_interval", s.cfg.EnergyInterval.String(),
		"sensor_interval", s.cfg.SensorInterval.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.loop(gctx, "energy", s.cfg.EnergyInterval, func(ctx context.Context) error {
			_, err := s.SampleEnergy(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		s.loop(gctx, "sensor", s.cfg.SensorInterval, func(ctx context.Context) error {
			_, err := s.SampleSensors(ctx)
			return err
		})
		return nil
	})

	err := g.Wait()
	s.logger.Info("telemetry sampler stopped")
	return err
}

// loop calls tick every interval until ctx is done.
func (s *Sampler) loop(ctx context.Context, name string, interval time.Duration, tick func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeTick(ctx, name, tick)
		}
	}
}

// safeTick runs one tick, logging errors and recovering panics.
func (s *Sampler) safeTick(ctx context.Context, name string, tick func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("telemetry tick panicked", "loop", name, "panic", r)
		}
	}()

	if err := tick(ctx); err != nil {
		s.logger.Warn("telemetry tick failed", "loop", name, "error", err)
	}
}
