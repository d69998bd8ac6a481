package store

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
)

// Query limits.
const (
	DefaultEnergyLimit  = 10
	DefaultSensorLimit  = 20
	DefaultHistoryLimit = 50
	MaxQueryLimit       = 500
)

// ErrInvalidSample is returned for samples that cannot be stored.
var ErrInvalidSample = errors.New("store: invalid sample")

// EnergySample is the household draw at one instant, baseline included.
type EnergySample struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalWatts float64   `json:"total_watts"`
}

// Store persists device state and the append-only telemetry logs.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type Store interface {
	// Init prepares the schema. Calling it more than once is harmless.
	Init(ctx context.Context) error

	// UpsertDeviceState records the latest state of a device.
	UpsertDeviceState(ctx context.Context, name device.Name, state device.State) error

	// DeviceStates returns the persisted state of every stored device.
	DeviceStates(ctx context.Context) (map[device.Name]device.State, error)

	// AppendEnergySample appends to the energy log.
	AppendEnergySample(ctx context.Context, s EnergySample) error

	// AppendSensorSample appends to the sensor log.
	AppendSensorSample(ctx context.Context, s hardware.SensorSnapshot) error

	// QueryRecentEnergy returns up to limit samples, newest first.
	QueryRecentEnergy(ctx context.Context, limit int) ([]EnergySample, error)

	// QueryRecentSensors returns up to limit snapshots, newest first.
	QueryRecentSensors(ctx context.Context, limit int) ([]hardware.SensorSnapshot, error)

	// RecordTransition appends a device state change to the history.
	RecordTransition(ctx context.Context, t device.Transition) error

	// History returns up to limit transitions for a device, newest first.
	History(ctx context.Context, name device.Name, limit int) ([]device.Transition, error)
}

// clampLimit applies def for non-positive limits and caps at MaxQueryLimit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxQueryLimit)
}
