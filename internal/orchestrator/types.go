package orchestrator

import (
	"context"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
)

// Hardware is the device and sensor layer.
type Hardware interface {
	Apply(name device.Name, action device.Action) (hardware.Result, error)
	Devices() []hardware.DeviceState
	TotalPower() float64
	Snapshot() hardware.SensorSnapshot
}

// StateStore persists device state and transitions.
type StateStore interface {
	UpsertDeviceState(ctx context.Context, name device.Name, state device.State) error
	DeviceStates(ctx context.Context) (map[device.Name]device.State, error)
	RecordTransition(ctx context.Context, t device.Transition) error
}

// Publisher announces state on the message bus.
type Publisher interface {
	Publish(ctx context.Context, name device.Name, state device.State) error
}

// Broadcaster pushes events to live clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// SecuritySink receives door and motion transitions.
type SecuritySink interface {
	DoorChanged(open bool, at time.Time)
	MotionChanged(detected bool, at time.Time)
}

// UsageTracker receives device state changes for wear accounting.
type UsageTracker interface {
	DeviceStateChanged(name device.Name, state device.State, at time.Time)
}

// Snapshot is the outcome of one applied command.
type Snapshot struct {
	Device     device.Name  `json:"device"`
	State      device.State `json:"state"`
	Previous   device.State `json:"previous"`
	Changed    bool         `json:"changed"`
	PowerWatts float64      `json:"power_watts"`
	GPIOPin    int          `json:"gpio_pin"`
	Source     string       `json:"source"`
	Timestamp  time.Time    `json:"timestamp"`
}

// DeviceStatus combines registry and hardware views of one device.
type DeviceStatus struct {
	Name       device.Name  `json:"name"`
	State      device.State `json:"state"`
	PowerWatts float64      `json:"power_watts"`
	GPIOPin    int          `json:"gpio_pin"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Status is the whole-house view.
type Status struct {
	Devices         []DeviceStatus          `json:"devices"`
	TotalPowerWatts float64                 `json:"total_power_watts"`
	Sensors         hardware.SensorSnapshot `json:"sensors"`
	Stats           device.Stats            `json:"stats"`
	Timestamp       time.Time               `json:"timestamp"`
}
