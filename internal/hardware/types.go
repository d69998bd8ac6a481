package hardware

import (
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
)

// Door is the contact sensor reading.
type Door string

// Door states.
const (
	DoorOpen   Door = "OPEN"
	DoorClosed Door = "CLOSED"
)

// Toggle returns the opposite door state.
func (d Door) Toggle() Door {
	if d == DoorOpen {
		return DoorClosed
	}
	return DoorOpen
}

// Result describes the physical effect of applying an action.
type Result struct {
	Device     device.Name  `json:"device"`
	State      device.State `json:"state"`
	PowerWatts float64      `json:"power_watts"`
	GPIOPin    int          `json:"gpio_pin"`
	Timestamp  time.Time    `json:"timestamp"`
}

// DeviceState is the simulator's view of one device.
type DeviceState struct {
	Device     device.Name  `json:"device"`
	State      device.State `json:"state"`
	PowerWatts float64      `json:"power_watts"`
	GPIOPin    int          `json:"gpio_pin"`
}

// SensorSnapshot is one ambient reading. Temperature and humidity are
// rounded to one decimal.
type SensorSnapshot struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Motion      bool      `json:"motion"`
	Door        Door      `json:"door"`
	Timestamp   time.Time `json:"timestamp"`
}
