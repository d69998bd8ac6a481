package hardware

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
)

// Sensor simulation bounds.
const (
	InitialTemperature = 25.0
	InitialHumidity    = 60.0

	MinTemperature = 20.0
	MaxTemperature = 35.0
	MinHumidity    = 40.0
	MaxHumidity    = 80.0

	temperatureStep = 0.5
	humidityStep    = 2.0

	motionProbability     = 0.05
	doorToggleProbability = 0.02
)

// profile is the fixed electrical description of a device class.
type profile struct {
	pin      int
	minWatts float64
	maxWatts float64
}

var profiles = map[device.Name]profile{
	device.Light: {pin: 17, minWatts: 10, maxWatts: 15},
	device.Fan:   {pin: 27, minWatts: 50, maxWatts: 75},
}

// Simulator stands in for the GPIO-driven devices and the ambient sensors.
//
// It is safe for concurrent use. Randomness comes from a single *rand.Rand
// guarded by the simulator's mutex, so a seeded source gives a
// reproducible sequence.
type Simulator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	devices map[device.Name]*DeviceState

	// Unrounded sensor values; rounding happens on read.
	temperature float64
	humidity    float64
	motion      bool
	door        Door
	sampledAt   time.Time

	now func() time.Time
}

// NewSimulator creates a simulator with every device OFF and sensors at
// their initial values. A nil rng uses a randomly seeded source.
func NewSimulator(rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // simulation, not security
	}

	s := &Simulator{
		rng:         rng,
		devices:     make(map[device.Name]*DeviceState, len(profiles)),
		temperature: InitialTemperature,
		humidity:    InitialHumidity,
		door:        DoorClosed,
		now:         time.Now,
	}
	for _, n := range device.Names() {
		s.devices[n] = &DeviceState{
			Device:  n,
			State:   device.Off,
			GPIOPin: profiles[n].pin,
		}
	}
	s.sampledAt = s.now().UTC()
	return s
}

// Apply drives a device to the action's target state. Turning a device on
// samples a fresh draw from its class range; turning it off pins draw to 0.
func (s *Simulator) Apply(name device.Name, action device.Action) (Result, error) {
	p, ok := profiles[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", device.ErrDeviceNotFound, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.devices[name]
	d.State = action.Target()
	if d.State == device.On {
		d.PowerWatts = p.minWatts + s.rng.Float64()*(p.maxWatts-p.minWatts)
	} else {
		d.PowerWatts = 0
	}

	return Result{
		Device:     name,
		State:      d.State,
		PowerWatts: d.PowerWatts,
		GPIOPin:    d.GPIOPin,
		Timestamp:  s.now().UTC(),
	}, nil
}

// Device returns the hardware view of one device.
func (s *Simulator) Device(name device.Name) (DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[name]
	if !ok {
		return DeviceState{}, fmt.Errorf("%w: %q", device.ErrDeviceNotFound, name)
	}
	return *d, nil
}

// Devices returns every device in device.Names() order.
func (s *Simulator) Devices() []DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]DeviceState, 0, len(s.devices))
	for _, n := range device.Names() {
		out = append(out, *s.devices[n])
	}
	return out
}

// TotalPower sums current device draw. The household baseline is not
// included.
func (s *Simulator) TotalPower() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, d := range s.devices {
		total += d.PowerWatts
	}
	return total
}

// ReadSensors advances the sensor simulation by one step and returns the
// new snapshot.
func (s *Simulator) ReadSensors() SensorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.temperature = clamp(s.temperature+s.uniform(temperatureStep), MinTemperature, MaxTemperature)
	s.humidity = clamp(s.humidity+s.uniform(humidityStep), MinHumidity, MaxHumidity)
	s.motion = s.rng.Float64() < motionProbability
	if s.rng.Float64() < doorToggleProbability {
		s.door = s.door.Toggle()
	}
	s.sampledAt = s.now().UTC()

	return s.snapshotLocked()
}

// Snapshot returns the last sensor reading without advancing the simulation.
func (s *Simulator) Snapshot() SensorSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulator) snapshotLocked() SensorSnapshot {
	return SensorSnapshot{
		Temperature: round1(s.temperature),
		Humidity:    round1(s.humidity),
		Motion:      s.motion,
		Door:        s.door,
		Timestamp:   s.sampledAt,
	}
}

// uniform returns a value in [-span, span).
func (s *Simulator) uniform(span float64) float64 {
	return (s.rng.Float64()*2 - 1) * span
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
