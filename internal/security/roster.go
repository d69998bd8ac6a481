package security

import "time"

// Camera and sensor states reported in the rosters.
const (
	CameraOnline = "ONLINE"

	SensorTypeDoor   = "DOOR"
	SensorTypeMotion = "MOTION"
)

// Camera is one entry of the camera roster.
type Camera struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	Resolution      string     `json:"resolution"`
	Recording       bool       `json:"recording"`
	MotionDetection bool       `json:"motion_detection"`
	LastMotion      *time.Time `json:"last_motion"`
}

// Sensor is one entry of the sensor roster. Live is false for sensors the
// simulator does not drive; their status is the installed default.
type Sensor struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Battery  int    `json:"battery_percent"`
	Live     bool   `json:"live"`
}

type installedSensor struct {
	name     string
	location string
	kind     string
	battery  int
}

var installedSensors = []installedSensor{
	{"Main Door Sensor", LocationMainDoor, SensorTypeDoor, 95},
	{"Back Door Sensor", "Back Door", SensorTypeDoor, 88},
	{"Garage Door Sensor", "Garage", SensorTypeDoor, 92},
	{"Living Room Motion", LocationLivingRoom, SensorTypeMotion, 78},
	{"Hallway Motion", "Hallway", SensorTypeMotion, 85},
}

// Cameras returns the camera roster. The front door camera reports the
// last door opening and the living room camera the last motion. Cameras
// record while the mode is ARMED or AWAY.
func (m *Monitor) Cameras() []Camera {
	m.mu.Lock()
	defer m.mu.Unlock()

	recording := m.mode == ModeArmed || m.mode == ModeAway
	return []Camera{
		{
			ID:              1,
			Name:            "Front Door Camera",
			Location:        LocationMainDoor,
			Status:          CameraOnline,
			Resolution:      "1080p",
			Recording:       recording,
			MotionDetection: true,
			LastMotion:      timePtr(m.lastDoorOpen),
		},
		{
			ID:              2,
			Name:            "Living Room Camera",
			Location:        LocationLivingRoom,
			Status:          CameraOnline,
			Resolution:      "1080p",
			Recording:       recording,
			MotionDetection: true,
			LastMotion:      timePtr(m.lastMotion),
		},
	}
}

// Sensors returns the sensor roster. The main door contact and the living
// room motion sensor carry the last reading seen.
func (m *Monitor) Sensors() []Sensor {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Sensor, 0, len(installedSensors))
	for i, in := range installedSensors {
		s := Sensor{
			ID:       i + 1,
			Name:     in.name,
			Location: in.location,
			Type:     in.kind,
			Battery:  in.battery,
		}
		switch {
		case in.kind == SensorTypeDoor && in.location == LocationMainDoor:
			s.Status, s.Live = m.door, true
		case in.kind == SensorTypeMotion && in.location == LocationLivingRoom:
			s.Status, s.Live = "IDLE", true
			if m.motion {
				s.Status = "DETECTED"
			}
		case in.kind == SensorTypeDoor:
			s.Status = "CLOSED"
		default:
			s.Status = "IDLE"
		}
		out = append(out, s)
	}
	return out
}

func stamp(at time.Time, now func() time.Time) time.Time {
	if at.IsZero() {
		return now().UTC()
	}
	return at
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
