package security

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the arming state of the system.
type Mode string

// Security modes.
const (
	ModeArmed    Mode = "ARMED"
	ModeDisarmed Mode = "DISARMED"
	ModeStay     Mode = "STAY"
	ModeAway     Mode = "AWAY"
)

// ParseMode validates a mode, accepting any letter case.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case ModeArmed, ModeDisarmed, ModeStay, ModeAway:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Severity grades events and alerts.
type Severity string

// Severities.
const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// EventType classifies an event.
type EventType string

// Event types.
const (
	EventDoor   EventType = "DOOR"
	EventMotion EventType = "MOTION"
	EventSystem EventType = "SYSTEM"
)

// Sensor locations reported with events.
const (
	LocationMainDoor   = "Main Door"
	LocationLivingRoom = "Living Room"
	LocationSystem     = "System"
)

// Event is a sensor or system occurrence.
type Event struct {
	Type      EventType `json:"type"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// Alert is an event that needs attention.
type Alert struct {
	ID int64 `json:"id"`
	Event
	Acknowledged bool `json:"acknowledged"`
}

// Status is the monitor overview.
type Status struct {
	Mode         Mode      `json:"security_status"`
	AlarmStatus  string    `json:"alarm_status"`
	RecentEvents []Event   `json:"recent_events"`
	Door         string    `json:"door"`
	Motion       bool      `json:"motion"`
	LastCheck    time.Time `json:"last_check"`
}

// Stats counts alerts by severity.
type Stats struct {
	Total        int        `json:"total_alerts"`
	Critical     int        `json:"critical_alerts"`
	Warning      int        `json:"warning_alerts"`
	Info         int        `json:"info_alerts"`
	Acknowledged int        `json:"acknowledged_alerts"`
	LastIncident *time.Time `json:"last_incident"`
}
