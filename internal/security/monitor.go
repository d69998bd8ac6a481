package security

import (
	"fmt"
	"sync"
	"time"
)

// Limits on retained history.
const (
	MaxAlerts       = 50
	MaxRecentEvents = 20
)

// ChannelAlert is the broadcast channel for new alerts.
const ChannelAlert = "security.alert"

// Logger defines the logging interface used by the monitor.
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

// Broadcaster pushes new alerts to live clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Monitor tracks the arming mode and turns sensor events into alerts.
//
// Alerts are kept newest first and capped at MaxAlerts. IDs increase
// monotonically and are never reused, even after clearing.
type Monitor struct {
	mu        sync.Mutex
	mode      Mode
	alerts    []Alert
	events    []Event
	nextID    int64
	door      string
	motion    bool
	lastCheck time.Time

	// Last time each watched zone saw activity, for the camera roster.
	lastDoorOpen time.Time
	lastMotion   time.Time

	broadcaster Broadcaster
	logger      Logger
	now         func() time.Time
}

// NewMonitor returns an ARMED monitor with no alerts.
func NewMonitor() *Monitor {
	return &Monitor{
		mode:   ModeArmed,
		door:   "CLOSED",
		nextID: 1,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger. A nil logger is ignored.
func (m *Monitor) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// SetBroadcaster registers the alert push target.
func (m *Monitor) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// Mode returns the current mode.
func (m *Monitor) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode changes the mode and records an INFO system alert.
func (m *Monitor) SetMode(mode Mode) error {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.mode = mode
	alert := m.addAlertLocked(Event{
		Type:     EventSystem,
		Status:   fmt.Sprintf("Security mode changed to %s", mode),
		Location: LocationSystem,
		Severity: SeverityInfo,
	})
	m.mu.Unlock()

	m.logger.Info("security mode changed", "mode", mode)
	m.publish(alert)
	return nil
}

// DoorChanged records a door transition. Opening the door while ARMED or
// AWAY raises a WARNING alert.
func (m *Monitor) DoorChanged(open bool, at time.Time) {
	status := "CLOSED"
	if open {
		status = "OPEN"
	}

	m.mu.Lock()
	m.door = status
	if open {
		m.lastDoorOpen = stamp(at, m.now)
	}
	ev := Event{Type: EventDoor, Status: status, Location: LocationMainDoor, Severity: SeverityInfo, Timestamp: at}
	if open && (m.mode == ModeArmed || m.mode == ModeAway) {
		ev.Severity = SeverityWarning
	}
	alert := m.recordLocked(ev)
	m.mu.Unlock()

	m.publish(alert)
}

// MotionChanged records a motion transition. Motion detected while AWAY
// raises a CRITICAL alert.
func (m *Monitor) MotionChanged(detected bool, at time.Time) {
	status := "IDLE"
	if detected {
		status = "DETECTED"
	}

	m.mu.Lock()
	m.motion = detected
	if detected {
		m.lastMotion = stamp(at, m.now)
	}
	ev := Event{Type: EventMotion, Status: status, Location: LocationLivingRoom, Severity: SeverityInfo, Timestamp: at}
	if detected && m.mode == ModeAway {
		ev.Severity = SeverityCritical
	}
	alert := m.recordLocked(ev)
	m.mu.Unlock()

	m.publish(alert)
}

// recordLocked appends ev to the recent events and raises an alert for
// anything above INFO. It returns the alert, if any.
func (m *Monitor) recordLocked(ev Event) *Alert {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = m.now().UTC()
	}
	m.lastCheck = ev.Timestamp

	m.events = append([]Event{ev}, m.events...)
	if len(m.events) > MaxRecentEvents {
		m.events = m.events[:MaxRecentEvents]
	}

	if ev.Severity == SeverityInfo {
		return nil
	}
	return m.addAlertLocked(ev)
}

func (m *Monitor) addAlertLocked(ev Event) *Alert {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = m.now().UTC()
	}
	a := Alert{ID: m.nextID, Event: ev}
	m.nextID++

	m.alerts = append([]Alert{a}, m.alerts...)
	if len(m.alerts) > MaxAlerts {
		m.alerts = m.alerts[:MaxAlerts]
	}
	return &a
}

func (m *Monitor) publish(a *Alert) {
	if a == nil {
		return
	}
	if a.Severity != SeverityInfo {
		m.logger.Warn("security alert", "id", a.ID, "type", a.Type, "status", a.Status, "severity", a.Severity)
	}
	if m.broadcaster != nil {
		m.broadcaster.Broadcast(ChannelAlert, *a)
	}
}

// Alerts returns a copy of the alert list, newest first.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Acknowledge marks an alert as seen.
func (m *Monitor) Acknowledge(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Acknowledged = true
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrAlertNotFound, id)
}

// ClearAcknowledged drops acknowledged alerts and returns how many went.
func (m *Monitor) ClearAcknowledged() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if !a.Acknowledged {
			kept = append(kept, a)
		}
	}
	removed := len(m.alerts) - len(kept)
	m.alerts = kept
	return removed
}

// Status returns the mode, sensor view and recent events.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	alarm := "STANDBY"
	if m.mode == ModeArmed || m.mode == ModeAway {
		alarm = "READY"
	}
	events := make([]Event, len(m.events))
	copy(events, m.events)

	last := m.lastCheck
	if last.IsZero() {
		last = m.now().UTC()
	}
	return Status{
		Mode:         m.mode,
		AlarmStatus:  alarm,
		RecentEvents: events,
		Door:         m.door,
		Motion:       m.motion,
		LastCheck:    last,
	}
}

// Stats counts the retained alerts.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	s.Total = len(m.alerts)
	for _, a := range m.alerts {
		switch a.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityWarning:
			s.Warning++
		default:
			s.Info++
		}
		if a.Acknowledged {
			s.Acknowledged++
		}
	}
	if len(m.alerts) > 0 {
		ts := m.alerts[0].Timestamp
		s.LastIncident = &ts
	}
	return s
}
