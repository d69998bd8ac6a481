package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type mockHub struct {
	mu     sync.Mutex
	alerts []Alert
}

func (m *mockHub) Broadcast(channel string, payload any) {
	if channel != ChannelAlert {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, payload.(Alert))
}

var at = time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"ARMED", ModeArmed, false},
		{"away", ModeAway, false},
		{" Stay ", ModeStay, false},
		{"disarmed", ModeDisarmed, false},
		{"panic", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidMode) {
			t.Errorf("ParseMode(%q) error = %v, want ErrInvalidMode", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewMonitor(t *testing.T) {
	m := NewMonitor()
	if m.Mode() != ModeArmed {
		t.Errorf("Mode() = %q, want ARMED", m.Mode())
	}
	st := m.Status()
	if st.AlarmStatus != "READY" || st.Door != "CLOSED" || st.Motion {
		t.Errorf("Status() = %+v", st)
	}
	if len(m.Alerts()) != 0 {
		t.Error("new monitor should have no alerts")
	}
}

func TestSetMode(t *testing.T) {
	m := NewMonitor()
	hub := &mockHub{}
	m.SetBroadcaster(hub)

	if err := m.SetMode("away"); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if m.Mode() != ModeAway {
		t.Errorf("Mode() = %q, want AWAY", m.Mode())
	}

	alerts := m.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Type != EventSystem || alerts[0].Severity != SeverityInfo {
		t.Errorf("alert = %+v", alerts[0])
	}
	if alerts[0].Status != "Security mode changed to AWAY" {
		t.Errorf("Status = %q", alerts[0].Status)
	}
	if len(hub.alerts) != 1 {
		t.Errorf("broadcasts = %d, want 1", len(hub.alerts))
	}

	if err := m.SetMode("party"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("SetMode(party) error = %v, want ErrInvalidMode", err)
	}
	if m.Mode() != ModeAway {
		t.Error("invalid mode should not change the mode")
	}

	if err := m.SetMode(ModeDisarmed); err != nil {
		t.Fatal(err)
	}
	if m.Status().AlarmStatus != "STANDBY" {
		t.Errorf("AlarmStatus = %q, want STANDBY", m.Status().AlarmStatus)
	}
}

func TestDoorAlerts(t *testing.T) {
	tests := []struct {
		mode      Mode
		wantAlert bool
	}{
		{ModeArmed, true},
		{ModeAway, true},
		{ModeStay, false},
		{ModeDisarmed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			m := &Monitor{mode: tt.mode, door: "CLOSED", nextID: 1, logger: noopLogger{}, now: time.Now}

			m.DoorChanged(true, at)

			alerts := m.Alerts()
			if got := len(alerts) == 1; got != tt.wantAlert {
				t.Fatalf("alert raised = %v, want %v", got, tt.wantAlert)
			}
			if tt.wantAlert && alerts[0].Severity != SeverityWarning {
				t.Errorf("Severity = %q, want WARNING", alerts[0].Severity)
			}

			st := m.Status()
			if st.Door != "OPEN" {
				t.Errorf("Door = %q, want OPEN", st.Door)
			}
			if len(st.RecentEvents) != 1 || st.RecentEvents[0].Type != EventDoor {
				t.Errorf("RecentEvents = %+v", st.RecentEvents)
			}
			if !st.LastCheck.Equal(at) {
				t.Errorf("LastCheck = %v, want %v", st.LastCheck, at)
			}
		})
	}
}

func TestDoorClosingNeverAlerts(t *testing.T) {
	m := NewMonitor()
	m.DoorChanged(false, at)
	if len(m.Alerts()) != 0 {
		t.Error("closing the door should not alert")
	}
}

func TestMotionAlerts(t *testing.T) {
	tests := []struct {
		mode      Mode
		detected  bool
		wantAlert bool
	}{
		{ModeAway, true, true},
		{ModeAway, false, false},
		{ModeArmed, true, false},
		{ModeDisarmed, true, false},
	}
	for _, tt := range tests {
		m := &Monitor{mode: tt.mode, nextID: 1, logger: noopLogger{}, now: time.Now}
		m.MotionChanged(tt.detected, at)

		alerts := m.Alerts()
		if got := len(alerts) == 1; got != tt.wantAlert {
			t.Errorf("mode %s detected %v: alert = %v, want %v", tt.mode, tt.detected, got, tt.wantAlert)
			continue
		}
		if tt.wantAlert && alerts[0].Severity != SeverityCritical {
			t.Errorf("Severity = %q, want CRITICAL", alerts[0].Severity)
		}
		if m.Status().Motion != tt.detected {
			t.Errorf("Motion = %v, want %v", m.Status().Motion, tt.detected)
		}
	}
}

func TestAlertCapAndIDs(t *testing.T) {
	m := NewMonitor()
	for range MaxAlerts + 10 {
		m.DoorChanged(true, at)
	}

	alerts := m.Alerts()
	if len(alerts) != MaxAlerts {
		t.Fatalf("alerts = %d, want %d", len(alerts), MaxAlerts)
	}
	if alerts[0].ID != MaxAlerts+10 {
		t.Errorf("newest ID = %d, want %d", alerts[0].ID, MaxAlerts+10)
	}
	for i := 1; i < len(alerts); i++ {
		if alerts[i].ID >= alerts[i-1].ID {
			t.Fatalf("IDs not strictly decreasing at %d: %d then %d", i, alerts[i-1].ID, alerts[i].ID)
		}
	}

	if got := len(m.Status().RecentEvents); got != MaxRecentEvents {
		t.Errorf("recent events = %d, want %d", got, MaxRecentEvents)
	}
}

func TestAcknowledgeAndClear(t *testing.T) {
	m := NewMonitor()
	m.DoorChanged(true, at)
	m.DoorChanged(true, at)
	m.DoorChanged(true, at)

	if err := m.Acknowledge(2); err != nil {
		t.Fatalf("Acknowledge(2) error = %v", err)
	}
	if err := m.Acknowledge(99); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("Acknowledge(99) error = %v, want ErrAlertNotFound", err)
	}

	if s := m.Stats(); s.Acknowledged != 1 || s.Warning != 3 {
		t.Errorf("Stats() = %+v", s)
	}

	if removed := m.ClearAcknowledged(); removed != 1 {
		t.Errorf("ClearAcknowledged() = %d, want 1", removed)
	}
	for _, a := range m.Alerts() {
		if a.ID == 2 {
			t.Error("acknowledged alert 2 still present")
		}
	}

	// IDs are not reused after clearing.
	m.DoorChanged(true, at)
	if got := m.Alerts()[0].ID; got != 4 {
		t.Errorf("next ID = %d, want 4", got)
	}
}

func TestStats(t *testing.T) {
	m := NewMonitor()
	if s := m.Stats(); s.Total != 0 || s.LastIncident != nil {
		t.Errorf("empty Stats() = %+v", s)
	}

	m.DoorChanged(true, at)
	if err := m.SetMode(ModeAway); err != nil {
		t.Fatal(err)
	}
	m.MotionChanged(true, at.Add(time.Minute))

	s := m.Stats()
	if s.Total != 3 || s.Critical != 1 || s.Warning != 1 || s.Info != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.LastIncident == nil || !s.LastIncident.Equal(at.Add(time.Minute)) {
		t.Errorf("LastIncident = %v", s.LastIncident)
	}
}

func TestAlertsReturnsCopy(t *testing.T) {
	m := NewMonitor()
	m.DoorChanged(true, at)

	alerts := m.Alerts()
	alerts[0].Acknowledged = true

	if m.Alerts()[0].Acknowledged {
		t.Error("mutating Alerts() result changed monitor state")
	}
}
