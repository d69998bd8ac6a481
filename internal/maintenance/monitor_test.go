package maintenance

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
)

var start = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestMonitor(profiles []Profile) *Monitor {
	m := NewMonitor(profiles)
	m.now = func() time.Time { return start }
	m.newID = func() string { return "00000000-0000-0000-0000-000000000001" }
	return m
}

func TestHealthStatus(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, StatusExcellent},
		{90, StatusExcellent},
		{89.9, StatusGood},
		{75, StatusGood},
		{60, StatusFair},
		{40, StatusPoor},
		{39.9, StatusCritical},
		{0, StatusCritical},
	}
	for _, tt := range tests {
		if got := HealthStatus(tt.score); got != tt.want {
			t.Errorf("HealthStatus(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestDefaultAlerts(t *testing.T) {
	m := newTestMonitor(nil)

	alerts := m.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("Alerts() = %+v, want one fan alert", alerts)
	}
	a := alerts[0]
	if a.Device != device.Fan || a.Type != AlertDueSoon || a.Priority != PriorityHigh {
		t.Errorf("alert = %+v, want fan DUE_SOON HIGH", a)
	}
	if a.Message != "Maintenance due in 30 hours of operation" {
		t.Errorf("Message = %q", a.Message)
	}
}

func TestServiceAlertBands(t *testing.T) {
	tests := []struct {
		hours, interval float64
		wantType        AlertType
		wantPri         Priority
	}{
		{1000, 900, AlertOverdue, PriorityCritical},
		{900, 900, AlertOverdue, PriorityCritical},
		{950, 1000, AlertDueSoon, PriorityHigh},
		{900.5, 1000, AlertUpcoming, PriorityMedium},
		{850, 1000, "", ""},
	}
	for _, tt := range tests {
		p := Profile{Device: device.Light, OperatingHours: tt.hours, IntervalHours: tt.interval}
		got := serviceAlerts(p)
		if tt.wantType == "" {
			if len(got) != 0 {
				t.Errorf("hours %v: got %+v, want none", tt.hours, got)
			}
			continue
		}
		if len(got) != 1 || got[0].Type != tt.wantType || got[0].Priority != tt.wantPri {
			t.Errorf("hours %v: got %+v, want %s/%s", tt.hours, got, tt.wantType, tt.wantPri)
		}
	}
}

func TestAlertsSortedByPriority(t *testing.T) {
	m := newTestMonitor([]Profile{
		{Device: device.Light, OperatingHours: 920, IntervalHours: 1000},
		{Device: device.Fan, OperatingHours: 800, IntervalHours: 720, Components: []Component{
			{Name: "Filter", Life: 30, ReplaceBelow: 20},
		}},
	})

	alerts := m.Alerts()
	if len(alerts) != 3 {
		t.Fatalf("Alerts() len = %d, want 3: %+v", len(alerts), alerts)
	}
	wantOrder := []Priority{PriorityCritical, PriorityMedium, PriorityMedium}
	for i, want := range wantOrder {
		if alerts[i].Priority != want {
			t.Errorf("alerts[%d].Priority = %s, want %s", i, alerts[i].Priority, want)
		}
	}
	if alerts[0].Message != "Maintenance overdue by 80 hours" {
		t.Errorf("overdue message = %q", alerts[0].Message)
	}
}

func TestComponentAlerts(t *testing.T) {
	p := Profile{Device: device.Fan, Components: []Component{
		{Name: "Filter", Life: 10, ReplaceBelow: 20},
		{Name: "Motor", Life: 45, ReplaceBelow: 30},
		{Name: "Blades", Life: 95, ReplaceBelow: 30},
	}}

	got := componentAlerts(p)
	if len(got) != 2 {
		t.Fatalf("componentAlerts() = %+v, want 2", got)
	}
	if got[0].Priority != PriorityHigh || got[0].ActionRequired != "Replace filter" {
		t.Errorf("filter alert = %+v", got[0])
	}
	if got[1].Priority != PriorityMedium || !strings.Contains(got[1].Message, "Motor") {
		t.Errorf("motor alert = %+v", got[1])
	}
}

func TestOperatingHoursAccrue(t *testing.T) {
	m := newTestMonitor(nil)
	before, _ := m.Profile(device.Light)

	m.DeviceStateChanged(device.Light, device.On, start)
	m.DeviceStateChanged(device.Light, device.On, start.Add(time.Hour)) // repeated ON keeps the first start
	m.DeviceStateChanged(device.Light, device.Off, start.Add(10*time.Hour))

	after, err := m.Profile(device.Light)
	if err != nil {
		t.Fatal(err)
	}
	if got := after.OperatingHours - before.OperatingHours; got != 10 {
		t.Errorf("accrued %v hours, want 10", got)
	}
	if after.Components[0].Life >= before.Components[0].Life {
		t.Errorf("bulb life did not decrease: %v -> %v", before.Components[0].Life, after.Components[0].Life)
	}

	// OFF without a prior ON accrues nothing.
	m.DeviceStateChanged(device.Light, device.Off, start.Add(20*time.Hour))
	again, _ := m.Profile(device.Light)
	if again.OperatingHours != after.OperatingHours {
		t.Errorf("hours changed on stray OFF: %v -> %v", after.OperatingHours, again.OperatingHours)
	}
}

func TestProfileIncludesRunningTime(t *testing.T) {
	m := newTestMonitor(nil)
	m.DeviceStateChanged(device.Fan, device.On, start.Add(-5*time.Hour))

	p, err := m.Profile(device.Fan)
	if err != nil {
		t.Fatal(err)
	}
	if p.OperatingHours != 695 {
		t.Errorf("OperatingHours = %v, want 695", p.OperatingHours)
	}

	// The banked total is untouched until the device turns off.
	if got := m.records[device.Fan].profile.OperatingHours; got != 690 {
		t.Errorf("banked hours = %v, want 690", got)
	}
}

func TestHealth(t *testing.T) {
	m := newTestMonitor(nil)

	h, err := m.Health(device.Fan)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.OverallHealth != 91 || h.Status != StatusExcellent {
		t.Errorf("health = %v %s, want 91 EXCELLENT", h.OverallHealth, h.Status)
	}
	if h.HoursUntilMaintenance != 30 {
		t.Errorf("HoursUntilMaintenance = %v, want 30", h.HoursUntilMaintenance)
	}
	// 30 h at 8 h/day is 3.75 days after 2026-03-01 08:00.
	if h.NextMaintenanceDate != "2026-03-05" {
		t.Errorf("NextMaintenanceDate = %q, want 2026-03-05", h.NextMaintenanceDate)
	}
	if h.LastMaintenanceDate != "2026-01-15" {
		t.Errorf("LastMaintenanceDate = %q", h.LastMaintenanceDate)
	}
	if len(h.Components) != 3 || len(h.Recommendations) == 0 {
		t.Errorf("components/recommendations = %+v / %+v", h.Components, h.Recommendations)
	}

	light, err := m.Health(device.Light)
	if err != nil {
		t.Fatal(err)
	}
	if light.OverallHealth != 89 || light.Status != StatusGood {
		t.Errorf("light health = %v %s, want 89 GOOD", light.OverallHealth, light.Status)
	}

	if _, err := m.Health("heater"); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("Health(heater) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestHealthOverdueClampsRemaining(t *testing.T) {
	m := newTestMonitor([]Profile{{Device: device.Fan, OperatingHours: 900, IntervalHours: 720}})

	h, err := m.Health(device.Fan)
	if err != nil {
		t.Fatal(err)
	}
	if h.HoursUntilMaintenance != 0 {
		t.Errorf("HoursUntilMaintenance = %v, want 0", h.HoursUntilMaintenance)
	}
	if h.OverallHealth != 85 {
		t.Errorf("OverallHealth without components = %v, want 85", h.OverallHealth)
	}
}

func TestSchedule(t *testing.T) {
	m := newTestMonitor(nil)

	c, err := m.Schedule(device.Fan, "2026-03-10", "replace filter")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if c.ConfirmationID != "MNT-00000000-0000-0000-0000-000000000001" {
		t.Errorf("ConfirmationID = %q", c.ConfirmationID)
	}
	if c.ScheduledDate != "2026-03-10" || c.EstimatedDuration != "1-2 hours" {
		t.Errorf("confirmation = %+v", c)
	}

	hist, err := m.History(device.Fan)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("History() len = %d, want 2", len(hist))
	}
	if hist[0].ConfirmationID != c.ConfirmationID || hist[0].Description != "replace filter" {
		t.Errorf("newest history = %+v", hist[0])
	}

	if _, err := m.Schedule(device.Fan, "10/03/2026", ""); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("bad date error = %v, want ErrInvalidDate", err)
	}
	if _, err := m.Schedule("heater", "2026-03-10", ""); !errors.Is(err, device.ErrDeviceNotFound) {
		t.Errorf("unknown device error = %v, want ErrDeviceNotFound", err)
	}
}

func TestScheduleUsesUUID(t *testing.T) {
	m := NewMonitor(nil)
	a, err := m.Schedule(device.Light, "2026-04-01", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Schedule(device.Light, "2026-04-02", "")
	if err != nil {
		t.Fatal(err)
	}
	if a.ConfirmationID == b.ConfirmationID {
		t.Error("confirmation IDs should be unique")
	}
	if len(a.ConfirmationID) != len("MNT-")+36 {
		t.Errorf("ConfirmationID = %q, want MNT- plus a UUID", a.ConfirmationID)
	}
}
