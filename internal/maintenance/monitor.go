package maintenance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/hearth-core/internal/device"
)

const (
	dateLayout       = "2006-01-02"
	hoursPerDay      = 8
	dueSoonHours     = 50
	upcomingHours    = 100
	maxHistory       = 20
	serviceDuration  = "1-2 hours"
	confirmPrefix    = "MNT-"
	componentWarnPct = 50
)

// DefaultProfiles returns the starting usage records for every device.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Device:          device.Fan,
			OperatingHours:  690,
			IntervalHours:   720,
			LastMaintenance: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Components: []Component{
				{Name: "Filter", Life: 85, WearPerHour: 0.05, ReplaceBelow: 20},
				{Name: "Motor", Life: 92, WearPerHour: 0.005, ReplaceBelow: 30},
				{Name: "Blades", Life: 95, WearPerHour: 0.002, ReplaceBelow: 30},
			},
		},
		{
			Device:          device.Light,
			OperatingHours:  850,
			IntervalHours:   1000,
			LastMaintenance: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			Components: []Component{
				{Name: "Bulb", Life: 78, WearPerHour: 0.01, ReplaceBelow: 20},
				{Name: "Socket", Life: 98, WearPerHour: 0.001, ReplaceBelow: 30},
				{Name: "Switch", Life: 92, WearPerHour: 0.002, ReplaceBelow: 30},
			},
		},
	}
}

type record struct {
	profile Profile
	onSince time.Time
	history []HistoryEntry
}

// Monitor accrues operating hours from device state changes and derives
// service alerts and health reports from them.
type Monitor struct {
	mu      sync.Mutex
	records map[device.Name]*record
	now     func() time.Time
	newID   func() string
}

// NewMonitor loads profiles. Nil loads DefaultProfiles.
func NewMonitor(profiles []Profile) *Monitor {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	m := &Monitor{
		records: make(map[device.Name]*record, len(profiles)),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, p := range profiles {
		p.Components = append([]Component(nil), p.Components...)
		m.records[p.Device] = &record{
			profile: p,
			history: []HistoryEntry{{
				Date:        p.LastMaintenance.Format(dateLayout),
				Type:        "Routine Maintenance",
				Description: "General inspection and service",
			}},
		}
	}
	return m
}

// DeviceStateChanged accrues operating time. An ON state starts the
// clock, an OFF state stops it and banks the elapsed hours.
func (m *Monitor) DeviceStateChanged(name device.Name, state device.State, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[name]
	if !ok {
		return
	}

	switch state {
	case device.On:
		if r.onSince.IsZero() {
			r.onSince = at
		}
	case device.Off:
		if !r.onSince.IsZero() {
			r.accrue(at.Sub(r.onSince))
			r.onSince = time.Time{}
		}
	}
}

// accrue adds d of running time and wears the components.
func (r *record) accrue(d time.Duration) {
	if d <= 0 {
		return
	}
	h := d.Hours()
	r.profile.OperatingHours += h
	for i := range r.profile.Components {
		c := &r.profile.Components[i]
		c.Life = math.Max(0, c.Life-c.WearPerHour*h)
	}
}

// view returns the profile including any running ON period up to now.
func (r *record) view(now time.Time) Profile {
	p := r.profile
	p.Components = append([]Component(nil), r.profile.Components...)
	if !r.onSince.IsZero() && now.After(r.onSince) {
		tmp := record{profile: p}
		tmp.accrue(now.Sub(r.onSince))
		p = tmp.profile
	}
	return p
}

// Profile returns the current usage record for name.
func (m *Monitor) Profile(name device.Name) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", device.ErrDeviceNotFound, name)
	}
	return r.view(m.now()), nil
}

// Alerts returns service and component alerts, most urgent first.
func (m *Monitor) Alerts() []Alert {
	m.mu.Lock()
	now := m.now()
	profiles := make([]Profile, 0, len(m.records))
	for _, r := range m.records {
		profiles = append(profiles, r.view(now))
	}
	m.mu.Unlock()

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Device < profiles[j].Device })

	var alerts []Alert
	for _, p := range profiles {
		alerts = append(alerts, serviceAlerts(p)...)
		alerts = append(alerts, componentAlerts(p)...)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority.rank() < alerts[j].Priority.rank()
	})
	return alerts
}

func serviceAlerts(p Profile) []Alert {
	remaining := math.Round(p.IntervalHours - p.OperatingHours)
	switch {
	case remaining <= 0:
		return []Alert{{
			Device:         p.Device,
			Type:           AlertOverdue,
			Priority:       PriorityCritical,
			Message:        fmt.Sprintf("Maintenance overdue by %.0f hours", math.Abs(remaining)),
			ActionRequired: "Schedule maintenance immediately",
		}}
	case remaining <= dueSoonHours:
		return []Alert{{
			Device:         p.Device,
			Type:           AlertDueSoon,
			Priority:       PriorityHigh,
			Message:        fmt.Sprintf("Maintenance due in %.0f hours of operation", remaining),
			ActionRequired: "Schedule maintenance within 7 days",
		}}
	case remaining <= upcomingHours:
		return []Alert{{
			Device:         p.Device,
			Type:           AlertUpcoming,
			Priority:       PriorityMedium,
			Message:        fmt.Sprintf("Maintenance recommended in %.0f hours", remaining),
			ActionRequired: "Plan maintenance in next 2 weeks",
		}}
	}
	return nil
}

func componentAlerts(p Profile) []Alert {
	var out []Alert
	for _, c := range p.Components {
		switch {
		case c.Life < c.ReplaceBelow:
			out = append(out, Alert{
				Device:         p.Device,
				Type:           AlertComponent,
				Priority:       PriorityHigh,
				Message:        fmt.Sprintf("%s replacement required (life remaining: %.0f%%)", c.Name, c.Life),
				ActionRequired: "Replace " + strings.ToLower(c.Name),
			})
		case c.Life < componentWarnPct:
			out = append(out, Alert{
				Device:         p.Device,
				Type:           AlertComponent,
				Priority:       PriorityMedium,
				Message:        fmt.Sprintf("%s service recommended (life: %.0f%%)", c.Name, c.Life),
				ActionRequired: "Clean or inspect " + strings.ToLower(c.Name),
			})
		}
	}
	return out
}

// Health returns the detailed condition of name.
func (m *Monitor) Health(name device.Name) (Health, error) {
	p, err := m.Profile(name)
	if err != nil {
		return Health{}, err
	}
	now := m.now()

	score := 85.0
	if len(p.Components) > 0 {
		var sum float64
		for _, c := range p.Components {
			sum += c.Life
		}
		score = sum / float64(len(p.Components))
	}
	score = math.Round(score)

	remaining := math.Max(0, p.IntervalHours-p.OperatingHours)
	days := remaining / hoursPerDay
	next := now.Add(time.Duration(days * 24 * float64(time.Hour)))

	comps := make([]ComponentStatus, 0, len(p.Components))
	for _, c := range p.Components {
		status := "OK"
		if c.Life < c.ReplaceBelow {
			status = "REPLACE"
		} else if c.Life >= 90 {
			status = StatusExcellent
		}
		comps = append(comps, ComponentStatus{Name: c.Name, Health: math.Round(c.Life), Status: status})
	}

	return Health{
		Device:                p.Device,
		OverallHealth:         score,
		Status:                HealthStatus(score),
		TotalOperatingHours:   math.Round(p.OperatingHours*10) / 10,
		HoursUntilMaintenance: math.Round(remaining*10) / 10,
		LastMaintenanceDate:   p.LastMaintenance.Format(dateLayout),
		NextMaintenanceDate:   next.Format(dateLayout),
		Components:            comps,
		Recommendations:       recommendations(p),
	}, nil
}

// HealthStatus maps a score in percent onto its band.
func HealthStatus(score float64) string {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 75:
		return StatusGood
	case score >= 60:
		return StatusFair
	case score >= 40:
		return StatusPoor
	}
	return StatusCritical
}

func recommendations(p Profile) []string {
	var out []string
	for _, c := range p.Components {
		if c.Life < componentWarnPct {
			out = append(out, fmt.Sprintf("Service or replace the %s", strings.ToLower(c.Name)))
		}
	}
	switch p.Device {
	case device.Fan:
		if p.OperatingHours > 600 {
			out = append(out, "Lubricate motor bearings to reduce noise and wear")
		}
		out = append(out, "Clean blades to maintain optimal airflow")
	case device.Light:
		out = append(out, "Check electrical connections for voltage consistency")
	}
	return out
}

// History returns the service log for name, newest first.
func (m *Monitor) History(name device.Name) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", device.ErrDeviceNotFound, name)
	}
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out, nil
}

// Schedule books a service for name on date (YYYY-MM-DD) and records it
// in the device history.
func (m *Monitor) Schedule(name device.Name, date, notes string) (Confirmation, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Confirmation{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[name]
	if !ok {
		return Confirmation{}, fmt.Errorf("%w: %q", device.ErrDeviceNotFound, name)
	}

	c := Confirmation{
		ConfirmationID:    confirmPrefix + m.newID(),
		Device:            name,
		ScheduledDate:     date,
		EstimatedDuration: serviceDuration,
		Notes:             notes,
	}

	desc := notes
	if desc == "" {
		desc = "Scheduled service"
	}
	r.history = append([]HistoryEntry{{
		Date:           date,
		Type:           "Scheduled Maintenance",
		Description:    desc,
		ConfirmationID: c.ConfirmationID,
	}}, r.history...)
	if len(r.history) > maxHistory {
		r.history = r.history[:maxHistory]
	}
	return c, nil
}
