package insights

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
	"github.com/nerrad567/hearth-core/internal/store"
)

const (
	day  = 24 * time.Hour
	week = 7 * day

	daysPerMonth = 30
	peakHours    = "7:00 PM - 10:00 PM"
)

// Store is the part of the telemetry store the analyser reads.
type Store interface {
	QueryRecentEnergy(ctx context.Context, limit int) ([]store.EnergySample, error)
	History(ctx context.Context, name device.Name, limit int) ([]device.Transition, error)
}

// Devices reports the live draw of each device.
type Devices interface {
	Device(name device.Name) (hardware.DeviceState, error)
	Devices() []hardware.DeviceState
}

// Logger defines the logging interface used by the analyser.
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

// Options configures pricing and the local clock.
type Options struct {
	Pricing       config.InsightsConfig
	BaselineWatts float64

	// Location is the zone usage windows are read in. Nil means local.
	Location *time.Location
}

// habit is the usual daily use of a device class. Devices are expected on
// from peak until end (local hours).
type habit struct {
	peak           int
	end            int
	window         int
	peakUsage      string
	recommendation string
}

var habits = map[device.Name]habit{
	device.Fan: {
		peak: 19, end: 23, window: 3,
		peakUsage:      "7:00 PM - 11:00 PM",
		recommendation: "Schedule auto-OFF at 11 PM to save energy",
	},
	device.Light: {
		peak: 18, end: 22, window: 2,
		peakUsage:      "6:30 PM - 10:30 PM",
		recommendation: "Use motion sensors to auto-OFF when room is empty",
	},
}

var tips = []Tip{
	{"Smart Lighting", "Turn OFF lights when not in room", "15-20%", PriorityHigh},
	{"Fan vs AC", "Use fan instead of AC during mild weather", "60-70%", PriorityHigh},
	{"Off-Peak Scheduling", "Schedule heavy appliances during off-peak hours (11 PM - 6 AM)", "25-30%", PriorityMedium},
	{"AC Optimization", "Maintain AC temperature at 24-26°C for optimal efficiency", "30-40%", PriorityHigh},
	{"Solar Utilization", "Run appliances during solar peak hours (12 PM - 3 PM)", "50-60%", PriorityMedium},
	{"Standby Power", "Unplug devices when not in use to eliminate phantom power", "5-10%", PriorityLow},
}

// Analyzer answers usage questions from recorded history.
type Analyzer struct {
	store   Store
	devices Devices
	opts    Options
	logger  Logger
	now     func() time.Time
}

// New creates an analyser.
func New(st Store, devices Devices, opts Options) *Analyzer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Analyzer{
		store:   st,
		devices: devices,
		opts:    opts,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger. A nil logger is ignored.
func (a *Analyzer) SetLogger(logger Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Predict returns the per-device outlook for the current hour and a view
// of recent consumption.
func (a *Analyzer) Predict(ctx context.Context) (Prediction, error) {
	now := a.now()
	local := now.In(a.opts.Location)
	hour := local.Hour()

	samples, err := a.store.QueryRecentEnergy(ctx, store.DefaultHistoryLimit)
	if err != nil {
		return Prediction{}, fmt.Errorf("loading energy history: %w", err)
	}

	live := a.devices.Devices()
	p := Prediction{
		Devices: make(map[device.Name]DevicePrediction, len(live)),
		Energy:  a.outlook(hour, samples),
		Summary: Summary{
			Day:          local.Weekday().String(),
			Time:         local.Format("03:04 PM"),
			DevicesTotal: len(live),
		},
		GeneratedAt: now.UTC(),
	}
	for _, d := range live {
		if d.State == device.On {
			p.Summary.DevicesActive++
		}
		h, ok := habits[d.Device]
		if !ok {
			continue
		}
		p.Devices[d.Device] = DevicePrediction{
			Prediction:    describe(d.Device, hour),
			Confidence:    confidence(hour, h.peak, h.window),
			NextAction:    nextAction(h, hour),
			EstimatedTime: untilPeak(h, hour),
			State:         d.State,
		}
	}

	a.logger.Debug("prediction generated", "hour", hour, "samples", len(samples))
	return p, nil
}

// Tips returns the energy saving recommendations.
func (a *Analyzer) Tips() []Tip {
	out := make([]Tip, len(tips))
	copy(out, tips)
	return out
}

// DeviceInsight reports the last 24 hours of one device.
func (a *Analyzer) DeviceInsight(ctx context.Context, name device.Name) (DeviceInsight, error) {
	if !name.Valid() {
		return DeviceInsight{}, fmt.Errorf("%w: %q", device.ErrDeviceNotFound, name)
	}
	current, err := a.devices.Device(name)
	if err != nil {
		return DeviceInsight{}, err
	}
	history, err := a.store.History(ctx, name, store.MaxQueryLimit)
	if err != nil {
		return DeviceInsight{}, fmt.Errorf("loading %s history: %w", name, err)
	}

	now := a.now().UTC()
	u := usage(history, current, now.Add(-day), now)
	h := habits[name]

	ins := DeviceInsight{
		Device:         name,
		State:          current.State,
		PowerWatts:     current.PowerWatts,
		OnHours:        round2(u.on.Hours()),
		Switches:       u.switches,
		EnergyKWh:      round2(u.kwh),
		CostPerMonth:   round2(u.kwh * daysPerMonth * a.opts.Pricing.TariffPerKWh),
		Currency:       a.opts.Pricing.Currency,
		PeakUsageTime:  h.peakUsage,
		Recommendation: h.recommendation,
	}
	if len(history) > 0 {
		last := history[0].Timestamp
		ins.LastChange = &last
	}
	return ins, nil
}

// WeeklySummary projects a week of consumption from the recent energy
// samples and totals device usage over the last seven days. With no
// samples the projection uses the baseline plus current device draw.
func (a *Analyzer) WeeklySummary(ctx context.Context) (WeeklySummary, error) {
	samples, err := a.store.QueryRecentEnergy(ctx, store.MaxQueryLimit)
	if err != nil {
		return WeeklySummary{}, fmt.Errorf("loading energy history: %w", err)
	}

	now := a.now().UTC()
	from := now.Add(-week)
	sum := WeeklySummary{
		From:          from,
		To:            now,
		Samples:       len(samples),
		Currency:      a.opts.Pricing.Currency,
		DeviceOnHours: make(map[device.Name]float64),
	}

	avg := a.opts.BaselineWatts
	if len(samples) > 0 {
		var total float64
		peak := samples[0]
		for _, s := range samples {
			total += s.TotalWatts
			if s.TotalWatts > peak.TotalWatts {
				peak = s
			}
		}
		avg = total / float64(len(samples))
		sum.PeakSample = &peak
	}

	var mostHours float64
	var deviceKWh float64
	for _, d := range a.devices.Devices() {
		if len(samples) == 0 {
			avg += d.PowerWatts
		}
		history, err := a.store.History(ctx, d.Device, store.MaxQueryLimit)
		if err != nil {
			return WeeklySummary{}, fmt.Errorf("loading %s history: %w", d.Device, err)
		}
		u := usage(history, d, from, now)
		hours := u.on.Hours()
		sum.DeviceOnHours[d.Device] = round2(hours)
		deviceKWh += u.kwh
		if hours > mostHours {
			mostHours = hours
			sum.MostUsedDevice = d.Device
		}
	}

	weekKWh := avg * week.Hours() / 1000
	sum.AverageWatts = round2(avg)
	sum.ProjectedKWh = round2(weekKWh)
	sum.DailyKWh = round2(weekKWh / 7)
	sum.ProjectedCost = round2(weekKWh * a.opts.Pricing.TariffPerKWh)
	sum.CarbonKg = round2(weekKWh * a.opts.Pricing.CarbonKgPerKWh)
	sum.DeviceKWh = round2(deviceKWh)
	return sum, nil
}

func (a *Analyzer) outlook(hour int, samples []store.EnergySample) EnergyOutlook {
	out := EnergyOutlook{
		PeakHours:    peakHours,
		Optimization: optimization(hour),
		Samples:      len(samples),
	}

	band := energyBand(hour)
	if len(samples) == 0 {
		out.Prediction = band + " No recent samples."
		return out
	}

	var total float64
	for _, s := range samples {
		total += s.TotalWatts
		out.PeakWatts = math.Max(out.PeakWatts, s.TotalWatts)
	}
	avg := total / float64(len(samples))
	out.AverageWatts = round2(avg)
	out.PeakWatts = round2(out.PeakWatts)
	if avg > 0 {
		share := math.Round(100 * (avg - a.opts.BaselineWatts) / avg)
		out.DeviceShare = int(min(max(share, 0), 100))
	}
	out.Prediction = fmt.Sprintf("%s Recent average %.0f W, peak %.0f W.", band, avg, out.PeakWatts)
	return out
}

type deviceUsage struct {
	on       time.Duration
	kwh      float64
	switches int
}

// usage totals ON time and energy inside [from, to). history is newest
// first. An ON period whose start predates the retained history is priced
// at the current draw, or the last recorded ON draw when the device is off.
func usage(history []device.Transition, current hardware.DeviceState, from, to time.Time) deviceUsage {
	var (
		u     deviceUsage
		on    bool
		start = from
		watts float64
	)

	switch {
	case len(history) == 0:
		on = current.State == device.On
		watts = current.PowerWatts
	case history[len(history)-1].Previous == device.On:
		on = true
		watts = fallbackWatts(history, current)
	}

	closeInterval := func(end time.Time) {
		if end.After(start) {
			d := end.Sub(start)
			u.on += d
			u.kwh += d.Hours() * watts / 1000
		}
	}

	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if !t.Timestamp.Before(to) {
			break
		}
		if t.Timestamp.Before(from) {
			on = t.State == device.On
			watts = t.PowerWatts
			continue
		}
		u.switches++
		switch {
		case on && t.State != device.On:
			closeInterval(t.Timestamp)
			on = false
		case !on && t.State == device.On:
			on = true
			start = t.Timestamp
			watts = t.PowerWatts
		}
	}
	if on {
		closeInterval(to)
	}
	return u
}

func fallbackWatts(history []device.Transition, current hardware.DeviceState) float64 {
	if current.State == device.On {
		return current.PowerWatts
	}
	for _, t := range history {
		if t.State == device.On {
			return t.PowerWatts
		}
	}
	return 0
}

func describe(name device.Name, hour int) string {
	switch name {
	case device.Fan:
		switch {
		case hour >= 19:
			return "High probability of fan usage detected. Auto-ON recommended at 7 PM to maintain comfort."
		case hour >= 12 && hour <= 15:
			return "Afternoon peak hours. Fan usage recommended for cooling. Consider auto-scheduling."
		case hour <= 6:
			return "Night hours. Moderate fan speed recommended for sleep comfort."
		}
		return "Fan usage unlikely during morning hours. Auto-OFF recommended to conserve energy."
	case device.Light:
		switch {
		case hour >= 18 && hour < 22:
			return "Evening hours detected. Lights auto-scheduled at 6:30 PM for optimal visibility."
		case hour >= 22 || hour < 6:
			return "Night hours. All lights should be OFF except security lights to save energy."
		case hour <= 8:
			return "Morning hours. Minimal lighting needed. Natural light available."
		}
		return "Daylight hours. All lights OFF recommended to maximize energy savings."
	}
	return ""
}

// confidence grows as the hour nears the device's peak, measured around
// the clock.
func confidence(hour, peak, window int) int {
	diff := hour - peak
	if diff < 0 {
		diff = -diff
	}
	diff = min(diff, 24-diff)
	switch {
	case diff <= window:
		return 90
	case diff <= 2*window:
		return 77
	}
	return 60
}

func nextAction(h habit, hour int) string {
	switch {
	case hour < h.peak:
		return ActionOn
	case hour >= h.end:
		return ActionOff
	}
	return ActionMaintain
}

func untilPeak(h habit, hour int) string {
	var n int
	switch {
	case hour < h.peak:
		n = h.peak - hour
	case hour >= h.end:
		n = 24 - hour + h.peak
	default:
		return "currently active period"
	}
	if n == 1 {
		return "in 1 hour"
	}
	return fmt.Sprintf("in %d hours", n)
}

func energyBand(hour int) string {
	switch {
	case hour >= 19 && hour <= 22:
		return "Peak usage time (7-10 PM)."
	case hour >= 12 && hour <= 15:
		return "Afternoon usage moderate."
	case hour <= 6:
		return "Night usage low."
	}
	return "Morning usage moderate."
}

func optimization(hour int) string {
	switch {
	case hour >= 19 && hour <= 22:
		return "Use battery power during peak hours. Reduce AC usage by 2°C."
	case hour >= 12 && hour <= 16:
		return "Solar peak hours. Charge batteries. Run heavy appliances now."
	case hour <= 6:
		return "Off-peak hours. Schedule washing machine, dishwasher for maximum savings."
	}
	return "Standard operations. Monitor consumption patterns."
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
