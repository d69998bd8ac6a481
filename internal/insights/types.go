package insights

import (
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/store"
)

// Next actions suggested by a prediction.
const (
	ActionOn       = "ON"
	ActionOff      = "OFF"
	ActionMaintain = "MAINTAIN"
)

// Tip priorities.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// DevicePrediction is the outlook for one device at the current hour.
type DevicePrediction struct {
	Prediction    string       `json:"prediction"`
	Confidence    int          `json:"confidence_percent"`
	NextAction    string       `json:"next_action"`
	EstimatedTime string       `json:"estimated_time"`
	State         device.State `json:"current_state"`
}

// EnergyOutlook summarises recent household draw.
type EnergyOutlook struct {
	Prediction   string  `json:"prediction"`
	PeakHours    string  `json:"peak_hours"`
	Optimization string  `json:"optimization"`
	AverageWatts float64 `json:"average_watts"`
	PeakWatts    float64 `json:"peak_watts"`
	Samples      int     `json:"samples"`

	// DeviceShare is the percentage of the average draw above the
	// always-on baseline, i.e. the part switching devices off can save.
	DeviceShare int `json:"savings_potential_percent"`
}

// Summary is the headline of a prediction.
type Summary struct {
	Day           string `json:"day"`
	Time          string `json:"time"`
	DevicesActive int    `json:"devices_active"`
	DevicesTotal  int    `json:"devices_total"`
}

// Prediction is the body of GET /predict.
type Prediction struct {
	Devices     map[device.Name]DevicePrediction `json:"devices"`
	Energy      EnergyOutlook                    `json:"energy"`
	Summary     Summary                          `json:"summary"`
	GeneratedAt time.Time                        `json:"generated_at"`
}

// Tip is one energy saving recommendation.
type Tip struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Savings     string `json:"savings"`
	Priority    string `json:"priority"`
}

// DeviceInsight reports the last 24 hours of one device.
type DeviceInsight struct {
	Device         device.Name  `json:"device"`
	State          device.State `json:"state"`
	PowerWatts     float64      `json:"power_watts"`
	OnHours        float64      `json:"on_hours_24h"`
	Switches       int          `json:"switches_24h"`
	EnergyKWh      float64      `json:"energy_kwh_24h"`
	CostPerMonth   float64      `json:"cost_per_month"`
	Currency       string       `json:"currency"`
	PeakUsageTime  string       `json:"peak_usage_time"`
	Recommendation string       `json:"recommendation"`
	LastChange     *time.Time   `json:"last_change"`
}

// WeeklySummary projects a week of consumption from recent samples and
// reports device usage over the last seven days.
type WeeklySummary struct {
	From           time.Time               `json:"from"`
	To             time.Time               `json:"to"`
	Samples        int                     `json:"samples"`
	AverageWatts   float64                 `json:"average_watts"`
	ProjectedKWh   float64                 `json:"projected_week_kwh"`
	DailyKWh       float64                 `json:"projected_daily_kwh"`
	ProjectedCost  float64                 `json:"projected_cost"`
	Currency       string                  `json:"currency"`
	CarbonKg       float64                 `json:"carbon_kg"`
	DeviceKWh      float64                 `json:"device_kwh"`
	DeviceOnHours  map[device.Name]float64 `json:"device_on_hours"`
	MostUsedDevice device.Name             `json:"most_used_device,omitempty"`
	PeakSample     *store.EnergySample     `json:"peak_sample"`
}
