package maintenance

import (
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
)

// Priority orders alerts. Lower sorts first.
type Priority string

// Priorities.
const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
)

func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	}
	return 3
}

// AlertType classifies a maintenance alert.
type AlertType string

// Alert types.
const (
	AlertOverdue   AlertType = "OVERDUE"
	AlertDueSoon   AlertType = "DUE_SOON"
	AlertUpcoming  AlertType = "UPCOMING"
	AlertComponent AlertType = "COMPONENT"
)

// Health status bands.
const (
	StatusExcellent = "EXCELLENT"
	StatusGood      = "GOOD"
	StatusFair      = "FAIR"
	StatusPoor      = "POOR"
	StatusCritical  = "CRITICAL"
)

// Component is a wearing part of a device.
type Component struct {
	Name string `json:"name"`
	// Life is the remaining life in percent at the last service.
	Life float64 `json:"life"`
	// WearPerHour is the life lost per operating hour, in percent.
	WearPerHour float64 `json:"wear_per_hour"`
	// ReplaceBelow marks the component for replacement under this life.
	ReplaceBelow float64 `json:"replace_below"`
}

// Profile is the usage record of one device.
type Profile struct {
	Device          device.Name `json:"device"`
	OperatingHours  float64     `json:"operating_hours"`
	IntervalHours   float64     `json:"interval_hours"`
	LastMaintenance time.Time   `json:"last_maintenance"`
	Components      []Component `json:"components"`
}

// Alert is a maintenance notice.
type Alert struct {
	Device         device.Name `json:"device"`
	Type           AlertType   `json:"type"`
	Priority       Priority    `json:"priority"`
	Message        string      `json:"message"`
	ActionRequired string      `json:"action_required"`
}

// ComponentStatus is a component's current condition.
type ComponentStatus struct {
	Name   string  `json:"name"`
	Health float64 `json:"health"`
	Status string  `json:"status"`
}

// Health is the detailed condition of one device.
type Health struct {
	Device                device.Name       `json:"device"`
	OverallHealth         float64           `json:"overall_health"`
	Status                string            `json:"status"`
	TotalOperatingHours   float64           `json:"total_operating_hours"`
	HoursUntilMaintenance float64           `json:"hours_until_maintenance"`
	LastMaintenanceDate   string            `json:"last_maintenance_date"`
	NextMaintenanceDate   string            `json:"next_maintenance_date"`
	Components            []ComponentStatus `json:"components"`
	Recommendations       []string          `json:"recommendations"`
}

// HistoryEntry is one past or booked service.
type HistoryEntry struct {
	Date           string `json:"date"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
}

// Confirmation is returned when a service is booked.
type Confirmation struct {
	ConfirmationID    string      `json:"confirmation_id"`
	Device            device.Name `json:"device"`
	ScheduledDate     string      `json:"scheduled_date"`
	EstimatedDuration string      `json:"estimated_duration"`
	Notes             string      `json:"notes"`
}
