package audit

import (
	"context"
	"errors"
	"time"
)

// Actions recorded by the API.
const (
	ActionDeviceControl       = "device.control"
	ActionScheduleSet         = "schedule.set"
	ActionScheduleRemove      = "schedule.remove"
	ActionScheduleToggle      = "schedule.toggle"
	ActionSecurityMode        = "security.mode"
	ActionAlertAcknowledge    = "security.acknowledge"
	ActionAlertsClear         = "security.clear"
	ActionMaintenanceSchedule = "maintenance.schedule"
)

// Query limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// AnonymousSubject is recorded when authentication is disabled.
const AnonymousSubject = "anonymous"

// ErrInvalidEntry is returned for an entry without an action or entity.
var ErrInvalidEntry = errors.New("audit: invalid entry")

// Entry is one audit trail record.
type Entry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id,omitempty"`
	Subject   string         `json:"subject"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Filter selects entries. Empty fields match everything.
type Filter struct {
	Action   string
	Entity   string
	EntityID string
	Limit    int
	Offset   int
}

// Page is one slice of the trail, newest first.
type Page struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Recorder appends to and reads from the trail.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
	List(ctx context.Context, f Filter) (Page, error)
}
