package device

import (
	"fmt"
	"strings"
	"time"
)

// Name identifies a controllable device. The set is fixed.
type Name string

// Known devices.
const (
	Fan   Name = "fan"
	Light Name = "light"
)

// Names returns every known device in stable order.
func Names() []Name {
	return []Name{Fan, Light}
}

// Valid reports whether n is a known device.
func (n Name) Valid() bool {
	switch n {
	case Fan, Light:
		return true
	}
	return false
}

// ParseName validates a device name. Matching is exact (lowercase).
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("%w: %q", ErrDeviceNotFound, s)
	}
	return n, nil
}

// State is the on/off state of a device.
type State string

// Device states.
const (
	On  State = "ON"
	Off State = "OFF"
)

// Valid reports whether s is ON or OFF.
func (s State) Valid() bool {
	return s == On || s == Off
}

// ParseState validates a state, accepting any letter case.
func ParseState(s string) (State, error) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return st, nil
}

// Action is a command applied to a device. Actions map one-to-one onto
// the state they produce.
type Action string

// Device actions.
const (
	ActionOn  Action = "ON"
	ActionOff Action = "OFF"
)

// ParseAction upper-cases s and validates it.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if a != ActionOn && a != ActionOff {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// Target returns the state the action leaves the device in.
func (a Action) Target() State {
	if a == ActionOn {
		return On
	}
	return Off
}

// Source values recorded with every state change.
const (
	SourceAPI      = "api"
	SourceMQTT     = "mqtt"
	SourceSchedule = "schedule"
	SourceSync     = "sync"
)

// Status is a point-in-time view of one registry entry.
type Status struct {
	Name      Name      `json:"name"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transition records an applied state change.
type Transition struct {
	ID         int64     `json:"id"`
	Device     Name      `json:"device"`
	State      State     `json:"state"`
	Previous   State     `json:"previous"`
	Source     string    `json:"source"`
	PowerWatts float64   `json:"power_watts"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stats summarises the registry.
type Stats struct {
	Total       int `json:"total"`
	On          int `json:"on"`
	Off         int `json:"off"`
	Transitions int `json:"transitions"`
}
