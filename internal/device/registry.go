package device

import (
	"fmt"
	"sync"
	"time"
)

type entry struct {
	state     State
	updatedAt time.Time
}

// Registry is the in-memory authority for device state.
//
// It holds exactly one state per known device. Every device starts OFF.
// All methods are safe for concurrent use; writes are last-writer-wins.
type Registry struct {
	mu          sync.RWMutex
	devices     map[Name]*entry
	transitions int
	now         func() time.Time
}

// NewRegistry creates a registry with every known device OFF.
func NewRegistry() *Registry {
	r := &Registry{
		devices: make(map[Name]*entry, len(Names())),
		now:     time.Now,
	}
	for _, n := range Names() {
		r.devices[n] = &entry{state: Off}
	}
	return r
}

// Get returns the current state of a device.
func (r *Registry) Get(name Name) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.devices[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}
	return e.state, nil
}

// Set stores a new state and returns the one it replaced.
func (r *Registry) Set(name Name, state State) (State, error) {
	if !state.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, state)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.devices[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
	}

	prev := e.state
	e.state = state
	e.updatedAt = r.now().UTC()
	if prev != state {
		r.transitions++
	}
	return prev, nil
}

// Snapshot returns every device in Names() order.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Status, 0, len(r.devices))
	for _, n := range Names() {
		e := r.devices[n]
		out = append(out, Status{Name: n, State: e.state, UpdatedAt: e.updatedAt})
	}
	return out
}

// States returns a name to state map copy.
func (r *Registry) States() map[Name]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Name]State, len(r.devices))
	for n, e := range r.devices {
		out[n] = e.state
	}
	return out
}

// Stats counts devices by state and the number of changing writes.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Total: len(r.devices), Transitions: r.transitions}
	for _, e := range r.devices {
		if e.state == On {
			s.On++
		} else {
			s.Off++
		}
	}
	return s
}
