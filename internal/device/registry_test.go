package device

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in      string
		want    Name
		wantErr bool
	}{
		{"fan", Fan, false},
		{"light", Light, false},
		{"FAN", "", true},
		{"heater", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseName(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrDeviceNotFound) {
					t.Errorf("ParseName(%q) error = %v, want ErrDeviceNotFound", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseName(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{"ON", ActionOn, false},
		{"on", ActionOn, false},
		{" Off ", ActionOff, false},
		{"TOGGLE", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Errorf("ParseAction(%q) error = %v, want ErrInvalidAction", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseAction(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	if s, err := ParseState("on"); err != nil || s != On {
		t.Errorf("ParseState(on) = %q, %v", s, err)
	}
	if _, err := ParseState("dim"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ParseState(dim) error = %v, want ErrInvalidState", err)
	}
}

func TestActionTarget(t *testing.T) {
	if ActionOn.Target() != On || ActionOff.Target() != Off {
		t.Error("Action.Target() mapping wrong")
	}
}

func TestNewRegistryStartsOff(t *testing.T) {
	r := NewRegistry()
	for _, n := range Names() {
		s, err := r.Get(n)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", n, err)
		}
		if s != Off {
			t.Errorf("Get(%s) = %s, want OFF", n, s)
		}
	}
}

func TestRegistrySetThenGet(t *testing.T) {
	r := NewRegistry()
	fixed := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	prev, err := r.Set(Fan, On)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if prev != Off {
		t.Errorf("Set() previous = %s, want OFF", prev)
	}

	got, err := r.Get(Fan)
	if err != nil || got != On {
		t.Errorf("Get() = %s, %v; want ON", got, err)
	}

	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != Fan || !snap[0].UpdatedAt.Equal(fixed) {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if snap[1].Name != Light || snap[1].State != Off {
		t.Errorf("Snapshot()[1] = %+v", snap[1])
	}
}

func TestRegistryUnknownDevice(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("heater"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get() error = %v, want ErrDeviceNotFound", err)
	}
	if _, err := r.Set("heater", On); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Set() error = %v, want ErrDeviceNotFound", err)
	}
	if _, err := r.Set(Fan, "DIM"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Set(DIM) error = %v, want ErrInvalidState", err)
	}
}

func TestRegistryStats(t *testing.T) {
	r := NewRegistry()
	r.Set(Fan, On)   //nolint:errcheck // known device
	r.Set(Fan, On)   //nolint:errcheck // no-op write, not a transition
	r.Set(Light, On) //nolint:errcheck // known device
	r.Set(Light, Off) //nolint:errcheck // known device

	s := r.Stats()
	want := Stats{Total: 2, On: 1, Off: 1, Transitions: 3}
	if s != want {
		t.Errorf("Stats() = %+v, want %+v", s, want)
	}

	states := r.States()
	if states[Fan] != On || states[Light] != Off {
		t.Errorf("States() = %v", states)
	}
}

func TestRegistryConcurrentWrites(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state := On
			if i%2 == 0 {
				state = Off
			}
			if _, err := r.Set(Fan, state); err != nil {
				t.Errorf("Set() error = %v", err)
			}
			_, _ = r.Get(Fan)
			_ = r.Snapshot()
		}(i)
	}
	wg.Wait()

	got, err := r.Get(Fan)
	if err != nil || !got.Valid() {
		t.Errorf("final state = %q, %v", got, err)
	}
}
