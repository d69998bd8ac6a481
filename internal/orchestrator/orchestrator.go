package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/hardware"
	"github.com/nerrad567/hearth-core/internal/infrastructure/metrics"
)

// ChannelDeviceState is the broadcast channel for applied commands.
const ChannelDeviceState = "device.state_changed"

// ioTimeout bounds each store and bus call made during a command.
const ioTimeout = 2 * time.Second

// Bus echo tracking. Every published state is expected back on the
// subscribed topic; entries older than echoWindow are presumed lost.
const (
	echoWindow       = 10 * time.Second
	maxPendingEchoes = 16
)

// echo is a published state not yet seen back from the bus.
type echo struct {
	state device.State
	at    time.Time
}

// Logger defines the logging interface used by the orchestrator.
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

// Orchestrator is the single writer of device state. Every producer (HTTP,
// bus, scheduler) goes through it, so a command is applied to hardware,
// registry, store, bus and live clients in one fixed order.
//
// Commands for the same device are serialised; different devices proceed
// independently. Store and bus failures are logged and never fail the
// command.
type Orchestrator struct {
	registry *device.Registry
	hw       Hardware
	store    StateStore
	pub      Publisher

	locks map[device.Name]*sync.Mutex

	// echoes is guarded by the matching device lock.
	echoes map[device.Name][]echo

	sensorMu   sync.Mutex
	lastSensor *hardware.SensorSnapshot

	broadcaster Broadcaster
	security    SecuritySink
	usage       UsageTracker
	logger      Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// New creates an orchestrator. store and pub may be nil.
func New(registry *device.Registry, hw Hardware, store StateStore, pub Publisher) *Orchestrator {
	locks := make(map[device.Name]*sync.Mutex, len(device.Names()))
	for _, n := range device.Names() {
		locks[n] = &sync.Mutex{}
	}
	return &Orchestrator{
		registry: registry,
		hw:       hw,
		store:    store,
		pub:      pub,
		locks:    locks,
		echoes:   make(map[device.Name][]echo, len(locks)),
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger. A nil logger is ignored.
func (o *Orchestrator) SetLogger(logger Logger) {
	if logger != nil {
		o.logger = logger
	}
}

// SetMetrics attaches Prometheus instruments.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) { o.metrics = m }

// SetBroadcaster registers the live push target.
func (o *Orchestrator) SetBroadcaster(b Broadcaster) { o.broadcaster = b }

// SetSecurity registers the sensor transition sink.
func (o *Orchestrator) SetSecurity(s SecuritySink) { o.security = s }

// SetUsage registers the wear tracker.
func (o *Orchestrator) SetUsage(u UsageTracker) { o.usage = u }

// Control applies action to name on behalf of source.
//
// The sequence is: hardware, registry, store, bus, live clients, history.
// Commands from the bus itself are not published back to it.
func (o *Orchestrator) Control(ctx context.Context, name device.Name, action device.Action, source string) (Snapshot, error) {
	if !name.Valid() {
		o.metrics.ObserveCommand(string(name), source, "invalid")
		return Snapshot{}, fmt.Errorf("%w: %w: %q", ErrValidation, device.ErrDeviceNotFound, name)
	}
	if action != device.ActionOn && action != device.ActionOff {
		o.metrics.ObserveCommand(string(name), source, "invalid")
		return Snapshot{}, fmt.Errorf("%w: %w: %q", ErrValidation, device.ErrInvalidAction, action)
	}
	if source == "" {
		source = device.SourceAPI
	}

	lock := o.locks[name]
	lock.Lock()
	defer lock.Unlock()

	return o.applyLocked(ctx, name, action, source, source != device.SourceMQTT)
}

// applyLocked runs the command sequence. The device lock must be held.
func (o *Orchestrator) applyLocked(ctx context.Context, name device.Name, action device.Action, source string, publish bool) (Snapshot, error) {
	res, err := o.hw.Apply(name, action)
	if err != nil {
		o.metrics.ObserveCommand(string(name), source, "error")
		return Snapshot{}, fmt.Errorf("applying %s to %s: %w", action, name, err)
	}

	prev, err := o.registry.Set(name, res.State)
	if err != nil {
		o.metrics.ObserveCommand(string(name), source, "error")
		return Snapshot{}, fmt.Errorf("updating registry for %s: %w", name, err)
	}

	snap := Snapshot{
		Device:     name,
		State:      res.State,
		Previous:   prev,
		Changed:    prev != res.State,
		PowerWatts: res.PowerWatts,
		GPIOPin:    res.GPIOPin,
		Source:     source,
		Timestamp:  res.Timestamp,
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = o.now().UTC()
	}

	// I/O below outlives a cancelled caller, bounded by ioTimeout.
	ioctx := context.WithoutCancel(ctx)

	o.persist(ioctx, name, res.State)
	if publish {
		o.publish(ioctx, name, res.State)
	}
	if o.broadcaster != nil {
		o.broadcaster.Broadcast(ChannelDeviceState, snap)
	}
	if snap.Changed {
		o.recordTransition(ioctx, snap)
		if o.usage != nil {
			o.usage.DeviceStateChanged(name, res.State, snap.Timestamp)
		}
	}

	o.metrics.ObserveCommand(string(name), source, "success")
	o.metrics.SetDeviceState(string(name), res.State == device.On, res.PowerWatts)

	o.logger.Info("device state applied",
		"device", name,
		"state", res.State,
		"previous", prev,
		"source", source,
		"power_watts", res.PowerWatts,
	)
	return snap, nil
}

func (o *Orchestrator) persist(ctx context.Context, name device.Name, state device.State) {
	if o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()

	if err := o.store.UpsertDeviceState(ctx, name, state); err != nil {
		o.metrics.ObserveStoreError("upsert_device")
		o.logger.Error("failed to persist device state", "device", name, "error", err)
	}
}

// publish announces state and records the echo the bus will send back.
// The echo is recorded even when Publish fails: a timed-out publish may
// still reach the broker.
func (o *Orchestrator) publish(ctx context.Context, name device.Name, state device.State) {
	if o.pub == nil {
		return
	}
	o.expectEcho(name, state)

	ctx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()

	if err := o.pub.Publish(ctx, name, state); err != nil {
		o.logger.Warn("failed to publish device state", "device", name, "error", err)
	}
}

func (o *Orchestrator) recordTransition(ctx context.Context, snap Snapshot) {
	if o.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, ioTimeout)
	defer cancel()

	err := o.store.RecordTransition(ctx, device.Transition{
		Device:     snap.Device,
		State:      snap.State,
		Previous:   snap.Previous,
		Source:     snap.Source,
		PowerWatts: snap.PowerWatts,
		Timestamp:  snap.Timestamp,
	})
	if err != nil {
		o.metrics.ObserveStoreError("record_transition")
		o.logger.Error("failed to record state history", "device", snap.Device, "error", err)
	}
}

func (o *Orchestrator) expectEcho(name device.Name, state device.State) {
	q := append(o.echoes[name], echo{state: state, at: o.now()})
	if len(q) > maxPendingEchoes {
		q = q[len(q)-maxPendingEchoes:]
	}
	o.echoes[name] = q
}

// consumeEcho reports whether state is the bus echo of one of our own
// publishes. Echoes arrive in publish order, so a match also discards the
// older entries queued before it. The device lock must be held.
func (o *Orchestrator) consumeEcho(name device.Name, state device.State) bool {
	now := o.now()
	q := o.echoes[name]

	fresh := 0
	for fresh < len(q) && now.Sub(q[fresh].at) > echoWindow {
		fresh++
	}
	q = q[fresh:]

	for i, e := range q {
		if e.state == state {
			o.echoes[name] = q[i+1:]
			return true
		}
	}
	o.echoes[name] = q
	return false
}

// HandleBusMessage applies a state received from the bus.
//
// Echoes of our own publishes are dropped, so a late echo cannot undo a
// newer command. A state equal to the current one is ignored; a change is
// applied without republishing.
func (o *Orchestrator) HandleBusMessage(ctx context.Context, name device.Name, state device.State) {
	if !name.Valid() {
		o.logger.Warn("bus message for unknown device", "device", name)
		return
	}

	lock := o.locks[name]
	lock.Lock()
	defer lock.Unlock()

	if o.consumeEcho(name, state) {
		o.metrics.ObserveCommand(string(name), device.SourceMQTT, "echo")
		o.logger.Debug("bus echo of own publish, ignoring", "device", name, "state", state)
		return
	}

	current, err := o.registry.Get(name)
	if err != nil || current == state {
		o.logger.Debug("bus state matches current, ignoring", "device", name, "state", state)
		return
	}

	if _, err := o.applyLocked(ctx, name, actionFor(state), device.SourceMQTT, false); err != nil {
		o.logger.Error("failed to apply bus message", "device", name, "state", state, "error", err)
	}
}

// ScheduledAction applies a fired schedule rule.
func (o *Orchestrator) ScheduledAction(ctx context.Context, name device.Name, action device.Action) error {
	_, err := o.Control(ctx, name, action, device.SourceSchedule)
	return err
}

// OnSensorSnapshot logs door and motion transitions and forwards them to
// the security sink. The first snapshot is compared against a closed door
// and no motion.
func (o *Orchestrator) OnSensorSnapshot(_ context.Context, snap hardware.SensorSnapshot) {
	o.sensorMu.Lock()
	prev := hardware.SensorSnapshot{Door: hardware.DoorClosed}
	if o.lastSensor != nil {
		prev = *o.lastSensor
	}
	o.lastSensor = &snap
	o.sensorMu.Unlock()

	at := snap.Timestamp
	if at.IsZero() {
		at = o.now().UTC()
	}

	if snap.Door != prev.Door {
		o.logger.Info("door state changed", "door", snap.Door)
		if o.security != nil {
			o.security.DoorChanged(snap.Door == hardware.DoorOpen, at)
		}
	}
	if snap.Motion != prev.Motion {
		o.logger.Info("motion changed", "detected", snap.Motion)
		if o.security != nil {
			o.security.MotionChanged(snap.Motion, at)
		}
	}
}

// Status returns registry and hardware state together.
func (o *Orchestrator) Status() Status {
	hw := make(map[device.Name]hardware.DeviceState)
	for _, d := range o.hw.Devices() {
		hw[d.Device] = d
	}

	regs := o.registry.Snapshot()
	devices := make([]DeviceStatus, 0, len(regs))
	for _, r := range regs {
		d := hw[r.Name]
		devices = append(devices, DeviceStatus{
			Name:       r.Name,
			State:      r.State,
			PowerWatts: d.PowerWatts,
			GPIOPin:    d.GPIOPin,
			UpdatedAt:  r.UpdatedAt,
		})
	}

	return Status{
		Devices:         devices,
		TotalPowerWatts: o.hw.TotalPower(),
		Sensors:         o.hw.Snapshot(),
		Stats:           o.registry.Stats(),
		Timestamp:       o.now().UTC(),
	}
}

// SyncFromStore brings registry and hardware in line with the persisted
// device table. Nothing is published. It returns the number of devices
// that changed.
func (o *Orchestrator) SyncFromStore(ctx context.Context) (int, error) {
	if o.store == nil {
		return 0, nil
	}
	states, err := o.store.DeviceStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading persisted device states: %w", err)
	}

	changed := 0
	for _, name := range device.Names() {
		state, ok := states[name]
		if !ok {
			continue
		}
		current, err := o.registry.Get(name)
		if err != nil || current == state {
			continue
		}

		lock := o.locks[name]
		lock.Lock()
		_, err = o.applyLocked(ctx, name, actionFor(state), device.SourceSync, false)
		lock.Unlock()
		if err != nil {
			o.logger.Warn("failed to restore device state", "device", name, "error", err)
			continue
		}
		changed++
	}

	o.logger.Info("device state restored from store", "changed", changed)
	return changed, nil
}

func actionFor(state device.State) device.Action {
	if state == device.On {
		return device.ActionOn
	}
	return device.ActionOff
}
