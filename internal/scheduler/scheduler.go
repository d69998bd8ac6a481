package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/infrastructure/metrics"
)

// everyMinute is the cron expression for the evaluator.
const everyMinute = "* * * * *"

// Logger defines the logging interface used by the scheduler.
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

// Callback applies a fired rule.
type Callback func(ctx context.Context, name device.Name, action device.Action) error

// Scheduler holds at most one rule per device and fires matching rules
// once per minute.
//
// The fired-minute guard is kept per device and survives Add, Toggle and
// Remove, so a device fires at most once in any minute.
//
// Thread Safety: all methods are safe for concurrent use. Callbacks run
// outside the scheduler's lock, so they may call back into it.
type Scheduler struct {
	mu    sync.Mutex
	rules map[device.Name]Rule
	fired map[device.Name]time.Time

	fire    Callback
	loc     *time.Location
	now     func() time.Time
	logger  Logger
	metrics *metrics.Metrics
}

// New creates a scheduler loaded with DefaultRules. Rules are evaluated in
// loc; nil means time.Local.
func New(fire Callback, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		rules:  make(map[device.Name]Rule),
		fired:  make(map[device.Name]time.Time),
		fire:   fire,
		loc:    loc,
		now:    time.Now,
		logger: noopLogger{},
	}
	for _, r := range DefaultRules() {
		s.rules[r.Device] = r
	}
	return s
}

// SetLogger sets the logger. A nil logger is ignored.
func (s *Scheduler) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetMetrics attaches Prometheus instruments.
func (s *Scheduler) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Add validates r and installs it, replacing any rule for the same device.
func (s *Scheduler) Add(r Rule) (Rule, error) {
	r, err := normalize(r)
	if err != nil {
		return Rule{}, err
	}

	s.mu.Lock()
	s.rules[r.Device] = r
	s.mu.Unlock()

	s.logger.Info("schedule set", "device", r.Device, "time", r.Time, "action", r.Action, "enabled", r.Enabled)
	return r.clone(), nil
}

// Remove deletes the rule for name.
func (s *Scheduler) Remove(name device.Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[name]; !ok {
		return fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
	}
	delete(s.rules, name)
	s.logger.Info("schedule removed", "device", name)
	return nil
}

// Toggle enables or disables the rule for name.
func (s *Scheduler) Toggle(name device.Name, enabled bool) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[name]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
	}
	r.Enabled = enabled
	s.rules[name] = r
	s.logger.Info("schedule toggled", "device", name, "enabled", enabled)
	return r.clone(), nil
}

// Get returns the rule for name.
func (s *Scheduler) Get(name device.Name) (Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[name]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrScheduleNotFound, name)
	}
	return r.clone(), nil
}

// List returns every rule ordered by device name.
func (s *Scheduler) List() []Rule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out
}

// Tick evaluates every rule against now and fires the matches. It returns
// the devices whose callbacks ran. A rule fires at most once per minute no
// matter how often Tick is called within that minute.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) []device.Name {
	minute := now.In(s.loc).Truncate(time.Minute)
	hhmm := minute.Format(timeLayout)
	day := strings.ToLower(minute.Weekday().String())

	type job struct {
		name   device.Name
		action device.Action
	}

	s.mu.Lock()
	var due []job
	for name, r := range s.rules {
		if !r.matches(hhmm, day) || s.fired[name].Equal(minute) {
			continue
		}
		s.fired[name] = minute
		due = append(due, job{name: name, action: r.Action})
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].name < due[j].name })

	fired := make([]device.Name, 0, len(due))
	for _, j := range due {
		s.run(ctx, j.name, j.action, hhmm)
		fired = append(fired, j.name)
	}
	return fired
}

// run invokes the callback for one rule, containing panics and errors.
func (s *Scheduler) run(ctx context.Context, name device.Name, action device.Action, at string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.ObserveScheduleFire(string(name), "panic")
			s.logger.Error("schedule callback panicked", "device", name, "panic", r)
		}
	}()

	if s.fire == nil {
		return
	}

	if err := s.fire(ctx, name, action); err != nil {
		s.metrics.ObserveScheduleFire(string(name), "error")
		s.logger.Warn("scheduled action failed", "device", name, "action", action, "error", err)
		return
	}

	s.metrics.ObserveScheduleFire(string(name), "success")
	s.logger.Info("scheduled action executed", "device", name, "action", action, "at", at)
}

// Run drives Tick from a cron evaluator at the top of every minute until
// ctx is cancelled, then waits for any in-flight tick to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{s.logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})),
	)

	if _, err := c.AddFunc(everyMinute, func() {
		s.Tick(ctx, s.now())
	}); err != nil {
		return fmt.Errorf("registering schedule evaluator: %w", err)
	}

	s.logger.Info("scheduler started", "timezone", s.loc.String(), "rules", len(s.List()))
	c.Start()

	<-ctx.Done()

	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
