// Package scheduler owns "now" for the appliance. It waits for a plausible
// wall clock, rebuilds the day's schedule at every time point and at local
// midnight, and hands the resolved commands to the actuator engines.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saaga0h/solarium/internal/actuator"
	"github.com/saaga0h/solarium/internal/clock"
	"github.com/saaga0h/solarium/internal/schedule"
)

// State of the scheduler
type State int

const (
	StateUnsynced State = iota
	StateIdle
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateUnsynced:
		return "unsynced"
	case StateIdle:
		return "idle"
	case StateRebuilding:
		return "rebuilding"
	}
	return "unknown"
}

// Trigger names what caused a rebuild
type Trigger string

const (
	TriggerEnable   Trigger = "enable"
	TriggerAlarm    Trigger = "alarm"
	TriggerMidnight Trigger = "midnight"
)

// Actuators is the command side of the actuator engines
type Actuators interface {
	Enqueue(cmd actuator.Command) bool
	CurrentValue(ctx context.Context, kind actuator.Kind) (actuator.Value, error)
}

// Rebuild describes one completed rebuild
type Rebuild struct {
	Trigger  Trigger
	At       time.Time
	Day      *schedule.Schedule
	Commands []actuator.Command
	// Alarm is the next rebuild; zero when only midnight will trigger one
	Alarm time.Time
}

// Observer is told about every rebuild after its commands were dispatched
type Observer interface {
	OnRebuild(ctx context.Context, r Rebuild)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, r Rebuild)

// OnRebuild calls f
func (f ObserverFunc) OnRebuild(ctx context.Context, r Rebuild) {
	f(ctx, r)
}

// Options tune the scheduler
type Options struct {
	// SyncYearFloor is the first year the clock is trusted in
	SyncYearFloor int
	// ResyncRetries is how many unsynced steps pass before a resync request
	ResyncRetries int
	// PreTransition is the length of the smoothing transition sent before a
	// new schedule; zero disables smoothing
	PreTransition time.Duration
	// Settle is how long to wait after smoothing before dispatching
	Settle time.Duration
	// RequestCapacity bounds the enable/disable queue
	RequestCapacity int
}

// Status is a copy of the scheduler state for reporting
type Status struct {
	State       State
	Enabled     bool
	Alarm       time.Time
	Day         *schedule.Schedule
	LastRebuild time.Time
	LastTrigger Trigger
}

type request bool

// Scheduler is the alarm and resync state machine. Step is single-threaded;
// Enable and Disable may be called from any goroutine.
type Scheduler struct {
	builder   *schedule.Builder
	out       Actuators
	resyncer  clock.Resyncer
	opts      Options
	logger    *slog.Logger
	observers []Observer
	sleep     func(ctx context.Context, d time.Duration) error

	requests chan request
	wake     chan struct{}
	// disables counts accepted disable requests; a rebuild that sees it move
	// while settling drops its commands
	disables atomic.Uint64

	// owned by the goroutine calling Step
	state   State
	enabled bool
	alarm   time.Time
	retries int
	day     *schedule.Schedule

	mu     sync.RWMutex
	status Status
}

// New creates a scheduler in the unsynced state with the simulation off
func New(builder *schedule.Builder, out Actuators, resyncer clock.Resyncer, opts Options, logger *slog.Logger) *Scheduler {
	if opts.RequestCapacity <= 0 {
		opts.RequestCapacity = 20
	}
	return &Scheduler{
		builder:  builder,
		out:      out,
		resyncer: resyncer,
		opts:     opts,
		logger:   logger,
		sleep:    sleepCtx,
		requests: make(chan request, opts.RequestCapacity),
		wake:     make(chan struct{}, 1),
		status:   Status{State: StateUnsynced},
	}
}

// Observe registers an observer. It must be called before Run.
func (s *Scheduler) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// Enable turns the day simulation on. The schedule is rebuilt on the next
// step once the clock is synchronised.
func (s *Scheduler) Enable() bool {
	return s.request(true)
}

// Disable turns the day simulation off, leaving the actuators where they are
func (s *Scheduler) Disable() bool {
	return s.request(false)
}

func (s *Scheduler) request(enable request) bool {
	select {
	case s.requests <- enable:
	default:
		s.logger.Warn("Dropped scheduler request, queue full", "enable", bool(enable))
		return false
	}
	if !enable {
		s.disables.Add(1)
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Enabled reports whether the day simulation is on
func (s *Scheduler) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Enabled
}

// Status returns a copy of the current state
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Run steps the machine every interval, and whenever a request arrives,
// until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, clk clock.Clock, interval time.Duration) {
	s.logger.Info("Scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Step(ctx, clk.Now())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
		case <-s.wake:
		}
		s.Step(ctx, clk.Now())
	}
}

// Step advances the machine to now
func (s *Scheduler) Step(ctx context.Context, now time.Time) {
	if !clock.Synced(now, s.opts.SyncYearFloor) {
		s.unsynced(ctx, now)
		return
	}
	if s.state == StateUnsynced {
		s.logger.Info("Clock synchronised", "now", now.Format(time.RFC3339))
		s.retries = 0
		s.state = StateIdle
		s.publish(nil)
	}

	var trigger Trigger
	for pending := true; pending; {
		select {
		case req := <-s.requests:
			if req {
				s.enabled = true
				trigger = TriggerEnable
			} else {
				s.enabled = false
				s.alarm = time.Time{}
				trigger = ""
				s.logger.Info("Day simulation disabled")
			}
		default:
			pending = false
		}
	}

	if !s.enabled {
		s.publish(nil)
		return
	}

	if trigger == "" {
		trigger = s.due(now)
	}
	if trigger != "" {
		s.rebuild(ctx, now, trigger)
	}
}

func (s *Scheduler) unsynced(ctx context.Context, now time.Time) {
	if s.state != StateUnsynced {
		s.logger.Warn("Clock lost synchronisation", "now", now.Format(time.RFC3339))
		s.state = StateUnsynced
		s.publish(nil)
	}

	s.retries++
	s.logger.Debug("Waiting for clock", "year", now.Year(), "retry", s.retries)
	if s.opts.ResyncRetries > 0 && s.retries >= s.opts.ResyncRetries {
		s.retries = 0
		if err := s.resyncer.Resync(ctx); err != nil {
			s.logger.Error("Failed to request clock resync", "error", err)
		}
	}
}

// due returns the trigger that fires at now, if any. With no alarm left the
// first step on a later local date than the built schedule is midnight, so
// a coarse poll or a fast virtual clock cannot skip it.
func (s *Scheduler) due(now time.Time) Trigger {
	if s.alarm.IsZero() {
		if s.day == nil {
			return ""
		}
		startOfDay, _ := schedule.References(now, s.builder.Location())
		if startOfDay.After(s.day.Date) {
			return TriggerMidnight
		}
		return ""
	}
	if !now.Before(s.alarm) {
		return TriggerAlarm
	}
	return ""
}

func (s *Scheduler) rebuild(ctx context.Context, now time.Time, trigger Trigger) {
	s.state = StateRebuilding
	s.publish(nil)
	disables := s.disables.Load()

	s.day = s.builder.Build(now)
	s.alarm, _ = s.day.NextAlarm(now)

	cmds := s.day.Commands(now)
	if !s.dispatch(ctx, cmds, disables) {
		s.state = StateIdle
		s.publish(nil)
		s.logger.Info("Rebuild abandoned before dispatch", "trigger", string(trigger))
		return
	}

	s.state = StateIdle
	r := Rebuild{
		Trigger:  trigger,
		At:       now,
		Day:      s.day,
		Commands: cmds,
		Alarm:    s.alarm,
	}
	s.publish(&r)

	s.logger.Info("Schedule rebuilt",
		"trigger", string(trigger),
		"commands", len(cmds),
		"next_alarm", formatAlarm(s.alarm))
	s.logDay(s.day)

	for _, o := range s.observers {
		o.OnRebuild(ctx, r)
	}
}

// dispatch glides every light from its present output to the value the new
// command starts at, waits for that to settle, then sends the commands. It
// sends nothing more once a disable newer than disables was accepted.
func (s *Scheduler) dispatch(ctx context.Context, cmds []actuator.Command, disables uint64) bool {
	if s.opts.PreTransition > 0 {
		smoothed := false
		for _, cmd := range cmds {
			if cmd.Kind.IsDuty() {
				continue
			}
			s.out.Enqueue(s.preTransition(ctx, cmd))
			smoothed = true
		}
		if smoothed && s.opts.Settle > 0 {
			if err := s.sleep(ctx, s.opts.Settle); err != nil {
				return false
			}
		}
	}

	if s.disables.Load() != disables {
		return false
	}
	for _, cmd := range cmds {
		if !s.out.Enqueue(cmd) {
			s.logger.Warn("Command dropped", "actuator", cmd.Kind.String())
		}
	}
	return true
}

func (s *Scheduler) preTransition(ctx context.Context, cmd actuator.Command) actuator.Command {
	normalized := cmd.Normalize()
	target := actuator.ValueAt(normalized, normalized.Elapsed)

	pre := actuator.Command{
		Kind:  cmd.Kind,
		Mode:  actuator.ModeSmooth,
		Dst:   target,
		Total: s.opts.PreTransition,
	}

	qctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	current, err := s.out.CurrentValue(qctx, cmd.Kind)
	if err != nil {
		s.logger.Debug("Current value unavailable, smoothing from engine state",
			"actuator", cmd.Kind.String(), "error", err)
		pre.FromCurrent = true
	} else {
		pre.Src = current
	}
	return pre
}

func (s *Scheduler) publish(r *Rebuild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.State = s.state
	s.status.Enabled = s.enabled
	s.status.Alarm = s.alarm
	s.status.Day = s.day
	if r != nil {
		s.status.LastRebuild = r.At
		s.status.LastTrigger = r.Trigger
	}
}

// logDay dumps the points and compressed windows of a rebuilt day
func (s *Scheduler) logDay(d *schedule.Schedule) {
	loc := s.builder.Location()
	for _, p := range d.Summary() {
		s.logger.Info("Time point",
			"point", p.Name,
			"start", p.Start.In(loc).Format(time.TimeOnly),
			"interval_s", p.IntervalS)
	}
	for _, w := range d.Windows() {
		s.logger.Info("Window",
			"family", w.Family,
			"point", w.Point,
			"start", w.Start.In(loc).Format(time.TimeOnly),
			"total_s", w.TotalS)
	}
}

func formatAlarm(t time.Time) string {
	if t.IsZero() {
		return "unset"
	}
	return t.Format(time.RFC3339)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
