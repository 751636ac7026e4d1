package actuator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultQueueCapacity is the mailbox size of an engine
const DefaultQueueCapacity = 20

// animator is the per-kind rendering state owned by an Engine goroutine
type animator interface {
	// load replaces the command in flight
	load(cmd Command)
	// step renders one tick and reports when the next one is due
	step() (next time.Duration, active bool)
	// current returns the output as last rendered
	current() Value
}

// Options tune an Engine
type Options struct {
	// QueueCapacity bounds the mailbox; DefaultQueueCapacity when zero
	QueueCapacity int
	// OnDrop is called when a command is rejected because the mailbox is full
	OnDrop func(kind Kind)
	// OnRender is called with every rendered output
	OnRender func(kind Kind, v Value)
}

// Engine runs the transition state machine of one actuator kind
type Engine struct {
	kind     Kind
	anim     animator
	mailbox  chan Command
	queries  chan chan Value
	snapshot atomic.Value
	opts     Options
	logger   *slog.Logger
}

func newEngine(kind Kind, anim animator, opts Options, logger *slog.Logger) *Engine {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	e := &Engine{
		kind:    kind,
		anim:    anim,
		mailbox: make(chan Command, opts.QueueCapacity),
		queries: make(chan chan Value),
		opts:    opts,
		logger:  logger.With("actuator", kind.String()),
	}
	e.snapshot.Store(anim.current())
	return e
}

// Kind returns the actuator kind the engine drives
func (e *Engine) Kind() Kind {
	return e.kind
}

// TrySend queues cmd without blocking. It returns false and drops the
// command when the mailbox is full.
func (e *Engine) TrySend(cmd Command) bool {
	cmd.Kind = e.kind
	select {
	case e.mailbox <- cmd:
		return true
	default:
		e.logger.Debug("Dropped command, queue full", "mode", cmd.Mode.String())
		if e.opts.OnDrop != nil {
			e.opts.OnDrop(e.kind)
		}
		return false
	}
}

// Current asks the engine goroutine for its present output
func (e *Engine) Current(ctx context.Context) (Value, error) {
	reply := make(chan Value, 1)
	select {
	case e.queries <- reply:
	case <-ctx.Done():
		return Value{}, fmt.Errorf("query %s: %w", e.kind, ctx.Err())
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return Value{}, fmt.Errorf("query %s: %w", e.kind, ctx.Err())
	}
}

// Snapshot returns the last rendered output without involving the engine
// goroutine. It may be one tick stale.
func (e *Engine) Snapshot() Value {
	return e.snapshot.Load().(Value)
}

// Run processes commands and ticks until ctx is cancelled. A received
// command is rendered immediately in place of the pending tick.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Actuator engine started", "queue_capacity", cap(e.mailbox))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	var tick <-chan time.Time

	advance := func() {
		next, active := e.anim.step()
		v := e.anim.current()
		e.snapshot.Store(v)
		if e.opts.OnRender != nil {
			e.opts.OnRender(e.kind, v)
		}
		if active {
			timer.Reset(next)
			tick = timer.C
		} else {
			tick = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Actuator engine stopped")
			return
		case cmd := <-e.mailbox:
			e.logger.Debug("Loading command",
				"mode", cmd.Mode.String(),
				"total_ms", cmd.Total.Milliseconds(),
				"elapsed_ms", cmd.Elapsed.Milliseconds())
			e.anim.load(cmd)
			advance()
		case reply := <-e.queries:
			reply <- e.anim.current()
		case <-tick:
			advance()
		}
	}
}
