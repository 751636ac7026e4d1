// Package control is the appliance's command surface: it queues commands
// into the actuator engines, answers value queries, switches the day
// simulation and reports status.
package control

import (
	"context"
	"fmt"
	"sync"

	"github.com/saaga0h/solarium/internal/actuator"
)

// Bank holds one engine per actuator kind
type Bank struct {
	engines map[actuator.Kind]*actuator.Engine
}

// NewBank creates a bank over engines. A later engine of the same kind
// replaces an earlier one.
func NewBank(engines ...*actuator.Engine) *Bank {
	b := &Bank{engines: make(map[actuator.Kind]*actuator.Engine, len(engines))}
	for _, e := range engines {
		b.engines[e.Kind()] = e
	}
	return b
}

// Enqueue queues cmd for the engine of its kind without blocking. It
// returns false when there is no such engine or its queue is full.
func (b *Bank) Enqueue(cmd actuator.Command) bool {
	e, ok := b.engines[cmd.Kind]
	if !ok {
		return false
	}
	return e.TrySend(cmd)
}

// CurrentValue asks the engine of kind for its present output
func (b *Bank) CurrentValue(ctx context.Context, kind actuator.Kind) (actuator.Value, error) {
	e, ok := b.engines[kind]
	if !ok {
		return actuator.Value{}, fmt.Errorf("no engine for %s", kind)
	}
	return e.Current(ctx)
}

// Snapshot returns the last rendered output of kind without waiting on
// its engine
func (b *Bank) Snapshot(kind actuator.Kind) (actuator.Value, bool) {
	e, ok := b.engines[kind]
	if !ok {
		return actuator.Value{}, false
	}
	return e.Snapshot(), true
}

// Run runs every engine until ctx is cancelled
func (b *Bank) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, e := range b.engines {
		wg.Add(1)
		go func(e *actuator.Engine) {
			defer wg.Done()
			e.Run(ctx)
		}(e)
	}
	wg.Wait()
}
