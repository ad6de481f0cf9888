// Package progress reports step transitions to humans and logs.
package progress

import (
	"sync"
	"time"

	"github.com/imamik/hoc/internal/record"
)

// Phase separates the forward run from the rollback sweep.
type Phase string

const (
	PhaseRun      Phase = "run"
	PhaseForward  Phase = "forward"
	PhaseRollback Phase = "rollback"
)

// Event is a single transition. Run-level events have an empty Step.
type Event struct {
	Procedure string
	RunID     string
	Phase     Phase
	Step      string
	Index     int
	Total     int
	Status    record.Status
	Outcome   record.Outcome
	Skipped   bool
	Elapsed   time.Duration
	Message   string
}

// Sink receives events. Emit must not block for long; it is called
// synchronously with every transition.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans events out to several sinks in order.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Collector keeps every event in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (c *Collector) Emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

// Events returns a copy of the collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
