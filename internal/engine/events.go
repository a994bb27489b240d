package engine

import (
	"time"

	"github.com/vk/grana/internal/model"
)

// Event is one per-action lifecycle transition, suitable for progress
// display.
type Event struct {
	Time   time.Time
	Action string
	From   model.Status
	To     model.Status
	// Cause is set for FAILURE, SKIPPED and CANCELLED transitions.
	Cause string
}

// Sink consumes the engine's event stream: lifecycle transitions plus
// output lines emitted by running actions. Implementations must tolerate
// concurrent OnActionMessage calls; OnTransition is always invoked from
// the engine loop.
type Sink interface {
	OnTransition(event Event)
	OnActionMessage(action, line string, stderr bool)
}

// nopSink backs a nil sink argument.
type nopSink struct{}

func (nopSink) OnTransition(Event)                   {}
func (nopSink) OnActionMessage(string, string, bool) {}
