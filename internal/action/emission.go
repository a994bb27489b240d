package action

import (
	"sync"
)

// MessageSink receives streamed output lines from running actions.
type MessageSink interface {
	OnActionMessage(action, line string, stderr bool)
}

// Emission is the per-dispatch communication handle between a runner and
// the engine. Output lines are forwarded to the sink as they arrive;
// yielded outcome values are collected and read once by the engine after
// the runner returns. Safe for concurrent use: shell runners feed it from
// separate stdout and stderr goroutines.
type Emission struct {
	action string
	sink   MessageSink

	mu       sync.Mutex
	outcomes map[string]string
	skip     bool
}

// NewEmission builds an emission handle. A nil sink discards messages.
func NewEmission(action string, sink MessageSink) *Emission {
	return &Emission{
		action:   action,
		sink:     sink,
		outcomes: make(map[string]string),
	}
}

// Say forwards a stdout line.
func (e *Emission) Say(line string) {
	if e.sink != nil {
		e.sink.OnActionMessage(e.action, line, false)
	}
}

// SayErr forwards a stderr line.
func (e *Emission) SayErr(line string) {
	if e.sink != nil {
		e.sink.OnActionMessage(e.action, line, true)
	}
}

// YieldOutcome records one outcome value. Later yields of the same key win,
// mirroring repeated yield_outcome calls inside a single action.
func (e *Emission) YieldOutcome(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.outcomes[key] = value
}

// RequestSkip marks the dispatch as self-skipped. Runners check the flag
// after their underlying work stops and return ErrSkip.
func (e *Emission) RequestSkip() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skip = true
}

// SkipRequested reports whether a skip service message was seen.
func (e *Emission) SkipRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skip
}

// Outcomes returns a copy of all yielded values.
func (e *Emission) Outcomes() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.outcomes))
	for k, v := range e.outcomes {
		out[k] = v
	}
	return out
}
