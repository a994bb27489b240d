package action

import (
	"context"
	"errors"
	"fmt"
)

// ErrSkip is returned by a runner that decided, at runtime, not to do its
// work. The engine transitions the action to SKIPPED instead of FAILURE.
var ErrSkip = errors.New("action skipped")

// RunError is the normalized runner failure: a human-readable cause plus,
// where applicable, a process exit code. Runner errors of any other type
// are wrapped into RunError at the engine boundary.
type RunError struct {
	Cause    string
	ExitCode int
}

func (e *RunError) Error() string {
	return e.Cause
}

// Failf builds a RunError without an exit code.
func Failf(format string, args ...any) *RunError {
	return &RunError{Cause: fmt.Sprintf(format, args...)}
}

// Invocation carries everything a runner needs for one dispatch: the action
// name, the fully rendered parameter payload, and the emission handle.
type Invocation struct {
	Name   string
	Params map[string]any
	Emit   *Emission
}

// StringParam fetches a string parameter, tolerating absence.
func (inv *Invocation) StringParam(key string) (string, bool) {
	raw, ok := inv.Params[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// StringMapParam fetches a map-of-strings parameter, coercing scalar leaf
// values through fmt.Sprint.
func (inv *Invocation) StringMapParam(key string) (map[string]string, bool) {
	raw, ok := inv.Params[key]
	if !ok {
		return nil, false
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out, true
}

// Runner executes one action kind. A nil return means success; ErrSkip
// requests a skip; context errors mark the action cancelled; anything else
// is a failure. Run must return promptly once ctx is done.
type Runner interface {
	Run(ctx context.Context, inv *Invocation) error
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, inv *Invocation) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, inv *Invocation) error {
	return f(ctx, inv)
}
