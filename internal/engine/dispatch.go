package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/ctxlog"
	"github.com/vk/grana/internal/model"
	"github.com/vk/grana/internal/render"
)

// dispatch launches one ready action as an independently progressing unit
// of work. Parameters are rendered first, against a status snapshot taken
// on the engine loop: every dependency is terminal at this point, so all
// referenced outcome values are final.
func (e *Engine) dispatch(ctx context.Context, name string) {
	act, _ := e.graph.Get(name)
	factory, _ := e.registry.Lookup(act.Type)
	statuses := e.statusSnapshot()
	e.transition(name, model.StatusRunning, "")
	e.inFlight++

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.results <- completion{name: name, err: action.Failf("runner panic: %v", r)}
			}
		}()
		templar := render.New(e.ledger, statuses, e.opts.Context, e.opts.StrictRender)
		params, err := templar.RenderAll(act.Params)
		if err != nil {
			e.results <- completion{name: name, err: err}
			return
		}
		emit := action.NewEmission(name, e.sink)
		runner := factory()
		ctxlog.FromContext(ctx).Debug("Dispatching action.", "action", name, "kind", act.Type)
		runErr := runner.Run(ctx, &action.Invocation{Name: name, Params: params, Emit: emit})
		if runErr == nil && emit.SkipRequested() {
			runErr = action.ErrSkip
		}
		yielded := emit.Outcomes()
		if runErr == nil {
			for _, key := range act.Outcomes {
				if _, ok := yielded[key]; !ok {
					ctxlog.FromContext(ctx).Debug("declared outcome not yielded", "action", name, "key", key)
				}
			}
		}
		e.results <- completion{name: name, outcomes: yielded, err: runErr}
	}()
}

// finish consumes one completion on the engine loop: the single place
// where runner results become state transitions and ledger writes.
func (e *Engine) finish(c completion) error {
	e.inFlight--
	if e.sem != nil {
		e.sem.Release(1)
	}

	act, _ := e.graph.Get(c.name)
	switch {
	case c.err == nil:
		if err := e.recordOutcomes(c.name, c.outcomes); err != nil {
			return err
		}
		e.transition(c.name, model.StatusSuccess, "")
	case errors.Is(c.err, action.ErrSkip):
		e.transition(c.name, model.StatusSkipped, "skipped by the action itself")
	case errors.Is(c.err, context.Canceled) || errors.Is(c.err, context.DeadlineExceeded):
		e.transition(c.name, model.StatusCancelled, "run cancelled")
	default:
		status := model.StatusFailure
		if act.Severity == model.SeverityLow {
			status = model.StatusWarning
			// A low-severity action still publishes whatever it managed to
			// yield before failing.
			if err := e.recordOutcomes(c.name, c.outcomes); err != nil {
				return err
			}
		}
		e.transition(c.name, status, normalize(c.err).Cause)
	}
	return nil
}

func (e *Engine) recordOutcomes(name string, outcomes map[string]string) error {
	for key, value := range outcomes {
		if err := e.ledger.Put(name, key, value); err != nil {
			// A conflict here means the write-once discipline broke:
			// abort the run instead of papering over it.
			return fmt.Errorf("ledger invariant violated: %w", err)
		}
	}
	return nil
}

// normalize coerces any runner error into a RunError.
func normalize(err error) *action.RunError {
	var runErr *action.RunError
	if errors.As(err, &runErr) {
		return runErr
	}
	var renderErr *render.Error
	if errors.As(err, &renderErr) {
		return &action.RunError{Cause: renderErr.Error()}
	}
	return &action.RunError{Cause: err.Error()}
}
