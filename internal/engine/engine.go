package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/ctxlog"
	"github.com/vk/grana/internal/graph"
	"github.com/vk/grana/internal/ledger"
	"github.com/vk/grana/internal/model"
	"github.com/vk/grana/internal/strategy"
)

// defaultCancelGrace bounds how long the engine waits for in-flight
// runners after the run context is cancelled.
const defaultCancelGrace = 5 * time.Second

// Options configure one run.
type Options struct {
	// StrictRender fails an action whose parameters reference a missing
	// outcome key; when unset the reference renders as an empty string.
	StrictRender bool
	// ConcurrencyLimit bounds simultaneously running actions. Zero means
	// unbounded.
	ConcurrencyLimit int
	// Context is the workflow-level context map available to templates.
	Context map[string]any
	// CancelGrace overrides the cooperative-shutdown wait after
	// cancellation.
	CancelGrace time.Duration
}

// Engine executes one workflow graph with one strategy. Not reusable:
// build a fresh engine per run.
type Engine struct {
	graph    *graph.Graph
	strat    strategy.Strategy
	registry *action.Registry
	opts     Options
	sink     Sink

	ledger   *ledger.Ledger
	states   map[string]model.Status
	causes   map[string]string
	inFlight int
	results  chan completion
	sem      *semaphore.Weighted
	started  bool
}

type completion struct {
	name     string
	outcomes map[string]string
	err      error
}

// New builds an engine. Every action kind referenced by the graph must be
// resolvable through the registry.
func New(g *graph.Graph, strat strategy.Strategy, registry *action.Registry, opts Options, sink Sink) (*Engine, error) {
	if sink == nil {
		sink = nopSink{}
	}
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = defaultCancelGrace
	}
	names := g.Names()
	for _, name := range names {
		act, _ := g.Get(name)
		if _, ok := registry.Lookup(act.Type); !ok {
			return nil, fmt.Errorf("action %q has unknown runner kind %q", name, act.Type)
		}
	}
	e := &Engine{
		graph:    g,
		strat:    strat,
		registry: registry,
		opts:     opts,
		sink:     sink,
		ledger:   ledger.New(names),
		states:   make(map[string]model.Status, len(names)),
		causes:   make(map[string]string),
		results:  make(chan completion, len(names)),
	}
	for _, name := range names {
		e.states[name] = model.StatusPending
	}
	if opts.ConcurrencyLimit > 0 {
		e.sem = semaphore.NewWeighted(int64(opts.ConcurrencyLimit))
	}
	return e, nil
}

// Graph implements strategy.View.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Status implements strategy.View.
func (e *Engine) Status(name string) model.Status {
	return e.states[name]
}

// InFlight implements strategy.View.
func (e *Engine) InFlight() int {
	return e.inFlight
}

// Omit marks actions as deselected before the run starts. Omitted actions
// count as terminal and do not block their dependents.
func (e *Engine) Omit(names []string) error {
	if e.started {
		return fmt.Errorf("cannot omit actions after the run has started")
	}
	for _, name := range names {
		if _, ok := e.states[name]; !ok {
			return fmt.Errorf("cannot omit unknown action %q", name)
		}
		e.transition(name, model.StatusOmitted, "deselected")
	}
	return nil
}

// Run drives the graph to a terminal state for every action and returns
// the final snapshot. The returned error is reserved for broken internal
// invariants; ordinary action failures are reported through the Result.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.started {
		return nil, fmt.Errorf("engine started more than one time")
	}
	e.started = true
	logger := ctxlog.FromContext(ctx)
	startedAt := time.Now()
	logger.Debug("Engine run starting.", "actions", e.graph.Len(), "strategy", e.strat.Name())

	cancelled := false
	for {
		e.markReady()
		progressed := false
		if ctx.Err() == nil {
			decision := e.strat.Plan(e.readySet(), e)
			for name, cause := range decision.Skip {
				e.transition(name, model.StatusSkipped, cause)
				progressed = true
			}
			for _, name := range decision.Dispatch {
				if e.sem != nil && !e.sem.TryAcquire(1) {
					break
				}
				e.dispatch(ctx, name)
				progressed = true
			}
		}
		if e.allTerminal() {
			break
		}
		if progressed {
			continue
		}
		if e.inFlight == 0 {
			if ctx.Err() != nil {
				e.cancelRemaining()
				cancelled = true
				break
			}
			return nil, fmt.Errorf("scheduling stalled: no actions in flight and none dispatchable")
		}
		select {
		case c := <-e.results:
			if err := e.finish(c); err != nil {
				return nil, err
			}
		case <-ctx.Done():
			logger.Debug("Run context cancelled, waiting for in-flight actions.", "inFlight", e.inFlight)
			if err := e.drainInFlight(); err != nil {
				return nil, err
			}
			e.cancelRemaining()
			cancelled = true
		}
		if cancelled {
			break
		}
	}

	result := &Result{
		RunID:      uuid.NewString(),
		Verdict:    e.verdict(cancelled),
		States:     e.statusSnapshot(),
		Causes:     e.causeSnapshot(),
		Outcomes:   e.ledger.Snapshot(),
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
	logger.Debug("Engine run finished.", "verdict", string(result.Verdict))
	return result, nil
}

// markReady promotes every pending action whose dependencies are all
// terminal.
func (e *Engine) markReady() {
	for _, name := range e.graph.Names() {
		if e.states[name] != model.StatusPending {
			continue
		}
		blocked := false
		for _, depName := range e.graph.Dependencies(name) {
			if !e.states[depName].Terminal() {
				blocked = true
				break
			}
		}
		if !blocked {
			e.transition(name, model.StatusReady, "")
		}
	}
}

func (e *Engine) readySet() []string {
	var ready []string
	for _, name := range e.graph.Names() {
		if e.states[name] == model.StatusReady {
			ready = append(ready, name)
		}
	}
	return ready
}

func (e *Engine) allTerminal() bool {
	for _, status := range e.states {
		if !status.Terminal() {
			return false
		}
	}
	return true
}

// drainInFlight waits out the cancellation grace period for runners to
// report their cooperative shutdown.
func (e *Engine) drainInFlight() error {
	timer := time.NewTimer(e.opts.CancelGrace)
	defer timer.Stop()
	for e.inFlight > 0 {
		select {
		case c := <-e.results:
			if err := e.finish(c); err != nil {
				return err
			}
		case <-timer.C:
			return nil
		}
	}
	return nil
}

// cancelRemaining finalizes every non-terminal action as CANCELLED.
func (e *Engine) cancelRemaining() {
	for _, name := range e.graph.Names() {
		if !e.states[name].Terminal() {
			e.transition(name, model.StatusCancelled, "run cancelled")
		}
	}
}

func (e *Engine) transition(name string, to model.Status, cause string) {
	from := e.states[name]
	e.states[name] = to
	if cause != "" {
		e.causes[name] = cause
	}
	e.sink.OnTransition(Event{
		Time:   time.Now(),
		Action: name,
		From:   from,
		To:     to,
		Cause:  cause,
	})
}

func (e *Engine) statusSnapshot() map[string]model.Status {
	snapshot := make(map[string]model.Status, len(e.states))
	for name, status := range e.states {
		snapshot[name] = status
	}
	return snapshot
}

func (e *Engine) causeSnapshot() map[string]string {
	snapshot := make(map[string]string, len(e.causes))
	for name, cause := range e.causes {
		snapshot[name] = cause
	}
	return snapshot
}

func (e *Engine) verdict(cancelled bool) Verdict {
	if cancelled {
		return VerdictCancelled
	}
	for _, status := range e.states {
		if status == model.StatusCancelled {
			return VerdictCancelled
		}
	}
	for _, status := range e.states {
		if status == model.StatusFailure {
			return VerdictFailure
		}
	}
	return VerdictSuccess
}
