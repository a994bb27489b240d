package strategy

import (
	"fmt"
	"sort"

	"github.com/vk/grana/internal/graph"
	"github.com/vk/grana/internal/model"
)

// View is the engine-provided read-only window into the run.
type View interface {
	// Graph returns the validated dependency graph.
	Graph() *graph.Graph
	// Status returns the current state of one action.
	Status(name string) model.Status
	// InFlight returns the number of currently dispatched actions.
	InFlight() int
}

// Decision is a strategy's answer for one scheduling round. Ready actions
// absent from both sets stay READY and are offered again next round.
type Decision struct {
	// Dispatch lists actions to launch now, in order.
	Dispatch []string
	// Skip maps actions to withhold onto a human-readable cause.
	Skip map[string]string
}

// Strategy decides scheduling order, concurrency shape, and failure
// propagation.
type Strategy interface {
	Name() string
	Plan(ready []string, view View) Decision
}

// Factory builds a strategy instance for one run.
type Factory func(g *graph.Graph) Strategy

var known = map[string]Factory{}

// MustRegister adds a named strategy to the registry. Reusing a name is a
// programmer error.
func MustRegister(name string, factory Factory) {
	if _, exists := known[name]; exists {
		panic(fmt.Sprintf("strategy named %q already exists", name))
	}
	known[name] = factory
}

// New instantiates a registered strategy by name.
func New(name string, g *graph.Graph) (Strategy, error) {
	factory, ok := known[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %v)", name, Names())
	}
	return factory(g), nil
}

// Known reports whether a strategy name is registered.
func Known(name string) bool {
	_, ok := known[name]
	return ok
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlockingDependency is the shared propagation primitive: it returns a
// dependency of the action whose terminal status forbids the action from
// running. With strictAll set every defective dependency blocks; otherwise
// only dependency edges marked strict do. Because skipped actions are
// themselves defective, applying this check each time an action becomes
// ready propagates failures forward through the whole graph, hop by hop
// over the dependents edges.
func BlockingDependency(view View, name string, strictAll bool) (string, bool) {
	g := view.Graph()
	for _, depName := range g.Dependencies(name) {
		if !view.Status(depName).Defective() {
			continue
		}
		if strictAll {
			return depName, true
		}
		if edge, ok := g.Edge(name, depName); ok && edge.Strict {
			return depName, true
		}
	}
	return "", false
}

func skipCause(dependency string) string {
	return fmt.Sprintf("dependency %q did not succeed", dependency)
}
