package graph

import (
	"sort"

	"github.com/vk/grana/internal/model"
)

// Graph is the validated, immutable dependency graph of one workflow.
type Graph struct {
	actions  map[string]*model.Action
	names    []string
	declared []string
	backward map[string]map[string]model.Dependency
	forward  map[string]map[string]model.Dependency
	roots    []string
	topo     []string
	tiers    [][]string
}

// Len returns the number of actions.
func (g *Graph) Len() int {
	return len(g.actions)
}

// Names returns all action names in sorted order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// DeclarationOrder returns the action names in workflow declaration order.
func (g *Graph) DeclarationOrder() []string {
	out := make([]string, len(g.declared))
	copy(out, g.declared)
	return out
}

// Get returns the descriptor for the given action name.
func (g *Graph) Get(name string) (*model.Action, bool) {
	a, ok := g.actions[name]
	return a, ok
}

// Dependencies returns the sorted names this action depends on.
func (g *Graph) Dependencies(name string) []string {
	return sortedKeys(g.backward[name])
}

// Dependents returns the sorted names depending on this action.
func (g *Graph) Dependents(name string) []string {
	return sortedKeys(g.forward[name])
}

// Edge returns the attributes of the dependency edge from the dependent
// action to one of its dependencies.
func (g *Graph) Edge(dependent, dependency string) (model.Dependency, bool) {
	dep, ok := g.backward[dependent][dependency]
	return dep, ok
}

// Roots returns the sorted names of actions with no dependencies.
func (g *Graph) Roots() []string {
	out := make([]string, len(g.roots))
	copy(out, g.roots)
	return out
}

// TopologicalOrder returns a stable topological ordering of all actions:
// dependency-compatible, with lexicographic tie-breaking.
func (g *Graph) TopologicalOrder() []string {
	out := make([]string, len(g.topo))
	copy(out, g.topo)
	return out
}

// Tiers groups actions by their distance from the entrypoints. Tier #0 is
// the entrypoint set. The grouping is used for plan display, not for
// scheduling correctness.
func (g *Graph) Tiers() [][]string {
	out := make([][]string, len(g.tiers))
	for i, tier := range g.tiers {
		out[i] = make([]string, len(tier))
		copy(out[i], tier)
	}
	return out
}

func sortedKeys(m map[string]model.Dependency) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
