package graph

import (
	"sort"

	"github.com/vk/grana/internal/model"
)

// Build validates a descriptor set and assembles the graph. Dependencies
// marked external are silently pruned when their target is absent; every
// other unknown reference fails validation. Cycle detection runs before the
// entrypoint check so that a fully cyclic workflow is reported as a cycle
// rather than as a missing entrypoint.
func Build(actions []*model.Action) (*Graph, error) {
	g := &Graph{
		actions:  make(map[string]*model.Action, len(actions)),
		backward: make(map[string]map[string]model.Dependency, len(actions)),
		forward:  make(map[string]map[string]model.Dependency, len(actions)),
	}
	for _, action := range actions {
		if _, exists := g.actions[action.Name]; exists {
			return nil, &ValidationError{Kind: KindDuplicateAction, Name: action.Name}
		}
		g.actions[action.Name] = action
		g.names = append(g.names, action.Name)
		g.declared = append(g.declared, action.Name)
		g.backward[action.Name] = make(map[string]model.Dependency)
		g.forward[action.Name] = make(map[string]model.Dependency)
	}
	sort.Strings(g.names)

	var missing []string
	for _, name := range g.names {
		action := g.actions[name]
		for depName, dep := range action.Expects {
			if _, known := g.actions[depName]; !known {
				if dep.External {
					continue
				}
				missing = append(missing, depName)
				continue
			}
			g.backward[name][depName] = dep
			g.forward[depName][name] = dep
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &ValidationError{Kind: KindUnknownDependency, Name: missing[0]}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &ValidationError{Kind: KindCycleDetected, Cycle: cycle}
	}

	for _, name := range g.names {
		if len(g.backward[name]) == 0 {
			g.roots = append(g.roots, name)
		}
	}
	if len(g.roots) == 0 && len(g.names) > 0 {
		return nil, &ValidationError{Kind: KindNoEntrypoints}
	}

	g.topo = g.topologicalSort()
	g.tiers = g.allocateTiers()
	return g, nil
}

// findCycle runs DFS with white/gray/black coloring over the dependency
// edges. The first back-edge found yields a minimal reproducible cycle,
// reported in dependency order with the entry node repeated at the end.
func (g *Graph) findCycle() []string {
	const (
		white = iota // unvisited
		gray         // on the current recursion stack
		black        // fully explored
	)
	colors := make(map[string]int, len(g.names))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		colors[name] = gray
		stack = append(stack, name)
		for _, depName := range g.Dependencies(name) {
			switch colors[depName] {
			case black:
				continue
			case gray:
				// Unwind the stack down to the first occurrence of depName.
				start := 0
				for i, n := range stack {
					if n == depName {
						start = i
						break
					}
				}
				cycle := append([]string{}, stack[start:]...)
				return append(cycle, depName)
			default:
				if cycle := visit(depName); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[name] = black
		return nil
	}

	for _, name := range g.names {
		if colors[name] == white {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// topologicalSort is Kahn's algorithm with a sorted frontier, producing a
// deterministic dependency-compatible ordering. Only called on validated
// acyclic graphs.
func (g *Graph) topologicalSort() []string {
	remaining := make(map[string]int, len(g.names))
	for _, name := range g.names {
		remaining[name] = len(g.backward[name])
	}
	frontier := append([]string{}, g.roots...)
	order := make([]string, 0, len(g.names))
	for len(frontier) > 0 {
		sort.Strings(frontier)
		next := frontier[0]
		frontier = frontier[1:]
		order = append(order, next)
		for _, dependent := range g.Dependents(next) {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				frontier = append(frontier, dependent)
			}
		}
	}
	return order
}

// allocateTiers groups actions by breadth-first distance from the
// entrypoint set.
func (g *Graph) allocateTiers() [][]string {
	assigned := make(map[string]int, len(g.names))
	current := append([]string{}, g.roots...)
	tier := 0
	for len(current) > 0 {
		var next []string
		for _, name := range current {
			if _, done := assigned[name]; done {
				continue
			}
			assigned[name] = tier
			next = append(next, g.Dependents(name)...)
		}
		current = next
		tier++
	}
	tiers := make([][]string, 0, tier)
	for i := 0; i < tier; i++ {
		var members []string
		for _, name := range g.names {
			if assigned[name] == i {
				members = append(members, name)
			}
		}
		if len(members) > 0 {
			tiers = append(tiers, members)
		}
	}
	return tiers
}
