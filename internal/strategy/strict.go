package strategy

import (
	"fmt"

	"github.com/vk/grana/internal/graph"
	"github.com/vk/grana/internal/model"
)

func init() {
	MustRegister("strict", func(g *graph.Graph) Strategy {
		return &laneStrategy{name: "strict", order: g.TopologicalOrder(), halting: true}
	})
	MustRegister("sequential", func(g *graph.Graph) Strategy {
		return &laneStrategy{name: "sequential", order: g.DeclarationOrder()}
	})
}

// laneStrategy is single-lane scheduling: at most one action in flight,
// dispatched in a fixed order. The "strict" variant follows topological
// order and halts on the first failure, skipping everything still
// non-terminal; "sequential" follows declaration order and keeps going,
// withholding only actions behind a strict dependency edge.
type laneStrategy struct {
	name    string
	order   []string
	halting bool
}

func (s *laneStrategy) Name() string {
	return s.name
}

func (s *laneStrategy) Plan(ready []string, view View) Decision {
	decision := Decision{Skip: make(map[string]string)}
	if s.halting {
		if failed, halted := s.firstFailure(view); halted {
			for _, name := range ready {
				decision.Skip[name] = fmt.Sprintf("halted after failure of %q", failed)
			}
			return decision
		}
	}
	for _, name := range ready {
		if depName, blocked := BlockingDependency(view, name, s.halting); blocked {
			decision.Skip[name] = skipCause(depName)
		}
	}
	if view.InFlight() > 0 {
		return decision
	}
	// Dispatch the first still-eligible ready action in lane order.
	readySet := make(map[string]bool, len(ready))
	for _, name := range ready {
		readySet[name] = true
	}
	for _, name := range s.order {
		if !readySet[name] {
			continue
		}
		if _, skipped := decision.Skip[name]; skipped {
			continue
		}
		decision.Dispatch = []string{name}
		break
	}
	return decision
}

func (s *laneStrategy) firstFailure(view View) (string, bool) {
	for _, name := range s.order {
		switch view.Status(name) {
		case model.StatusFailure, model.StatusCancelled:
			return name, true
		}
	}
	return "", false
}
