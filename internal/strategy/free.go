package strategy

import "github.com/vk/grana/internal/graph"

func init() {
	MustRegister("free", func(g *graph.Graph) Strategy { return &freeStrategy{strictAll: true} })
	MustRegister("loose", func(g *graph.Graph) Strategy { return &freeStrategy{name: "loose"} })
}

// freeStrategy dispatches every ready action immediately, bounded only by
// the engine's global concurrency limit. Actions whose ancestry went wrong
// are skipped instead: under "free" any defective dependency blocks, under
// "loose" only edges declared strict do, so unrelated branches always run
// to their own completion.
type freeStrategy struct {
	name      string
	strictAll bool
}

func (s *freeStrategy) Name() string {
	if s.name != "" {
		return s.name
	}
	return "free"
}

func (s *freeStrategy) Plan(ready []string, view View) Decision {
	decision := Decision{Skip: make(map[string]string)}
	for _, name := range ready {
		if depName, blocked := BlockingDependency(view, name, s.strictAll); blocked {
			decision.Skip[name] = skipCause(depName)
			continue
		}
		decision.Dispatch = append(decision.Dispatch, name)
	}
	return decision
}
