package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/grana/internal/ctxlog"
	"github.com/vk/grana/internal/graph"
	"github.com/vk/grana/internal/loader"
)

// loadWorkflow resolves the workflow source and parses it. The source is
// the configured path, "-" for the standard input, or empty to look up a
// well-known file name in the current directory.
func (a *App) loadWorkflow(ctx context.Context, stdin io.Reader) (*loader.Workflow, error) {
	source := a.config.WorkflowSource
	if source == "-" {
		ctxlog.FromContext(ctx).Debug("reading workflow from stdin")
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &loader.SourceError{Message: err.Error()}
		}
		return loader.NewYAML().Loads(data)
	}
	if source == "" {
		detected, err := loader.Detect(".", func(path string) bool {
			_, statErr := os.Stat(path)
			return statErr == nil
		})
		if err != nil {
			return nil, err
		}
		source = detected
	}
	ctxlog.FromContext(ctx).Debug("loading workflow", "source", source)
	ldr, err := loader.ForSource(source)
	if err != nil {
		return nil, err
	}
	return ldr.Load(source)
}

// buildGraph validates declared runner kinds and assembles the dependency
// graph.
func (a *App) buildGraph(workflow *loader.Workflow) (*graph.Graph, error) {
	for _, act := range workflow.Actions {
		if _, ok := a.registry.Lookup(act.Type); !ok {
			return nil, &loader.LoadError{
				Message: fmt.Sprintf("unknown action type %q for action %q (known: %v)",
					act.Type, act.Name, a.registry.Names()),
			}
		}
	}
	return graph.Build(workflow.Actions)
}
