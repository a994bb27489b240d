package bundled

import (
	"github.com/vk/grana/internal/action"
)

// Options tunes the bundled runner kinds.
type Options struct {
	InjectServiceFunctions bool
}

// Register adds every bundled kind to the registry.
func Register(r *action.Registry, opts Options) error {
	kinds := map[string]action.Factory{
		"echo":         func() action.Runner { return Echo{} },
		"shell":        func() action.Runner { return Shell{InjectServiceFunctions: opts.InjectServiceFunctions} },
		"docker-shell": func() action.Runner { return DockerShell{InjectServiceFunctions: opts.InjectServiceFunctions} },
		"http":         func() action.Runner { return HTTP{} },
	}
	for name, factory := range kinds {
		if err := r.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}
