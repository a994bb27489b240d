package action

import (
	"fmt"
	"sort"
)

// Factory builds a fresh Runner for one dispatch.
type Factory func() Runner

// Registry maps action kind names to runner factories. Kinds are registered
// at startup (bundled kinds plus dynamically discovered ones); registering
// the same name twice is a programmer error and is rejected.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a runner kind.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("runner kind %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Override replaces a runner kind, registering it if absent. Used by
// dynamically loaded definitions, which shadow bundled kinds of the
// same name.
func (r *Registry) Override(name string, factory Factory) {
	r.factories[name] = factory
}

// Lookup resolves a kind name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	factory, ok := r.factories[name]
	return factory, ok
}

// Names returns all registered kind names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
