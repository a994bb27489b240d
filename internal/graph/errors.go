package graph

import (
	"fmt"
	"strings"
)

// ValidationKind discriminates the ways a descriptor set can be malformed.
type ValidationKind string

const (
	// KindDuplicateAction means two descriptors share a name.
	KindDuplicateAction ValidationKind = "DuplicateAction"
	// KindUnknownDependency means an action expects a name that is not in
	// the set and is not marked external.
	KindUnknownDependency ValidationKind = "UnknownDependency"
	// KindCycleDetected means no topological ordering exists.
	KindCycleDetected ValidationKind = "CycleDetected"
	// KindNoEntrypoints means every action has at least one dependency.
	KindNoEntrypoints ValidationKind = "NoEntrypoints"
)

// ValidationError is fatal to the whole run and is raised before any action
// is dispatched.
type ValidationError struct {
	Kind ValidationKind
	// Name is the offending action or dependency name, when applicable.
	Name string
	// Cycle holds one reproducible cycle for KindCycleDetected, listed in
	// dependency order with the first node repeated at the end.
	Cycle []string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindDuplicateAction:
		return fmt.Sprintf("action declared twice: %q", e.Name)
	case KindUnknownDependency:
		return fmt.Sprintf("missing action among dependencies: %q", e.Name)
	case KindCycleDetected:
		return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
	case KindNoEntrypoints:
		return "no entrypoints for the workflow"
	}
	return fmt.Sprintf("workflow validation failed: %s", string(e.Kind))
}
