package model

// Dependency carries the attributes of a single dependency edge.
type Dependency struct {
	// Strict marks the edge as failure-propagating even under non-strict
	// strategies: a defective ancestor skips this action.
	Strict bool
	// External marks a dependency that may be absent from the workflow.
	// Missing external dependencies are pruned at graph build time instead
	// of failing validation.
	External bool
}

// Action is a single declared unit of work. Immutable once the graph is
// built; the engine tracks execution state separately.
type Action struct {
	// Name uniquely identifies the action within a workflow.
	Name string
	// Type selects the runner kind from the registry.
	Type string
	// Description is free-form and only used by displays.
	Description string
	// Params is the raw parameter payload. String leaves may contain
	// @{ ... } template expressions resolved right before dispatch.
	Params map[string]any
	// Expects maps dependency action names to their edge attributes.
	Expects map[string]Dependency
	// Outcomes lists the outcome keys this action declares it may produce.
	// Runners may still yield undeclared keys.
	Outcomes []string
	// Selectable controls whether the action appears in plan interaction.
	Selectable bool
	// Severity classifies this action's failures.
	Severity Severity
}
