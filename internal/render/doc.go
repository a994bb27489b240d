// Package render resolves @{ ... } template expressions inside action
// parameters right before dispatch. Expressions are dotted paths over four
// namespaces: outcomes (aliased out), status, context (aliased ctx), and
// environment (aliased env). Outcome lookups honor the run's strict or
// lenient policy; environment lookups are always lenient.
package render
