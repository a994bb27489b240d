// Package app wires the application together: it owns the logger, the
// runner registry, workflow loading, strategy and display selection, and
// the engine lifecycle.
package app
