// Package graph builds and validates the immutable dependency graph of a
// workflow. Build rejects duplicate names, references to unknown actions,
// and cycles; after a successful Build the graph is read-only, so the
// scheduler and strategies share it without locking.
package graph
