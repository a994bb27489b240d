// Package strategy hosts the pluggable scheduling policies. A strategy
// never mutates run state: given the ready set and a read-only view of the
// run, it decides which actions to dispatch now, which to skip because of
// ancestor outcomes, and which to defer. Strategies are selected by name
// from a registry, so alternate policies plug in without engine changes.
package strategy
