// Package engine drives a workflow run to completion. The engine loop is
// the sole mutator of per-action state and the only ledger writer: runner
// bodies execute concurrently, but every transition and every outcome write
// funnels through the loop via a completion channel, which keeps the state
// machine race-free without locking. Scheduling decisions are delegated to
// the configured strategy; cancellation is cooperative, with a bounded
// grace period for in-flight runners.
package engine
