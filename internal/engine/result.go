package engine

import (
	"time"

	"github.com/vk/grana/internal/model"
)

// Verdict is the aggregate outcome of one run.
type Verdict string

const (
	// VerdictSuccess means no action failed and the run was not cancelled.
	VerdictSuccess Verdict = "SUCCESS"
	// VerdictFailure means at least one action ended in FAILURE.
	VerdictFailure Verdict = "FAILURE"
	// VerdictCancelled means the run was cancelled before completion.
	VerdictCancelled Verdict = "CANCELLED"
)

// Result is the immutable final snapshot of a run.
type Result struct {
	// RunID uniquely identifies this run.
	RunID string
	// Verdict is the aggregate outcome.
	Verdict Verdict
	// States maps every action to its terminal status.
	States map[string]model.Status
	// Causes maps failed, skipped and cancelled actions to a reason.
	Causes map[string]string
	// Outcomes is the final ledger snapshot.
	Outcomes map[string]map[string]string
	// StartedAt and FinishedAt frame the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the run did not succeed.
func (r *Result) Failed() bool {
	return r.Verdict != VerdictSuccess
}
