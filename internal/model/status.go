package model

// Status is the execution state of a single action. Transitions are owned
// exclusively by the engine loop.
type Status string

const (
	// StatusPending means the action is enabled but not scheduled yet.
	StatusPending Status = "PENDING"
	// StatusReady means every dependency is terminal and the action awaits
	// a strategy decision.
	StatusReady Status = "READY"
	// StatusRunning means the action's runner is in flight.
	StatusRunning Status = "RUNNING"
	// StatusSuccess means the runner finished without errors.
	StatusSuccess Status = "SUCCESS"
	// StatusWarning means a low-severity action failed.
	StatusWarning Status = "WARNING"
	// StatusFailure means the runner reported an error, or rendering failed.
	StatusFailure Status = "FAILURE"
	// StatusSkipped means the action was withheld due to an ancestor outcome,
	// or skipped by its own runner.
	StatusSkipped Status = "SKIPPED"
	// StatusCancelled means the run was cancelled before the action finished.
	StatusCancelled Status = "CANCELLED"
	// StatusOmitted means the action was deselected during plan interaction.
	StatusOmitted Status = "OMITTED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusFailure, StatusSkipped, StatusCancelled, StatusOmitted:
		return true
	}
	return false
}

// Defective reports whether the status blocks strict dependents: the action
// either failed, was skipped, or finished with a warning.
func (s Status) Defective() bool {
	switch s {
	case StatusFailure, StatusWarning, StatusSkipped, StatusCancelled:
		return true
	}
	return false
}

// Severity controls how an action's failure is classified.
type Severity string

const (
	// SeverityNormal failures end in FAILURE.
	SeverityNormal Severity = "normal"
	// SeverityLow failures end in WARNING and do not fail the run.
	SeverityLow Severity = "low"
)

// ParseSeverity validates a severity literal.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityNormal, SeverityLow:
		return Severity(s), true
	}
	return "", false
}
