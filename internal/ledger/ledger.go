// Package ledger implements the run-scoped outcome store: one write per
// (action, key) pair, performed by the engine when an action terminates,
// and concurrent reads from parameter rendering.
package ledger

import (
	"fmt"
	"sync"
)

// ConflictError reports a duplicate write to the same (action, key) pair.
// The engine never does this under normal operation, so hitting it means a
// broken invariant rather than a regular failure path.
type ConflictError struct {
	Action string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("outcome %q of action %q written twice", e.Key, e.Action)
}

// Ledger is a single-writer-per-key, many-readers outcome store.
type Ledger struct {
	mu       sync.RWMutex
	outcomes map[string]map[string]string
}

// New returns a ledger prefilled with an empty record per action name.
func New(names []string) *Ledger {
	l := &Ledger{outcomes: make(map[string]map[string]string, len(names))}
	for _, name := range names {
		l.outcomes[name] = make(map[string]string)
	}
	return l
}

// Put records one outcome value. Writing the same key twice returns a
// ConflictError.
func (l *Ledger) Put(action, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.outcomes[action]
	if !ok {
		record = make(map[string]string)
		l.outcomes[action] = record
	}
	if _, exists := record[key]; exists {
		return &ConflictError{Action: action, Key: key}
	}
	record[key] = value
	return nil
}

// Get returns the recorded value, if any. Non-blocking and safe to call
// from concurrently executing renders.
func (l *Ledger) Get(action, key string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	value, ok := l.outcomes[action][key]
	return value, ok
}

// Has reports whether the action has a record in the ledger at all.
func (l *Ledger) Has(action string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.outcomes[action]
	return ok
}

// Snapshot returns a deep copy of the whole store.
func (l *Ledger) Snapshot() map[string]map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snapshot := make(map[string]map[string]string, len(l.outcomes))
	for name, record := range l.outcomes {
		copied := make(map[string]string, len(record))
		for k, v := range record {
			copied[k] = v
		}
		snapshot[name] = copied
	}
	return snapshot
}
