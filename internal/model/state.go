// Application lifecycle state machine.
//
// Valid state graph:
//
//	Discovered ──► Scored ──► Eligible ──► Optimizing ──► Submitting ──► Applied ──► Tracked
//	     │            │                                        │
//	     └────────────┴──► Rejected                            └──► Failed ──► Tracked
//
// Rejected and Tracked are terminal. The Discovered → Rejected edge exists
// so pending postings can be swept straight to Rejected when the daily
// quota runs out mid-batch.
package model

import "fmt"

// State is one lifecycle state of an ApplicationRecord.
type State string

const (
	StateDiscovered State = "discovered"
	StateScored     State = "scored"
	StateEligible   State = "eligible"
	StateRejected   State = "rejected"
	StateOptimizing State = "optimizing"
	StateSubmitting State = "submitting"
	StateApplied    State = "applied"
	StateFailed     State = "failed"
	StateTracked    State = "tracked"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[State][]State{
	StateDiscovered: {StateScored, StateRejected},
	StateScored:     {StateEligible, StateRejected},
	StateEligible:   {StateOptimizing},
	StateOptimizing: {StateSubmitting},
	StateSubmitting: {StateApplied, StateFailed},
	StateApplied:    {StateTracked},
	StateFailed:     {StateTracked},
	// Rejected and Tracked are terminal — no outgoing transitions.
}

// ParseState converts a raw string to a State, returning an error for
// unknown values.
func ParseState(s string) (State, error) {
	st := State(s)
	switch st {
	case StateDiscovered, StateScored, StateEligible, StateRejected,
		StateOptimizing, StateSubmitting, StateApplied, StateFailed, StateTracked:
		return st, nil
	}
	return "", fmt.Errorf("unknown application state %q", s)
}

// TransitionAllowed returns true when moving from → to is permitted.
func TransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition leaves this state.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateTracked
}

// Active reports whether a record in this state still blocks a new
// application attempt for the same posting id.
func (s State) Active() bool {
	return !s.Terminal()
}
