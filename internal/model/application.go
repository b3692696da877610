package model

import (
	"context"
	"fmt"
	"time"
)

// Rejection and failure reasons recorded on ApplicationRecord.
const (
	ReasonBelowThreshold = "below threshold"
	ReasonQuotaExhausted = "quota exhausted"
	ReasonDuplicate      = "duplicate"
	ReasonInvalidData    = "invalid data"
)

// StateChange is one entry in a record's transition log.
type StateChange struct {
	To State     `json:"to"`
	At time.Time `json:"at"`
}

// SubmissionResult is the outcome reported by a submission channel.
// Attempts is populated by retrying wrappers; the bare channel leaves it zero.
type SubmissionResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

// ApplicationRecord tracks one application attempt for one posting. It is
// owned exclusively by the orchestrator: created when a posting first enters
// the gate, updated only through Transition, never deleted.
type ApplicationRecord struct {
	ID          string              `json:"id"` // unique per attempt
	PostingID   string              `json:"posting_id"`
	State       State               `json:"state"`
	Score       *CompatibilityScore `json:"score,omitempty"`       // snapshot at decision time
	Fingerprint string              `json:"fingerprint,omitempty"` // resume fingerprint used for the score
	ResumeRef   string              `json:"resume_ref,omitempty"`  // optimized-resume handle, empty when unmodified
	Result      *SubmissionResult   `json:"result,omitempty"`
	Reason      string              `json:"reason,omitempty"` // rejection or failure reason
	RetryCount  int                 `json:"retry_count"`
	Transitions []StateChange       `json:"transitions"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewApplicationRecord creates a record in the Discovered state.
func NewApplicationRecord(id, postingID string, now time.Time) *ApplicationRecord {
	return &ApplicationRecord{
		ID:          id,
		PostingID:   postingID,
		State:       StateDiscovered,
		Transitions: []StateChange{{To: StateDiscovered, At: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition advances the record to the given state, validating the move
// against the lifecycle graph. Entering Applied twice is a logic error:
// an affirmative submission must never be double-counted.
func (r *ApplicationRecord) Transition(to State, now time.Time) error {
	if to == StateApplied && r.HasReached(StateApplied) {
		return ErrAlreadyApplied
	}
	if !TransitionAllowed(r.State, to) {
		return fmt.Errorf("invalid transition %s → %s for record %s", r.State, to, r.ID)
	}
	r.State = to
	r.Transitions = append(r.Transitions, StateChange{To: to, At: now})
	r.UpdatedAt = now
	return nil
}

// HasReached reports whether the record's transition log contains the state.
func (r *ApplicationRecord) HasReached(s State) bool {
	for _, t := range r.Transitions {
		if t.To == s {
			return true
		}
	}
	return false
}

// ReachedAt returns the time the record first entered the state, or the
// zero time if it never did.
func (r *ApplicationRecord) ReachedAt(s State) time.Time {
	for _, t := range r.Transitions {
		if t.To == s {
			return t.At
		}
	}
	return time.Time{}
}

// OptimizeLevel controls how aggressively the optimization service rewrites
// a resume.
type OptimizeLevel string

const (
	OptimizeLight      OptimizeLevel = "light"
	OptimizeModerate   OptimizeLevel = "moderate"
	OptimizeAggressive OptimizeLevel = "aggressive"
)

// OptimizeRequest asks the optimization service for a tailored resume.
type OptimizeRequest struct {
	ResumeText  string
	PostingText string
	Level       OptimizeLevel
	Gaps        []string // missing skills worth emphasizing, may be empty
}

// OptimizedResume is an opaque handle plus the rewritten text.
type OptimizedResume struct {
	Ref  string // opaque handle for the stored document
	Text string
}

// Optimizer produces a tailored resume for one posting. Failures are
// best-effort: the orchestrator falls back to the unmodified resume.
type Optimizer interface {
	Optimize(ctx context.Context, req OptimizeRequest) (OptimizedResume, error)
}

// Submission is one application submission through the channel.
type Submission struct {
	AttemptID   string // unique per submission attempt
	Posting     Posting
	ResumeRef   string // optimized-resume handle, empty when unmodified
	ResumeText  string
	CoverLetter string
}

// SubmissionChannel submits an application on the target platform. The
// channel represents a single authenticated session: callers serialize
// access. "Already applied" is an accepted outcome, not an error.
type SubmissionChannel interface {
	Submit(ctx context.Context, sub Submission) (SubmissionResult, error)
}
