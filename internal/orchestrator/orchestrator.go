// Package orchestrator drives an application attempt through its lifecycle:
// discover → score → gate → optimize → submit → track. It owns every
// ApplicationRecord write; nothing else mutates records.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/applyflow/applyflow/internal/gate"
	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/profile"
	"github.com/applyflow/applyflow/internal/scorer"
)

// ResumeBundle carries everything derived from the candidate's resume once
// per process: the raw text, the profile vector, its fingerprint, and the
// optional cover letter.
type ResumeBundle struct {
	Text        string
	CoverLetter string
	Vector      model.ProfileVector
	Fingerprint string
}

// NewResumeBundle builds the resume-side profile once so every posting is
// scored against the same vector and fingerprint.
func NewResumeBundle(builder *profile.Builder, resumeText, coverLetter string) ResumeBundle {
	vec := builder.Build(resumeText, model.KindResume)
	return ResumeBundle{
		Text:        resumeText,
		CoverLetter: coverLetter,
		Vector:      vec,
		Fingerprint: vec.Fingerprint(),
	}
}

// Orchestrator wires the scorer, gate, optimizer, and submission channel
// around the persistent store.
type Orchestrator struct {
	store     model.Store
	builder   *profile.Builder
	scorer    *scorer.Scorer
	gate      *gate.Gate
	optimizer model.Optimizer
	channel   model.SubmissionChannel
	resume    ResumeBundle
	level     model.OptimizeLevel
	mustHaves []string
	logger    *slog.Logger

	// submitMu serializes the gate decision through submission. The channel
	// is a single authenticated session, and holding the lock across the
	// quota check and the quota increment keeps the daily cap exact.
	submitMu sync.Mutex

	now func() time.Time // swapped in tests
}

// New creates an orchestrator wired with all its dependencies.
func New(
	store model.Store,
	builder *profile.Builder,
	scr *scorer.Scorer,
	g *gate.Gate,
	optimizer model.Optimizer,
	channel model.SubmissionChannel,
	resume ResumeBundle,
	level model.OptimizeLevel,
	mustHaves []string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		builder:   builder,
		scorer:    scr,
		gate:      g,
		optimizer: optimizer,
		channel:   channel,
		resume:    resume,
		level:     level,
		mustHaves: mustHaves,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessPosting runs one posting through the full lifecycle and returns its
// record. The record is returned even on failure so callers can report it;
// the error is non-nil only for faults that should abort the whole batch
// (authentication failures, store faults).
func (o *Orchestrator) ProcessPosting(ctx context.Context, posting model.Posting) (*model.ApplicationRecord, error) {
	now := o.now()
	if posting.FirstSeenAt.IsZero() {
		posting.FirstSeenAt = now
	}
	if posting.LastSeenAt.IsZero() {
		posting.LastSeenAt = now
	}

	// Malformed postings are quarantined, never fatal.
	if err := posting.Validate(); err != nil {
		o.logger.Warn("quarantining invalid posting", "posting_id", posting.ID, "error", err)
		rec := model.NewApplicationRecord(uuid.NewString(), posting.ID, now)
		return o.reject(rec, model.ReasonInvalidData)
	}

	if err := o.store.PutPosting(posting); err != nil {
		return nil, fmt.Errorf("processing %s: %w", posting.ID, err)
	}

	// Snapshot prior records before creating this attempt, so the duplicate
	// check never sees the record it is deciding.
	active, err := o.store.ActiveRecord(posting.ID)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", posting.ID, err)
	}
	latest, err := o.cooldownRecord(posting.ID)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", posting.ID, err)
	}

	rec := model.NewApplicationRecord(uuid.NewString(), posting.ID, o.now())
	if err := o.store.PutRecord(rec); err != nil {
		return nil, fmt.Errorf("processing %s: %w", posting.ID, err)
	}

	// When today's quota is already gone, sweep straight to Rejected without
	// spending scorer or optimizer work.
	day := model.QuotaDay(o.now())
	consumed, err := o.store.QuotaConsumed(day)
	if err != nil {
		return rec, fmt.Errorf("processing %s: %w", posting.ID, err)
	}
	if o.gate.QuotaExhausted(consumed) {
		return o.reject(rec, model.ReasonQuotaExhausted)
	}

	score, err := o.scoreFor(posting)
	if err != nil {
		return rec, fmt.Errorf("processing %s: %w", posting.ID, err)
	}
	rec.Score = score
	rec.Fingerprint = o.resume.Fingerprint
	if err := o.advance(rec, model.StateScored); err != nil {
		return rec, err
	}

	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	// Re-read the quota under the lock; the earlier read was only a fast
	// path and another worker may have applied since.
	consumed, err = o.store.QuotaConsumed(day)
	if err != nil {
		return rec, fmt.Errorf("processing %s: %w", posting.ID, err)
	}
	decision := o.gate.Decide(score.Overall, consumed, active, latest, o.now())
	if !decision.Eligible {
		return o.reject(rec, decision.Reason)
	}
	if err := o.advance(rec, model.StateEligible); err != nil {
		return rec, err
	}

	resumeText := o.optimize(ctx, rec, posting, score)

	if err := o.advance(rec, model.StateSubmitting); err != nil {
		return rec, err
	}

	result, err := o.channel.Submit(ctx, model.Submission{
		AttemptID:   rec.ID,
		Posting:     posting,
		ResumeRef:   rec.ResumeRef,
		ResumeText:  resumeText,
		CoverLetter: o.resume.CoverLetter,
	})
	if result.Attempts > 1 {
		rec.RetryCount = result.Attempts - 1
	}
	if err != nil {
		rec.Reason = err.Error()
		if ferr := o.fail(rec); ferr != nil {
			return rec, ferr
		}
		if model.IsAuth(err) {
			// The session is dead; every further submission would fail the
			// same way. Abort the batch.
			return rec, fmt.Errorf("processing %s: %w", posting.ID, err)
		}
		o.logger.Error("submission failed", "posting_id", posting.ID, "error", err)
		return rec, nil
	}

	rec.Result = &result
	if !result.Accepted {
		rec.Reason = result.Reason
		if ferr := o.fail(rec); ferr != nil {
			return rec, ferr
		}
		return rec, nil
	}

	if err := o.advance(rec, model.StateApplied); err != nil {
		return rec, err
	}
	ok, err := o.store.ConsumeQuota(day, o.gate.MaxPerDay)
	if err != nil {
		return rec, fmt.Errorf("processing %s: %w", posting.ID, err)
	}
	if !ok {
		// Cannot happen while this process is the only writer; the gate
		// checked the counter under the same lock.
		o.logger.Error("quota counter full after accepted submission", "posting_id", posting.ID)
	}
	if err := o.advance(rec, model.StateTracked); err != nil {
		return rec, err
	}

	o.logger.Info("application submitted",
		"posting_id", posting.ID,
		"title", posting.Title,
		"company", posting.Company,
		"score", score.Overall,
		"tier", score.Tier,
		"attempts", result.Attempts,
	)
	return rec, nil
}

// cooldownRecord returns the posting's most recent record that was not
// itself a duplicate rejection. Duplicate rejections must not restart the
// reapply cool-down: a posting the source returns every day would otherwise
// never age past the window once rejected.
func (o *Orchestrator) cooldownRecord(postingID string) (*model.ApplicationRecord, error) {
	records, err := o.store.ListRecords(model.HistoryFilter{PostingID: postingID})
	if err != nil {
		return nil, err
	}
	for i := range records {
		r := records[i]
		if r.State == model.StateRejected && r.Reason == model.ReasonDuplicate {
			continue
		}
		return &r, nil
	}
	return nil, nil
}

// scoreFor returns the compatibility score for a posting, reusing the cached
// result when the resume fingerprint is unchanged. Cached scores are
// bit-identical to fresh ones.
func (o *Orchestrator) scoreFor(posting model.Posting) (*model.CompatibilityScore, error) {
	cached, err := o.store.GetScore(posting.ID, o.resume.Fingerprint)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	vec := o.builder.Build(posting.Description, model.KindPosting)
	score := o.scorer.Score(o.resume.Vector, vec, o.mustHaves)
	if err := o.store.PutScore(posting.ID, o.resume.Fingerprint, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// optimize runs the optimizer and returns the resume text to submit. Any
// optimizer failure falls back to the unmodified resume; the attempt
// proceeds either way.
func (o *Orchestrator) optimize(ctx context.Context, rec *model.ApplicationRecord, posting model.Posting, score *model.CompatibilityScore) string {
	if err := o.advance(rec, model.StateOptimizing); err != nil {
		o.logger.Error("persisting optimizing state", "posting_id", posting.ID, "error", err)
		return o.resume.Text
	}

	gaps := append(append([]string{}, score.MustHave.Missing...), score.Technical.Missing...)
	res, err := o.optimizer.Optimize(ctx, model.OptimizeRequest{
		ResumeText:  o.resume.Text,
		PostingText: posting.Description,
		Level:       o.level,
		Gaps:        gaps,
	})
	if err != nil {
		o.logger.Warn("optimization failed, submitting unmodified resume",
			"posting_id", posting.ID, "error", err)
		return o.resume.Text
	}
	rec.ResumeRef = res.Ref
	if res.Text == "" {
		return o.resume.Text
	}
	return res.Text
}

// advance transitions the record and persists it.
func (o *Orchestrator) advance(rec *model.ApplicationRecord, to model.State) error {
	if err := rec.Transition(to, o.now()); err != nil {
		return err
	}
	if err := o.store.PutRecord(rec); err != nil {
		return fmt.Errorf("persisting record %s: %w", rec.ID, err)
	}
	return nil
}

// reject moves the record to Rejected with a reason and persists it.
func (o *Orchestrator) reject(rec *model.ApplicationRecord, reason string) (*model.ApplicationRecord, error) {
	rec.Reason = reason
	if err := o.advance(rec, model.StateRejected); err != nil {
		return rec, err
	}
	o.logger.Info("posting rejected", "posting_id", rec.PostingID, "reason", reason)
	return rec, nil
}

// fail moves the record through Failed to Tracked.
func (o *Orchestrator) fail(rec *model.ApplicationRecord) error {
	if err := o.advance(rec, model.StateFailed); err != nil {
		return err
	}
	return o.advance(rec, model.StateTracked)
}

// QueryHistory returns application records matching the filter, newest
// first.
func (o *Orchestrator) QueryHistory(_ context.Context, f model.HistoryFilter) ([]model.ApplicationRecord, error) {
	records, err := o.store.ListRecords(f)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return records, nil
}
