package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/applyflow/applyflow/internal/gate"
	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/profile"
	"github.com/applyflow/applyflow/internal/scorer"
	"github.com/applyflow/applyflow/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const resumeText = "Go engineer with Kubernetes, Docker, and PostgreSQL experience. Leadership and communication. 8 years of experience."

func goodPosting(id string) model.Posting {
	return model.Posting{
		ID:          id,
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    "Remote",
		Description: "Go engineer with Kubernetes, Docker, and PostgreSQL experience. Leadership and communication.",
	}
}

func weakPosting(id string) model.Posting {
	return model.Posting{
		ID:          id,
		Title:       "Staff Engineer",
		Company:     "Other Corp",
		Description: "Rust and Cassandra work. Principal engineer, 10+ years of experience required.",
	}
}

// stubChannel records submissions and answers with fn, accepting by default.
type stubChannel struct {
	mu   sync.Mutex
	subs []model.Submission
	fn   func(sub model.Submission) (model.SubmissionResult, error)
}

func (c *stubChannel) Submit(_ context.Context, sub model.Submission) (model.SubmissionResult, error) {
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	if c.fn != nil {
		return c.fn(sub)
	}
	return model.SubmissionResult{Accepted: true}, nil
}

func (c *stubChannel) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// stubOptimizer returns a fixed rewrite, or fails.
type stubOptimizer struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (o *stubOptimizer) Optimize(_ context.Context, req model.OptimizeRequest) (model.OptimizedResume, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	if o.err != nil {
		return model.OptimizedResume{}, o.err
	}
	text := o.text
	if text == "" {
		text = req.ResumeText
	}
	return model.OptimizedResume{Ref: "resume-ref-1", Text: text}, nil
}

func newTestOrchestrator(st model.Store, g *gate.Gate, opt model.Optimizer, ch model.SubmissionChannel) *Orchestrator {
	builder := profile.NewBuilder()
	bundle := NewResumeBundle(builder, resumeText, "Dear hiring team.")
	return New(st, builder, scorer.New(4), g, opt, ch, bundle, model.OptimizeModerate, nil, discardLogger())
}

func TestProcessPostingApplied(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{}
	opt := &stubOptimizer{text: "Tailored resume."}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), opt, ch)

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatalf("ProcessPosting: %v", err)
	}

	if rec.State != model.StateTracked {
		t.Fatalf("state = %s, want tracked (reason %q)", rec.State, rec.Reason)
	}
	if !rec.HasReached(model.StateApplied) {
		t.Error("record never reached applied")
	}
	if rec.Score == nil || rec.Score.Overall < 0.70 {
		t.Errorf("score = %+v, want overall >= 0.70", rec.Score)
	}
	if rec.ResumeRef != "resume-ref-1" {
		t.Errorf("resume ref = %q", rec.ResumeRef)
	}

	wantPath := []model.State{
		model.StateDiscovered, model.StateScored, model.StateEligible,
		model.StateOptimizing, model.StateSubmitting, model.StateApplied, model.StateTracked,
	}
	var gotPath []model.State
	for _, tr := range rec.Transitions {
		gotPath = append(gotPath, tr.To)
	}
	if !reflect.DeepEqual(gotPath, wantPath) {
		t.Errorf("transitions = %v, want %v", gotPath, wantPath)
	}

	if ch.calls() != 1 {
		t.Fatalf("channel called %d times, want 1", ch.calls())
	}
	sub := ch.subs[0]
	if sub.ResumeText != "Tailored resume." {
		t.Errorf("submitted resume = %q, want the optimized text", sub.ResumeText)
	}
	if sub.CoverLetter == "" {
		t.Error("cover letter missing from submission")
	}

	day := model.QuotaDay(time.Now())
	if consumed, _ := st.QuotaConsumed(day); consumed != 1 {
		t.Errorf("quota consumed = %d, want 1", consumed)
	}

	// The record in the store matches what was returned.
	stored, err := st.GetRecord(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.State != model.StateTracked {
		t.Errorf("stored record = %+v", stored)
	}
}

func TestProcessPostingBelowThreshold(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{}
	opt := &stubOptimizer{}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), opt, ch)

	rec, err := o.ProcessPosting(context.Background(), weakPosting("posting-1"))
	if err != nil {
		t.Fatalf("ProcessPosting: %v", err)
	}

	if rec.State != model.StateRejected {
		t.Fatalf("state = %s, want rejected", rec.State)
	}
	if rec.Reason != model.ReasonBelowThreshold {
		t.Errorf("reason = %q, want below threshold", rec.Reason)
	}
	if rec.Score == nil {
		t.Error("rejected-by-score record should keep its score")
	}
	if opt.calls != 0 {
		t.Errorf("optimizer called %d times for a rejected posting", opt.calls)
	}
	if ch.calls() != 0 {
		t.Errorf("channel called %d times for a rejected posting", ch.calls())
	}
}

func TestProcessPostingInvalidData(t *testing.T) {
	st := store.NewMemStore()
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, &stubChannel{})

	posting := goodPosting("posting-1")
	posting.Description = "   "
	rec, err := o.ProcessPosting(context.Background(), posting)
	if err != nil {
		t.Fatalf("invalid posting must not abort the batch: %v", err)
	}
	if rec.State != model.StateRejected || rec.Reason != model.ReasonInvalidData {
		t.Errorf("state=%s reason=%q, want rejected/invalid data", rec.State, rec.Reason)
	}
	if rec.Score != nil {
		t.Errorf("invalid posting was scored: %+v", rec.Score)
	}
}

func TestProcessPostingDuplicateActive(t *testing.T) {
	st := store.NewMemStore()
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, &stubChannel{})

	// An in-flight attempt already exists for this posting.
	prior := model.NewApplicationRecord("attempt-old", "posting-1", time.Now().Add(-time.Minute))
	if err := st.PutRecord(prior); err != nil {
		t.Fatal(err)
	}

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateRejected || rec.Reason != model.ReasonDuplicate {
		t.Errorf("state=%s reason=%q, want rejected/duplicate", rec.State, rec.Reason)
	}
}

func TestProcessPostingReapplyCooldown(t *testing.T) {
	terminal := func(st model.Store) {
		prior := model.NewApplicationRecord("attempt-old", "posting-1", time.Now().Add(-time.Hour))
		if err := prior.Transition(model.StateRejected, time.Now().Add(-time.Hour)); err != nil {
			panic(err)
		}
		if err := st.PutRecord(prior); err != nil {
			panic(err)
		}
	}

	t.Run("within cooldown", func(t *testing.T) {
		st := store.NewMemStore()
		terminal(st)
		o := newTestOrchestrator(st, gate.New(0.70, 10, 30*24*time.Hour), &stubOptimizer{}, &stubChannel{})

		rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
		if err != nil {
			t.Fatal(err)
		}
		if rec.State != model.StateRejected || rec.Reason != model.ReasonDuplicate {
			t.Errorf("state=%s reason=%q, want rejected/duplicate", rec.State, rec.Reason)
		}
	})

	t.Run("zero cooldown re-enters", func(t *testing.T) {
		st := store.NewMemStore()
		terminal(st)
		o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, &stubChannel{})

		rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
		if err != nil {
			t.Fatal(err)
		}
		if rec.State != model.StateTracked {
			t.Errorf("state = %s (reason %q), want tracked", rec.State, rec.Reason)
		}
	})
}

func TestReapplyCooldownNotResetByDuplicateRejections(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 30*24*time.Hour), &stubOptimizer{}, ch)

	base := time.Now()
	onDay := func(n int) {
		o.now = func() time.Time { return base.Add(time.Duration(n) * 24 * time.Hour) }
	}

	// Day 0: the posting is applied to.
	onDay(0)
	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateTracked {
		t.Fatalf("day 0 state = %s (reason %q), want tracked", rec.State, rec.Reason)
	}

	// Day 15: re-seen inside the cool-down, swept as a duplicate.
	onDay(15)
	rec, err = o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateRejected || rec.Reason != model.ReasonDuplicate {
		t.Fatalf("day 15 state=%s reason=%q, want rejected/duplicate", rec.State, rec.Reason)
	}

	// Day 44: the day-0 terminal record is past the 30-day cool-down. The
	// day-15 duplicate sweep must not have restarted the clock.
	onDay(44)
	rec, err = o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateTracked {
		t.Fatalf("day 44 state = %s (reason %q), want re-entry and tracked", rec.State, rec.Reason)
	}
	if ch.calls() != 2 {
		t.Errorf("channel called %d times, want 2 submissions", ch.calls())
	}
}

func TestProcessPostingQuotaExhaustedFastPath(t *testing.T) {
	st := store.NewMemStore()
	o := newTestOrchestrator(st, gate.New(0.70, 1, 0), &stubOptimizer{}, &stubChannel{})

	day := model.QuotaDay(time.Now())
	if ok, err := st.ConsumeQuota(day, 1); err != nil || !ok {
		t.Fatalf("seeding quota: ok=%v err=%v", ok, err)
	}

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateRejected || rec.Reason != model.ReasonQuotaExhausted {
		t.Errorf("state=%s reason=%q, want rejected/quota exhausted", rec.State, rec.Reason)
	}
	// The fast path sweeps before scoring.
	if rec.Score != nil {
		t.Errorf("quota-swept record was scored: %+v", rec.Score)
	}
}

func TestProcessPostingOptimizerFailureFallsBack(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{}
	opt := &stubOptimizer{err: errors.New("provider down")}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), opt, ch)

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != model.StateTracked || !rec.HasReached(model.StateApplied) {
		t.Fatalf("state = %s, want applied despite optimizer failure", rec.State)
	}
	if rec.ResumeRef != "" {
		t.Errorf("resume ref = %q, want empty for unmodified resume", rec.ResumeRef)
	}
	if ch.subs[0].ResumeText != resumeText {
		t.Errorf("submitted %q, want the unmodified resume", ch.subs[0].ResumeText)
	}
}

func TestProcessPostingSubmissionError(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{fn: func(model.Submission) (model.SubmissionResult, error) {
		return model.SubmissionResult{}, errors.New("form changed")
	}}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, ch)

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatalf("non-auth submission error must not abort the batch: %v", err)
	}
	if rec.State != model.StateTracked || !rec.HasReached(model.StateFailed) {
		t.Errorf("state = %s, want failed then tracked", rec.State)
	}
	if rec.HasReached(model.StateApplied) {
		t.Error("failed submission must not count as applied")
	}
	if rec.Reason == "" {
		t.Error("failure reason missing")
	}
	day := model.QuotaDay(time.Now())
	if consumed, _ := st.QuotaConsumed(day); consumed != 0 {
		t.Errorf("quota consumed = %d after a failed submission, want 0", consumed)
	}
}

func TestProcessPostingAuthErrorAbortsBatch(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{fn: func(model.Submission) (model.SubmissionResult, error) {
		return model.SubmissionResult{}, &model.AuthError{Service: "platform", Err: errors.New("session expired")}
	}}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, ch)

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err == nil {
		t.Fatal("auth error must propagate to abort the batch")
	}
	if !model.IsAuth(err) {
		t.Errorf("returned error %v does not unwrap to an auth error", err)
	}
	if rec == nil || !rec.HasReached(model.StateFailed) {
		t.Errorf("record = %+v, want failed", rec)
	}
}

func TestProcessPostingRejectedByChannel(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{fn: func(model.Submission) (model.SubmissionResult, error) {
		return model.SubmissionResult{Accepted: false, Reason: "listing closed"}, nil
	}}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, ch)

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !rec.HasReached(model.StateFailed) || rec.Reason != "listing closed" {
		t.Errorf("state=%s reason=%q, want failed/listing closed", rec.State, rec.Reason)
	}
}

func TestProcessPostingRecordsRetryCount(t *testing.T) {
	st := store.NewMemStore()
	ch := &stubChannel{fn: func(model.Submission) (model.SubmissionResult, error) {
		return model.SubmissionResult{Accepted: true, Attempts: 3}, nil
	}}
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, ch)

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2 for 3 attempts", rec.RetryCount)
	}
}

func TestProcessPostingUsesScoreCache(t *testing.T) {
	st := store.NewMemStore()
	o := newTestOrchestrator(st, gate.New(0.70, 10, 0), &stubOptimizer{}, &stubChannel{})

	// Pre-seed the cache for this posting and resume fingerprint; the
	// orchestrator must use it instead of rescoring.
	cached := &model.CompatibilityScore{Overall: 0.99, Tier: model.TierHighlyRecommended}
	if err := st.PutScore("posting-1", o.resume.Fingerprint, cached); err != nil {
		t.Fatal(err)
	}

	rec, err := o.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Score == nil || rec.Score.Overall != 0.99 {
		t.Errorf("score = %+v, want the cached 0.99", rec.Score)
	}
	if rec.Fingerprint != o.resume.Fingerprint {
		t.Errorf("fingerprint = %q, want the resume fingerprint", rec.Fingerprint)
	}
}

func TestProcessPostingScoreIsReproducible(t *testing.T) {
	stA := store.NewMemStore()
	stB := store.NewMemStore()
	a := newTestOrchestrator(stA, gate.New(0.70, 10, 0), &stubOptimizer{}, &stubChannel{})
	b := newTestOrchestrator(stB, gate.New(0.70, 10, 0), &stubOptimizer{}, &stubChannel{})

	recA, err := a.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	recB, err := b.ProcessPosting(context.Background(), goodPosting("posting-1"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(recA.Score, recB.Score) {
		t.Errorf("scores differ across runs:\n%+v\n%+v", recA.Score, recB.Score)
	}
}

func TestProcessPostingConcurrentQuota(t *testing.T) {
	st := store.NewMemStore()
	const maxPerDay = 2
	o := newTestOrchestrator(st, gate.New(0.70, maxPerDay, 0), &stubOptimizer{}, &stubChannel{})

	ids := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := o.ProcessPosting(context.Background(), goodPosting(id)); err != nil {
				t.Errorf("ProcessPosting(%s): %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	records, err := st.ListRecords(model.HistoryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	applied, quotaRejected := 0, 0
	for _, r := range records {
		if r.HasReached(model.StateApplied) {
			applied++
		}
		if r.State == model.StateRejected && r.Reason == model.ReasonQuotaExhausted {
			quotaRejected++
		}
	}
	if applied != maxPerDay {
		t.Errorf("applied = %d, want exactly %d", applied, maxPerDay)
	}
	if quotaRejected != len(ids)-maxPerDay {
		t.Errorf("quota rejections = %d, want %d", quotaRejected, len(ids)-maxPerDay)
	}

	day := model.QuotaDay(time.Now())
	if consumed, _ := st.QuotaConsumed(day); consumed != maxPerDay {
		t.Errorf("quota consumed = %d, want %d", consumed, maxPerDay)
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Now()
	mk := func(id string, path ...model.State) model.ApplicationRecord {
		r := model.NewApplicationRecord(id, "posting-"+id, now)
		for _, s := range path {
			if err := r.Transition(s, now); err != nil {
				t.Fatalf("building record %s: %v", id, err)
			}
		}
		return *r
	}

	records := []model.ApplicationRecord{
		mk("a", model.StateScored, model.StateEligible, model.StateOptimizing, model.StateSubmitting, model.StateApplied, model.StateTracked),
		mk("b", model.StateScored, model.StateEligible, model.StateOptimizing, model.StateSubmitting, model.StateFailed, model.StateTracked),
		mk("c", model.StateScored, model.StateRejected),
		mk("d", model.StateScored),
	}

	s := ComputeStats(records)
	if s.Total != 4 {
		t.Errorf("total = %d, want 4", s.Total)
	}
	if s.Applied != 1 || s.Failed != 1 || s.Rejected != 1 {
		t.Errorf("applied=%d failed=%d rejected=%d, want 1/1/1", s.Applied, s.Failed, s.Rejected)
	}
	if s.SuccessRate != 0.5 {
		t.Errorf("success rate = %v, want 0.5", s.SuccessRate)
	}
	if s.ByState[model.StateTracked] != 2 || s.ByState[model.StateScored] != 1 {
		t.Errorf("by state = %v", s.ByState)
	}

	if empty := ComputeStats(nil); empty.SuccessRate != 0 {
		t.Errorf("empty success rate = %v, want 0", empty.SuccessRate)
	}
}
