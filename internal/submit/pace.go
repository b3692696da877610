package submit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

// Pacer enforces a minimum delay between consecutive submissions. The target
// platform treats rapid-fire applications as abuse, so every channel shares
// one pacer.
type Pacer struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewPacer creates a pacer that enforces minDelay between submissions.
func NewPacer(minDelay time.Duration) *Pacer {
	return &Pacer{minDelay: minDelay}
}

// Wait blocks until enough time has passed since the last submission.
// Returns an error if the context is cancelled while waiting.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()

	if p.lastCall.IsZero() {
		// First submission, no wait needed.
		p.lastCall = now
		p.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(p.lastCall)
	if elapsed >= p.minDelay {
		p.lastCall = now
		p.mu.Unlock()
		return nil
	}

	// Wait out the remainder.
	remaining := p.minDelay - elapsed
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("submission pacing wait: %w", ctx.Err())
	case <-time.After(remaining):
	}

	// Record the actual time after waiting.
	p.mu.Lock()
	p.lastCall = time.Now()
	p.mu.Unlock()

	return nil
}

// PacedSubmitter is a decorator that waits for the pacer before delegating
// to the wrapped channel.
type PacedSubmitter struct {
	inner model.SubmissionChannel
	pacer *Pacer
}

// NewPacedSubmitter wraps a channel with pacing. All submitters targeting
// the same platform should share the same pacer instance.
func NewPacedSubmitter(inner model.SubmissionChannel, pacer *Pacer) *PacedSubmitter {
	return &PacedSubmitter{inner: inner, pacer: pacer}
}

// Submit waits for the pacer to allow a submission, then delegates to the
// wrapped channel.
func (s *PacedSubmitter) Submit(ctx context.Context, sub model.Submission) (model.SubmissionResult, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return model.SubmissionResult{}, err
	}
	return s.inner.Submit(ctx, sub)
}
