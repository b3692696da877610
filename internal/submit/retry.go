// Package submit provides the built-in submission channel and the decorators
// that wrap any channel with retry and pacing behavior.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

// RetrySubmitter is a decorator that retries transient submission failures
// with exponential backoff and jitter before delegating to the wrapped
// channel. Non-transient errors are returned immediately.
type RetrySubmitter struct {
	inner       model.SubmissionChannel
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewRetrySubmitter wraps a channel with retry logic.
// maxAttempts is the total number of tries including the first (default: 3).
// baseDelay is the delay before the first retry, doubled on each subsequent
// retry.
func NewRetrySubmitter(inner model.SubmissionChannel, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *RetrySubmitter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetrySubmitter{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}
}

// Submit attempts the submission, retrying on transient errors. The returned
// result carries the number of attempts actually made so the orchestrator can
// record it.
func (s *RetrySubmitter) Submit(ctx context.Context, sub model.Submission) (model.SubmissionResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := s.backoffDelay(attempt-1, lastErr)
			s.logger.Warn("retrying submission after transient error",
				"posting_id", sub.Posting.ID,
				"attempt", attempt,
				"max_attempts", s.maxAttempts,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return model.SubmissionResult{Attempts: attempt - 1},
					fmt.Errorf("submission retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := s.inner.Submit(ctx, sub)
		if err == nil {
			result.Attempts = attempt
			return result, nil
		}
		if !model.IsTransient(err) {
			return model.SubmissionResult{Attempts: attempt}, err
		}
		lastErr = err
	}
	return model.SubmissionResult{Attempts: s.maxAttempts}, lastErr
}

// backoffDelay computes the delay before a given retry with ±30% jitter.
// If the error carries a retry-after hint, that takes precedence.
func (s *RetrySubmitter) backoffDelay(retry int, err error) time.Duration {
	var transient *model.TransientError
	if errors.As(err, &transient) && transient.RetryAfter > 0 {
		return transient.RetryAfter
	}

	// Exponential: baseDelay * 2^(retry-1)
	delay := s.baseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}
