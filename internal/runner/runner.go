// Package runner owns the pipeline loop: search for postings, fan them out
// to the orchestrator, and report outcomes.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/orchestrator"
)

// Runner drives batches of postings through the orchestrator.
type Runner struct {
	source      model.PostingSource
	orch        *orchestrator.Orchestrator
	store       model.Store
	notifier    model.Notifier
	query       model.SearchQuery
	postingTTL  time.Duration
	concurrency int
	interval    time.Duration
	logger      *slog.Logger
}

// New creates a runner wired with all its dependencies.
func New(
	source model.PostingSource,
	orch *orchestrator.Orchestrator,
	store model.Store,
	notifier model.Notifier,
	query model.SearchQuery,
	postingTTL time.Duration,
	concurrency int,
	interval time.Duration,
	logger *slog.Logger,
) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		source:      source,
		orch:        orch,
		store:       store,
		notifier:    notifier,
		query:       query,
		postingTTL:  postingTTL,
		concurrency: concurrency,
		interval:    interval,
		logger:      logger,
	}
}

// RunOnce executes one full batch: evict stale cached postings, search,
// process every posting concurrently, then notify finished outcomes.
// Scoring runs in parallel; the orchestrator serializes submissions
// internally. An authentication failure cancels the rest of the batch and is
// returned to the caller.
func (r *Runner) RunOnce(ctx context.Context) error {
	evicted, err := r.store.EvictPostings(r.postingTTL)
	if err != nil {
		r.logger.Error("evicting stale postings", "error", err)
	} else if evicted > 0 {
		r.logger.Info("evicted stale postings", "count", evicted)
	}

	postings, err := r.source.Search(ctx, r.query)
	if err != nil {
		return err
	}
	r.logger.Info("search finished", "postings", len(postings))
	if len(postings) == 0 {
		return nil
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		records  []model.ApplicationRecord
		batchErr error
	)

	jobs := make(chan model.Posting)
	var wg sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for posting := range jobs {
				rec, err := r.orch.ProcessPosting(batchCtx, posting)
				mu.Lock()
				if rec != nil {
					records = append(records, *rec)
				}
				if err != nil && batchErr == nil && !errors.Is(err, context.Canceled) {
					batchErr = err
				}
				mu.Unlock()
				if err != nil && model.IsAuth(err) {
					// The session is unusable; stop handing out work.
					cancel()
					return
				}
			}
		}()
	}

feed:
	for _, posting := range postings {
		select {
		case <-batchCtx.Done():
			break feed
		case jobs <- posting:
		}
	}
	close(jobs)
	wg.Wait()

	r.report(records)
	return batchErr
}

// report logs the batch summary and notifies finished outcomes.
func (r *Runner) report(records []model.ApplicationRecord) {
	var outcomes []model.ApplicationRecord
	counts := make(map[model.State]int)
	applied, failed := 0, 0
	for _, rec := range records {
		counts[rec.State]++
		if rec.HasReached(model.StateApplied) {
			applied++
			outcomes = append(outcomes, rec)
		} else if rec.HasReached(model.StateFailed) {
			failed++
			outcomes = append(outcomes, rec)
		}
	}

	r.logger.Info("batch finished",
		"processed", len(records),
		"applied", applied,
		"failed", failed,
		"rejected", counts[model.StateRejected],
	)

	if len(outcomes) > 0 && r.notifier != nil {
		if err := r.notifier.Notify(outcomes); err != nil {
			r.logger.Error("notifying outcomes", "error", err)
		}
	}
}

// Run starts the daemon loop. It runs one immediate batch, then ticks on the
// configured interval. It returns nil when ctx is cancelled (graceful
// shutdown); batch errors are logged, never fatal to the loop.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting runner",
		"interval", r.interval.String(),
		"concurrency", r.concurrency,
	)

	if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("batch failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down runner")
			return nil
		case <-time.After(r.interval):
			if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("batch failed", "error", err)
			}
		}
	}
}
