// Package notifier reports finished application outcomes.
package notifier

import (
	"log/slog"

	"github.com/applyflow/applyflow/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes application outcomes to the given logger as structured
// messages.
type LogNotifier struct {
	store  model.Store
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each outcome via slog. The
// store resolves posting titles; it may be nil, in which case only ids are
// logged.
func NewLogNotifier(store model.Store, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{store: store, logger: logger}
}

// Notify logs each record with its posting, state, score, and reason.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(records []model.ApplicationRecord) error {
	for _, r := range records {
		args := []any{"posting_id", r.PostingID, "state", r.State}
		if title, company := lookupPosting(n.store, r.PostingID); title != "" {
			args = append(args, "title", title, "company", company)
		}
		if r.Score != nil {
			args = append(args, "score", r.Score.Overall, "tier", r.Score.Tier)
		}
		if r.Reason != "" {
			args = append(args, "reason", r.Reason)
		}
		if r.RetryCount > 0 {
			args = append(args, "retries", r.RetryCount)
		}
		n.logger.Info("application outcome", args...)
	}
	return nil
}

// lookupPosting resolves a posting's title and company, best effort.
func lookupPosting(store model.Store, id string) (title, company string) {
	if store == nil {
		return "", ""
	}
	p, err := store.GetPosting(id)
	if err != nil || p == nil {
		return "", ""
	}
	return p.Title, p.Company
}
