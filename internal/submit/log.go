package submit

import (
	"context"
	"log/slog"

	"github.com/applyflow/applyflow/internal/model"
)

// LogChannel is the built-in submission channel. It records the submission
// in the log and reports it accepted without touching any external platform.
// Real form automation is out of scope; this is the channel dry runs and the
// default configuration use.
type LogChannel struct {
	logger *slog.Logger
}

// NewLogChannel returns a channel that logs submissions.
func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Submit logs the submission and accepts it.
func (c *LogChannel) Submit(_ context.Context, sub model.Submission) (model.SubmissionResult, error) {
	c.logger.Info("submitting application",
		"attempt_id", sub.AttemptID,
		"posting_id", sub.Posting.ID,
		"title", sub.Posting.Title,
		"company", sub.Posting.Company,
		"optimized", sub.ResumeRef != "",
		"cover_letter", sub.CoverLetter != "",
	)
	return model.SubmissionResult{Accepted: true}, nil
}
