package optimize

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/applyflow/applyflow/internal/model"
)

// sectionsFor maps the optimization level to the resume sections the prompt
// allows the provider to touch.
func sectionsFor(level model.OptimizeLevel) string {
	switch level {
	case model.OptimizeLight:
		return "summary, skills"
	case model.OptimizeAggressive:
		return "summary, skills, experience, projects, education"
	default: // moderate
		return "summary, skills, experience"
	}
}

// Service implements model.Optimizer on top of a TextProvider.
type Service struct {
	provider TextProvider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewService creates an optimizer backed by the given provider. timeout
// bounds each provider call; zero means no bound beyond the caller's context.
func NewService(provider TextProvider, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{provider: provider, timeout: timeout, logger: logger}
}

// Optimize renders the rewrite prompt, calls the provider, and returns the
// rewritten resume under a fresh opaque handle.
func (s *Service) Optimize(ctx context.Context, req model.OptimizeRequest) (model.OptimizedResume, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var promptBuf bytes.Buffer
	err := ResumeRewriteTemplate.Execute(&promptBuf, struct {
		ResumeText  string
		PostingText string
		Level       model.OptimizeLevel
		Sections    string
		Gaps        string
	}{
		ResumeText:  req.ResumeText,
		PostingText: req.PostingText,
		Level:       req.Level,
		Sections:    sectionsFor(req.Level),
		Gaps:        strings.Join(req.Gaps, ", "),
	})
	if err != nil {
		return model.OptimizedResume{}, fmt.Errorf("render rewrite prompt: %w", err)
	}

	text, err := s.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return model.OptimizedResume{}, fmt.Errorf("llm complete: %w", err)
	}

	ref := uuid.NewString()
	s.logger.Debug("resume optimized", "ref", ref, "level", req.Level)
	return model.OptimizedResume{Ref: ref, Text: text}, nil
}

// Fallback tries each optimizer in order and returns the first success.
type Fallback struct {
	chain  []model.Optimizer
	logger *slog.Logger
}

// NewFallback builds an optimizer chain. An empty chain always fails, which
// callers treat like any other optimizer error.
func NewFallback(logger *slog.Logger, chain ...model.Optimizer) *Fallback {
	return &Fallback{chain: chain, logger: logger}
}

// Optimize delegates down the chain, logging each failed provider.
func (f *Fallback) Optimize(ctx context.Context, req model.OptimizeRequest) (model.OptimizedResume, error) {
	var lastErr error
	for i, opt := range f.chain {
		res, err := opt.Optimize(ctx, req)
		if err == nil {
			return res, nil
		}
		f.logger.Warn("optimizer failed, trying next", "position", i, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no optimizers configured")
	}
	return model.OptimizedResume{}, lastErr
}

// Nop returns the unmodified resume with an empty handle. Used when
// optimization is disabled.
type Nop struct{}

// NewNop returns a Nop optimizer.
func NewNop() *Nop {
	return &Nop{}
}

// Optimize returns the original resume text unchanged.
func (n *Nop) Optimize(_ context.Context, req model.OptimizeRequest) (model.OptimizedResume, error) {
	return model.OptimizedResume{Text: req.ResumeText}, nil
}
