// Package optimize tailors a resume to one posting through an LLM provider.
// Providers are best-effort: every failure is recoverable and the caller
// falls back to the unmodified resume.
package optimize

import "context"

// TextProvider sends a prompt to an LLM and returns the rewritten resume
// text. Used only inside this package; the rest of the system sees
// model.Optimizer.
type TextProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
