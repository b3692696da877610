package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyApplied marks an attempt to record a second affirmative
// submission for the same application record.
var ErrAlreadyApplied = errors.New("application already recorded as applied")

// TransientError wraps a temporary collaborator failure (network blip,
// rate-limit response) so retry logic can inspect it.
type TransientError struct {
	Op         string
	RetryAfter time.Duration // from a rate-limit response, zero if absent
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient %s error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transient %s error", e.Op)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthError is a fatal authentication failure from a posting source or
// submission channel. It aborts the whole processing batch; no retry.
type AuthError struct {
	Service string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s authentication failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s authentication failed", e.Service)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError marks a malformed posting or record. The offending item
// is quarantined rather than aborting the batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsTransient reports whether err should be retried with backoff.
// Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *TransientError
	return errors.As(err, &te)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is a data validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
