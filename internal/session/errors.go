package session

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a generation request is refused because another
// one is already in flight. Callers surface it and wait for the user; they
// must not retry automatically.
var ErrBusy = errors.New("a generation is already running")

// ValidationError marks input rejected locally before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientError wraps a failed network call. The wrapped operation is safe
// to re-issue via an explicit retry affordance.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err represents a recoverable network failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// QuotaExceededError blocks a gated action whose local counter shows
// exhaustion.
type QuotaExceededError struct {
	Resource Resource
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s", e.Resource)
}

// IsQuotaExceeded reports whether err is a quota refusal.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
