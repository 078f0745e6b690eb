// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// AI service errors.
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrTimeout           = errors.New("request timed out")
	ErrMalformedResponse = errors.New("malformed response")

	// Submission errors.
	ErrEmptyCapture   = errors.New("no image captured")
	ErrInvalidCapture = errors.New("invalid image")
	ErrEmptySelection = errors.New("no jet type selected")
)

// ErrorKind groups errors by how a caller should react to them.
type ErrorKind string

// ErrorKind constants.
const (
	KindConfiguration ErrorKind = "configuration"
	KindTransient     ErrorKind = "transient"
	KindValidation    ErrorKind = "validation"
	KindUnknown       ErrorKind = "unknown"
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// UserMessage returns the message meant for a spotter, falling back to the
// error text when err carries none.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

// Kind classifies err. Transient errors may be retried; configuration and
// validation errors need the user to act first.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMissingConfig), errors.Is(err, ErrInvalidConfig):
		return KindConfiguration
	case errors.Is(err, ErrEmptyCapture), errors.Is(err, ErrInvalidCapture), errors.Is(err, ErrEmptySelection):
		return KindValidation
	case IsRetryable(err), errors.Is(err, ErrMalformedResponse):
		return KindTransient
	}
	return KindUnknown
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
