package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/common"
)

// ErrContentBlocked is returned when a provider refuses to answer on safety
// grounds. Its text contains "SAFETY" so that callers matching on the message
// see the same thing the provider reported.
var ErrContentBlocked = errors.New("response blocked: SAFETY")

// Messages shown to spotters when analysis fails.
const (
	MsgInvalidKey     = "Invalid API key. Please check your AI provider configuration."
	MsgQuotaExceeded  = "API quota exceeded. Please try again later."
	MsgTimeout        = "Request timeout. Please try again with a smaller image."
	MsgAnalysisFailed = "Failed to analyze jet image. Please try again."
)

// statusError maps a provider HTTP failure onto the application's error kinds.
func statusError(provider string, status int, message string) error {
	base := fmt.Errorf("%s API error (status %d): %s", provider, status, strings.TrimSpace(message))
	lower := strings.ToLower(message)

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, strings.Contains(lower, "api key"):
		return common.NewUserError(MsgInvalidKey, fmt.Errorf("%w: %w", common.ErrMissingConfig, base))
	case status == http.StatusTooManyRequests, strings.Contains(lower, "quota"):
		return common.NewUserError(MsgQuotaExceeded, fmt.Errorf("%w: %w", common.ErrQuotaExceeded, base))
	case status >= http.StatusInternalServerError:
		return &common.RetryableError{Err: base, Retryable: true}
	}
	return &common.RetryableError{Err: base, Retryable: false}
}

// callError wraps a transport-level failure. A deadline on ctx becomes
// ErrTimeout.
func callError(ctx context.Context, provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return common.NewUserError(MsgTimeout, fmt.Errorf("%w: %s request: %w", common.ErrTimeout, provider, err))
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}

// analysisError gives every analysis failure a message for the spotter.
func analysisError(err error) error {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return err
	}
	return common.NewUserError(MsgAnalysisFailed, err)
}
