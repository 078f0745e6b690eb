package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/aviation-bay/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "missing key", err: fmt.Errorf("gemini: %w", ErrMissingConfig), want: KindConfiguration},
		{name: "invalid config", err: ErrInvalidConfig, want: KindConfiguration},
		{name: "quota", err: NewUserError("Too many requests. Wait a moment.", ErrQuotaExceeded), want: KindTransient},
		{name: "timeout", err: ErrTimeout, want: KindTransient},
		{name: "deadline", err: context.DeadlineExceeded, want: KindTransient},
		{name: "malformed", err: ErrMalformedResponse, want: KindTransient},
		{name: "empty capture", err: ErrEmptyCapture, want: KindValidation},
		{name: "invalid capture", err: fmt.Errorf("%w: not a data URL", ErrInvalidCapture), want: KindValidation},
		{name: "empty selection", err: fmt.Errorf("submit: %w", ErrEmptySelection), want: KindValidation},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	err := NewUserError("API setup issue.", ErrMissingConfig)

	assert.Equal(t, "API setup issue.: missing configuration", err.Error())
	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Equal(t, "API setup issue.", UserMessage(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, "plain", UserMessage(errors.New("plain")))
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "only message", (&UserError{UserMessage: "only message"}).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(fmt.Errorf("x: %w", ErrQuotaExceeded)))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("503"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("400"), Retryable: false}))
	assert.False(t, IsRetryable(ErrMissingConfig))
	assert.False(t, IsRetryable(context.Canceled))
}

func TestWithRetry(t *testing.T) {
	fast := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return ErrTimeout
			}
			return nil
		}, fast)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrTimeout
		}, fast)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 3, calls)
	})

	t.Run("configuration errors are not retried", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return NewUserError("API setup issue.", ErrMissingConfig)
		}, fast)
		assert.ErrorIs(t, err, ErrMissingConfig)
		assert.Equal(t, 1, calls)
	})

	t.Run("non-retryable wrapper stops", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: errors.New("bad request"), Retryable: false}
		}, fast)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := WithRetry(ctx, func() error { return ErrTimeout }, service.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: time.Second,
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, "INFO", lvl.String())

	_, err = ParseLevel("chatty")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
