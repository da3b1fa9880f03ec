package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var attempts int

	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return NewTransportError("test", errors.New("boom"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_NonRetryableStopsImmediately(t *testing.T) {
	var attempts int

	err := WithRetry(context.Background(), func() error {
		attempts++
		return NewValidationError("bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	var attempts int

	err := WithRetry(context.Background(), func() error {
		attempts++
		return NewTransportError("test", errors.New("boom"))
	})

	require.Error(t, err)
	assert.Equal(t, MaxRetries+1, attempts)
}

func TestWithRetry_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var attempts int
	err := WithRetry(ctx, func() error {
		attempts++
		cancel()
		return NewTransportError("test", errors.New("boom"))
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(NewValidationError("bad")))
	assert.True(t, IsRetryable(NewTransportError("api", errors.New("boom"))))
	assert.True(t, IsRetryable(NewStorageError(errors.New("boom"))))
}

func TestCalculateBackoffDuration(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, calculateBackoffDuration(1))
	assert.Equal(t, 400*time.Millisecond, calculateBackoffDuration(2))
	assert.Equal(t, MaxBackoff, calculateBackoffDuration(10))
}
