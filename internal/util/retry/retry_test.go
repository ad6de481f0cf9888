package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("connection reset by peer")

func TestWithExponentialBackoff_Success(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithExponentialBackoff_MaxRetries(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return errTransient
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, errTransient)
	// MaxRetries counts retries after the first attempt.
	assert.Equal(t, 4, attempts)
}

func TestWithExponentialBackoff_ContextCancellation(t *testing.T) {
	t.Parallel()
	attempts := 0
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithExponentialBackoff(ctx, func() error {
		attempts++
		return errTransient
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_FatalError(t *testing.T) {
	t.Parallel()
	attempts := 0

	err := WithExponentialBackoff(context.Background(), func() error {
		attempts++
		return Fatal(errors.New("permission denied"))
	}, WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, attempts)
}

func TestWithExponentialBackoff_RetryIf(t *testing.T) {
	t.Parallel()

	t.Run("stops on rejected error", func(t *testing.T) {
		t.Parallel()
		attempts := 0
		authErr := errors.New("unable to authenticate")

		err := WithExponentialBackoff(context.Background(), func() error {
			attempts++
			return authErr
		},
			WithInitialDelay(time.Millisecond),
			WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
		)

		require.ErrorIs(t, err, authErr)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries accepted error", func(t *testing.T) {
		t.Parallel()
		attempts := 0

		err := WithExponentialBackoff(context.Background(), func() error {
			attempts++
			if attempts < 2 {
				return fmt.Errorf("dial: %w", errTransient)
			}
			return nil
		},
			WithInitialDelay(time.Millisecond),
			WithRetryIf(func(err error) bool { return errors.Is(err, errTransient) }),
		)

		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})
}

func TestWithExponentialBackoff_OnRetry(t *testing.T) {
	t.Parallel()
	var seen []int
	var delays []time.Duration

	_ = WithExponentialBackoff(context.Background(), func() error {
		return errTransient
	},
		WithMaxRetries(3),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(3*time.Millisecond),
		WithOnRetry(func(attempt int, _ error, delay time.Duration) {
			seen = append(seen, attempt)
			delays = append(delays, delay)
		}),
	)

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond}, delays)
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))

	sentinel := errors.New("sentinel")
	wrapped := fmt.Errorf("context: %w", Fatal(sentinel))
	assert.True(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, sentinel)
	assert.Equal(t, sentinel.Error(), Fatal(sentinel).Error())
	assert.False(t, IsFatal(sentinel))
}
