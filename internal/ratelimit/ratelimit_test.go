package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleep(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), 0))
	})

	t.Run("cancelled context aborts the pause", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("short pause completes", func(t *testing.T) {
		assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	})
}

func TestRateLimiterSpacesWaits(t *testing.T) {
	ctx := context.Background()
	limiter := NewSimpleRateLimiter(20*time.Millisecond, 20*time.Millisecond)

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.Less(t, time.Since(start), 20*time.Millisecond, "first wait must not block")

	require.NoError(t, limiter.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRateLimiterCancelledWait(t *testing.T) {
	limiter := NewSimpleRateLimiter(time.Hour, time.Hour)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}

func TestNewSimpleRateLimiterNormalisesRange(t *testing.T) {
	limiter := NewSimpleRateLimiter(3*time.Second, time.Second)

	assert.Equal(t, 3*time.Second, limiter.minDelay)
	assert.Equal(t, 3*time.Second, limiter.maxDelay)
	assert.Equal(t, 3*time.Second, limiter.calculateDelay())
}

func TestCalculateDelayStaysInRange(t *testing.T) {
	limiter := NewSimpleRateLimiter(5*time.Second, 15*time.Second)

	for range 100 {
		d := limiter.calculateDelay()
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.Less(t, d, 15*time.Second)
	}
}
