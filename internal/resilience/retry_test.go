package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}
}

func TestDoVal_FirstAttempt(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls.Add(1)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoVal_SucceedsAfterTransient(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	v, err := DoVal(context.Background(), fastRetry(3), func(context.Context) (float64, error) {
		if calls.Add(1) < 3 {
			return 0, NewTransientError(errors.New("429"), 429)
		}
		return 0.021, nil
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.021, v, 1e-12)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoVal_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	v, err := DoVal(context.Background(), fastRetry(4), func(context.Context) (int, error) {
		calls.Add(1)
		return 7, NewTransientError(errors.New("503"), 503)
	})
	require.Error(t, err)
	assert.Zero(t, v)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(4), calls.Load())
}

func TestDoVal_NonTransientStops(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	_, err := DoVal(context.Background(), fastRetry(5), func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errors.New("malformed response")
	})
	require.EqualError(t, err, "malformed response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoVal_ContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	_, err := DoVal(ctx, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour}, func(context.Context) (int, error) {
		calls.Add(1)
		cancel()
		return 0, NewTransientError(errors.New("timeout"), 0)
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoVal_ShouldRetryAndOnRetry(t *testing.T) {
	t.Parallel()
	var attempts []int
	cfg := fastRetry(3)
	cfg.ShouldRetry = func(error) bool { return true }
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_, err := DoVal(context.Background(), cfg, func(context.Context) (int, error) {
		return 0, errors.New("plain")
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetryAttempts(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3, RetryAttempts(0).MaxAttempts)
	assert.Equal(t, 6, RetryAttempts(6).MaxAttempts)
	assert.Equal(t, DefaultRetryConfig().InitialBackoff, RetryAttempts(6).InitialBackoff)
}

func TestComputeBackoff(t *testing.T) {
	t.Parallel()
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, computeBackoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, computeBackoff(1, cfg))
	assert.Equal(t, 400*time.Millisecond, computeBackoff(2, cfg))
	assert.Equal(t, time.Second, computeBackoff(10, cfg))
}

func TestComputeBackoff_Jitter(t *testing.T) {
	t.Parallel()
	cfg := RetryConfig{InitialBackoff: time.Second, MaxBackoff: time.Minute, Multiplier: 2, JitterFraction: 0.5}
	for range 50 {
		d := computeBackoff(0, cfg)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}

func TestRetryLogger(t *testing.T) {
	t.Parallel()
	RetryLogger("worldbank", "indicator")(1, errors.New("503"))
}
