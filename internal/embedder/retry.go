package embedder

import (
	"context"
	"time"
)

// RetryConfig configures fixed-delay retry behavior for provider calls
type RetryConfig struct {
	MaxRetries int           // Total number of attempts
	Delay      time.Duration // Fixed delay between attempts
}

// DefaultRetryConfig returns the default retry policy: a few attempts with a
// fixed pause, enough to ride out a brief provider hiccup without holding a
// concurrency slot for long.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		Delay:      time.Duration(RetryDelayMs) * time.Millisecond,
	}
}

// retryWithDelay executes fn up to config.MaxRetries times with a fixed delay
// between attempts. Retry stops early on context cancellation.
func retryWithDelay[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T

	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(config.Delay):
			}
		}
	}

	return zero, lastErr
}
