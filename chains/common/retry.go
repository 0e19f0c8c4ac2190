package common

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts int           // Total invocation budget, including the first attempt
	BaseDelay   time.Duration // Wait before the second attempt
	MaxDelay    time.Duration // Upper bound on any single wait
	Jitter      bool          // Spread each wait by up to ±15% when set
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// RetryManager reruns failing operations with exponential backoff. It never
// inspects or rewraps errors: the final attempt's error reaches the caller
// unchanged, so errors.Is and errors.As work across the retry boundary.
type RetryManager struct {
	config *RetryConfig
	logger zerolog.Logger
}

// NewRetryManager creates a new retry manager
func NewRetryManager(config *RetryConfig, logger zerolog.Logger) *RetryManager {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryManager{
		config: config,
		logger: logger.With().Str("component", "retry_manager").Logger(),
	}
}

// ExecuteWithRetry runs fn up to MaxAttempts times, waiting BaseDelay * 2^i
// after attempt i (0-indexed). The final attempt's error is returned as-is.
func (r *RetryManager) ExecuteWithRetry(
	ctx context.Context,
	operation string,
	fn func() error,
) error {
	attempts := r.config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info().
					Str("operation", operation).
					Int("attempts", attempt+1).
					Msg("operation succeeded after retries")
			}
			return nil
		}

		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := r.CalculateBackoff(attempt)
		r.logger.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt+1).
			Int("max_attempts", attempts).
			Dur("retry_in", delay).
			Msg("operation failed, retrying")

		// Wait before retrying
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.logger.Error().
		Err(lastErr).
		Str("operation", operation).
		Int("attempts", attempts).
		Msg("operation failed after all attempts")

	return lastErr
}

// CalculateBackoff returns the wait after attempt (0-indexed):
// BaseDelay * 2^attempt, capped at MaxDelay, optionally jittered.
func (r *RetryManager) CalculateBackoff(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if r.config.Jitter {
		delay += delay * 0.15 * (2*rand.Float64() - 1)
	}
	return time.Duration(delay)
}
