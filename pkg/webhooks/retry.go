package webhooks

import (
	"math"
	"time"
)

// RetryPolicy implements exponential backoff retry logic
type RetryPolicy struct {
	config RetryConfig
}

// NewRetryPolicy creates a new retry policy, filling in defaults for
// unset or nonsensical values.
func NewRetryPolicy(config RetryConfig) *RetryPolicy {
	defaults := DefaultRetryConfig()
	if config.MaxRetries < 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	// Exactly 1.0 is a deliberate constant-backoff configuration and is
	// left alone; only shrinking or unset multipliers are coerced.
	if config.BackoffMultiplier < 1.0 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}

	return &RetryPolicy{config: config}
}

// MaxAttempts returns the total attempt budget, retries plus the
// initial attempt.
func (p *RetryPolicy) MaxAttempts() int {
	return p.config.MaxRetries + 1
}

// ShouldRetry reports whether another attempt is allowed after the
// given number of attempts have been made.
func (p *RetryPolicy) ShouldRetry(attempts int) bool {
	return attempts <= p.config.MaxRetries
}

// NextDelay calculates the backoff delay after the given attempt:
// min(initialDelay * multiplier^(attempts-1), maxDelay).
func (p *RetryPolicy) NextDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return p.config.InitialDelay
	}

	delay := float64(p.config.InitialDelay) * math.Pow(p.config.BackoffMultiplier, float64(attempts-1))
	if delay > float64(p.config.MaxDelay) {
		return p.config.MaxDelay
	}
	return time.Duration(delay)
}

// NextRetryTime calculates when the next retry should occur.
func (p *RetryPolicy) NextRetryTime(attempts int) time.Time {
	return time.Now().UTC().Add(p.NextDelay(attempts))
}
