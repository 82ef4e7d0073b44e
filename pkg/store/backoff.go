package store

import "time"

// BackoffPolicy spaces reconnect attempts linearly up to a cap:
// delay(attempt) = min(attempt*Step, Max).
type BackoffPolicy struct {
	// Step is the delay added per failed attempt.
	Step time.Duration

	// Max caps the delay.
	Max time.Duration
}

// DefaultBackoffPolicy returns min(attempt*50ms, 2s).
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Step: 50 * time.Millisecond,
		Max:  2 * time.Second,
	}
}

// Delay returns the wait before the given attempt (1-based).
// Attempts below 1 are treated as the first attempt.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	step := p.Step
	if step <= 0 {
		step = DefaultBackoffPolicy().Step
	}
	limit := p.Cap()

	// Guard against overflow for very large attempt counts
	if time.Duration(attempt) > limit/step {
		return limit
	}

	delay := time.Duration(attempt) * step
	if delay > limit {
		return limit
	}
	return delay
}

// Cap returns the maximum delay, falling back to the default cap.
func (p BackoffPolicy) Cap() time.Duration {
	if p.Max <= 0 {
		return DefaultBackoffPolicy().Max
	}
	return p.Max
}
