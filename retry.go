package flowcore

import "time"

// BackoffPolicy selects how RetryPolicy grows the delay between
// attempts.
type BackoffPolicy int

const (
	// Exponential doubles (times Multiplier) the delay on each attempt,
	// capped at MaxDelay.
	Exponential BackoffPolicy = iota
	// Fixed reuses InitialDelay for every retry.
	Fixed
)

// RetryPolicy configures the durable backoff a side effect uses when
// its closure returns a retryable (non-terminal) error. Every delay is
// journaled as an ordinary Sleep entry, so replay reproduces the exact
// schedule without re-running the clock.
type RetryPolicy struct {
	MaxRetries   uint
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Policy       BackoffPolicy
	// Multiplier scales the delay on each attempt under Exponential.
	// Defaults to 2 if zero.
	Multiplier float64
}

// DefaultRetryPolicy is the default for RunAs: no retries, the side
// effect's failure is journaled as terminal immediately.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 0, Policy: Fixed}

// delay returns the backoff duration for the given zero-based attempt
// number (0 = delay before the first retry).
func (p RetryPolicy) delay(attempt uint) time.Duration {
	if p.Policy == Fixed || attempt == 0 {
		if p.InitialDelay == 0 {
			return 0
		}
		if p.Policy == Fixed {
			return p.InitialDelay
		}
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	d := p.InitialDelay
	for i := uint(0); i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if p.MaxDelay > 0 && d > p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}
