package session

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultReconnectDelay is the fixed pause between failed reconnect attempts.
const DefaultReconnectDelay = 1000 * time.Millisecond

// Backoff decides how long to wait after a failed reconnect attempt.
// The attempt number is 1-based and restarts at 1 for every disconnect.
type Backoff interface {
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff waits the same delay after every attempt.
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay implements Backoff.
func (b ConstantBackoff) NextDelay(_ int) time.Duration {
	return b.Delay
}

// ExponentialBackoff doubles the delay after each failed attempt up to a cap,
// with optional jitter.
//
// It keeps internal state and is not safe for concurrent use.
type ExponentialBackoff struct {
	b *backoff.ExponentialBackOff
}

// NewExponentialBackoff returns a strategy starting at initial and capped at maxDelay.
// jitter is the randomization factor in [0, 1); 0 yields deterministic delays.
func NewExponentialBackoff(initial, maxDelay time.Duration, jitter float64) *ExponentialBackoff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = jitter
	b.Reset()
	return &ExponentialBackoff{b: b}
}

// NextDelay implements Backoff.
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 1 {
		e.b.Reset()
	}
	return e.b.NextBackOff()
}
