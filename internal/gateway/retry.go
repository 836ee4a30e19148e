package gateway

import (
	"math/rand/v2"
	"time"
)

// RetryPolicy decides whether a failed attempt is repeated. attempt starts at 1
// for the first failure. Returning false ends the request with err.
type RetryPolicy interface {
	Backoff(attempt int, err error) (time.Duration, bool)
}

// NoRetry performs exactly one attempt.
type NoRetry struct{}

// Backoff never retries.
func (NoRetry) Backoff(int, error) (time.Duration, bool) { return 0, false }

// ExponentialBackoff retries retryable failures, doubling Base each attempt
// with +/-50% jitter.
type ExponentialBackoff struct {
	MaxRetries int
	Base       time.Duration
}

// Backoff implements RetryPolicy.
func (p ExponentialBackoff) Backoff(attempt int, err error) (time.Duration, bool) {
	if attempt > p.MaxRetries || !IsRetryable(err) {
		return 0, false
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	delay := base << (attempt - 1)
	jitter := delay/2 + time.Duration(rand.Int64N(int64(delay)))
	return jitter, true
}

// PolicyFor returns NoRetry for maxRetries <= 0 and ExponentialBackoff otherwise.
func PolicyFor(maxRetries int, base time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		return NoRetry{}
	}
	return ExponentialBackoff{MaxRetries: maxRetries, Base: base}
}

var (
	_ RetryPolicy = NoRetry{}
	_ RetryPolicy = ExponentialBackoff{}
)
