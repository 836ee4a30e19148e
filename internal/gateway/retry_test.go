package gateway

import (
	"errors"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	p := ExponentialBackoff{MaxRetries: 2, Base: 100 * time.Millisecond}
	transient := &ProtocolError{StatusCode: 503}

	for attempt, limit := range map[int]time.Duration{1: 150 * time.Millisecond, 2: 300 * time.Millisecond} {
		delay, ok := p.Backoff(attempt, transient)
		if !ok {
			t.Fatalf("attempt %d should retry", attempt)
		}
		if delay <= 0 || delay >= limit {
			t.Fatalf("attempt %d delay = %s, want (0, %s)", attempt, delay, limit)
		}
	}

	if _, ok := p.Backoff(3, transient); ok {
		t.Fatal("attempts beyond MaxRetries must stop")
	}
	if _, ok := p.Backoff(1, &ProtocolError{StatusCode: 400}); ok {
		t.Fatal("4xx is not retryable")
	}
	if _, ok := p.Backoff(1, errors.New("decode")); ok {
		t.Fatal("plain errors are not retryable")
	}
}

func TestPolicyFor(t *testing.T) {
	if _, ok := PolicyFor(0, time.Second).(NoRetry); !ok {
		t.Fatal("zero retries should give NoRetry")
	}
	if p, ok := PolicyFor(2, time.Second).(ExponentialBackoff); !ok || p.MaxRetries != 2 {
		t.Fatalf("unexpected policy %#v", PolicyFor(2, time.Second))
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&TransportError{Endpoint: "x", Err: errors.New("refused")}) {
		t.Fatal("transport errors are retryable")
	}
	if !IsRetryable(&ProtocolError{StatusCode: 429}) {
		t.Fatal("429 is retryable")
	}
}
