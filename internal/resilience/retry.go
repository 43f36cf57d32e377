// Package resilience provides retry with exponential backoff for calls to
// the conversion service.
package resilience

import (
	"context"
	"errors"
	"math"
	"net"
	"strings"
	"time"
)

// Policy controls how Do spaces its attempts
type Policy struct {
	MaxAttempts    int           // Total attempts including the first
	InitialBackoff time.Duration // Backoff before the second attempt
	MaxBackoff     time.Duration // Cap on any single backoff
	Multiplier     float64       // Exponential growth factor
}

// DefaultPolicy returns the policy used for conversion submissions
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
	}
}

// Backoff returns the wait before attempt n+1 (n starts at 0)
func Backoff(attempt int, p Policy) time.Duration {
	d := time.Duration(float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt)))
	if d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs fn until it succeeds, the error is not retryable, the attempts
// are exhausted, or ctx is done. The last error is returned; a ctx error
// wins only when fn never produced one.
func (p Policy) Do(ctx context.Context, fn func() error, retryable func(error) bool) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(Backoff(attempt, p))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		}
	}

	return lastErr
}

// IsTransientNetworkError reports whether an error looks like a transient
// transport fault worth another attempt. Errors carrying an HTTP response
// never reach this: a status line is an answer, not a fault.
func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors mean the caller gave up, not that the network did
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no route to host",
		"network is unreachable",
		"EOF",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}
