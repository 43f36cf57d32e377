package resilience

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		attempts++
		return nil
	}, nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestDo_FailureThenSuccess(t *testing.T) {
	attempts := 0
	err := fastPolicy(3).Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, IsTransientNetworkError)

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDo_MaxAttempts(t *testing.T) {
	attempts := 0
	err := fastPolicy(2).Do(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	}, nil)

	if err == nil {
		t.Error("Expected error after max attempts")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestDo_NonRetryableStops(t *testing.T) {
	terminal := errors.New("bad request")
	attempts := 0
	err := fastPolicy(5).Do(context.Background(), func() error {
		attempts++
		return terminal
	}, IsTransientNetworkError)

	if !errors.Is(err, terminal) {
		t.Errorf("Expected the terminal error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestDo_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := fastPolicy(5).Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("connection reset")
	}, IsTransientNetworkError)

	if err == nil {
		t.Error("Expected an error after cancellation")
	}
	if attempts != 1 {
		t.Errorf("Expected no attempts after cancel, got %d", attempts)
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	p := Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
	}

	if got := Backoff(0, p); got != 100*time.Millisecond {
		t.Errorf("Expected 100ms for attempt 0, got %v", got)
	}
	if got := Backoff(2, p); got != 400*time.Millisecond {
		t.Errorf("Expected 400ms for attempt 2, got %v", got)
	}
	if got := Backoff(10, p); got != time.Second {
		t.Errorf("Expected cap at 1s, got %v", got)
	}
}

func TestIsTransientNetworkError(t *testing.T) {
	if IsTransientNetworkError(nil) {
		t.Error("nil is not transient")
	}
	if !IsTransientNetworkError(errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")) {
		t.Error("Expected connection refused to be transient")
	}
	if IsTransientNetworkError(errors.New("Upload failed: Internal Server Error")) {
		t.Error("An HTTP status answer is not transient")
	}
	if IsTransientNetworkError(context.Canceled) {
		t.Error("Cancellation is not transient")
	}

	// url.Error wrapping counts through errors.As/Is
	wrapped := &url.Error{Op: "Post", URL: "http://x", Err: context.Canceled}
	if IsTransientNetworkError(wrapped) {
		t.Error("Wrapped cancellation is not transient")
	}
}
