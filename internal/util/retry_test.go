package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	result, err := Retry(3, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("got %q, want %q", result, "ok")
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	wantErr := errors.New("persistent")
	attempts := 0
	_, err := Retry(4, func() (int, error) {
		attempts++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("got error %v, want %v", err, wantErr)
	}
	if attempts != 4 {
		t.Errorf("got %d attempts, want 4", attempts)
	}
}

func TestRetryZeroTriesDefaultsToOne(t *testing.T) {
	attempts := 0
	_, _ = Retry(0, func() (int, error) {
		attempts++
		return 0, errors.New("fail")
	})
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1", attempts)
	}
}

func TestRetryErr(t *testing.T) {
	attempts := 0
	err := RetryErr(2, func() error {
		attempts++
		if attempts == 1 {
			return errors.New("once")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("got %d attempts, want 2", attempts)
	}
}

func TestRetryWithContextStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := RetryWithContext(ctx, 5, func(context.Context) (int, error) {
		attempts++
		cancel()
		return 0, errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got error %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1", attempts)
	}
}

func TestRetryWithContextDoesNotRetryContextError(t *testing.T) {
	attempts := 0
	_, err := RetryWithContext(context.Background(), 3, func(context.Context) (int, error) {
		attempts++
		return 0, context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got error %v, want context.DeadlineExceeded", err)
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1", attempts)
	}
}

func TestRetryBackoffRetriesOnlyRetryable(t *testing.T) {
	attempts := 0
	_, err := RetryBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		return 0, errors.New("hard failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("got %d attempts, want 1 for non-retryable error", attempts)
	}
}

func TestRetryBackoffExhaustsRetryable(t *testing.T) {
	attempts := 0
	_, err := RetryBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (int, error) {
		attempts++
		return 0, &RetryableError{Err: errors.New("rate limited")}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var retryable *RetryableError
	if !errors.As(err, &retryable) {
		t.Errorf("got error %v, want RetryableError", err)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}
}

func TestRetryBackoffSucceeds(t *testing.T) {
	attempts := 0
	result, err := RetryBackoff(context.Background(), 5, time.Millisecond, func(context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", &RetryableError{Err: errors.New("rate limited")}
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "done" {
		t.Errorf("got %q, want %q", result, "done")
	}
}
