package exnest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.APIKey == "" {
		cfg.APIKey = "sk-test-1234"
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// fakeSleep records requested delays without waiting.
func fakeSleep(delays *[]time.Duration) sleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetryExhaustsAttemptBudget(t *testing.T) {
	var delays []time.Duration
	c := newTestClient(t, Config{MaxRetries: 3, RetryDelay: 100 * time.Millisecond})
	c.sleep = fakeSleep(&delays)

	attempts := 0
	_, err := runWithRetry(context.Background(), c, c.snapshot(), "test", func(context.Context) (int, error) {
		attempts++
		return 0, &transportError{err: errors.New("connection refused")}
	})

	if attempts != 4 {
		t.Fatalf("attempts = %d, want 4", attempts)
	}
	var exhausted *errRetriesExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want errRetriesExhausted", err)
	}
	if exhausted.attempts != 4 {
		t.Errorf("exhausted.attempts = %d, want 4", exhausted.attempts)
	}
}

func TestRetryLinearBackoffDelays(t *testing.T) {
	var delays []time.Duration
	base := 50 * time.Millisecond
	c := newTestClient(t, Config{MaxRetries: 3, RetryDelay: base})
	c.sleep = fakeSleep(&delays)

	attempts := 0
	result, err := runWithRetry(context.Background(), c, c.snapshot(), "test", func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &transportError{err: errors.New("timeout")}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("result = %q, want ok", result)
	}

	want := []time.Duration{base, 2 * base}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestBackendResponseIsNotRetried(t *testing.T) {
	var delays []time.Duration
	c := newTestClient(t, Config{MaxRetries: 3, RetryDelay: time.Millisecond})
	c.sleep = fakeSleep(&delays)

	attempts := 0
	_, err := runWithRetry(context.Background(), c, c.snapshot(), "test", func(context.Context) (int, error) {
		attempts++
		return 0, &backendStatusError{status: 500, body: []byte(`{"error":{"message":"boom"}}`)}
	})

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if len(delays) != 0 {
		t.Fatalf("delays = %v, want none", delays)
	}
	var bse *backendStatusError
	if !errors.As(err, &bse) {
		t.Fatalf("err = %v, want backendStatusError", err)
	}
}

func TestRetriesDisabled(t *testing.T) {
	c := newTestClient(t, Config{MaxRetries: -1, RetryDelay: time.Millisecond})
	var delays []time.Duration
	c.sleep = fakeSleep(&delays)

	attempts := 0
	_, err := runWithRetry(context.Background(), c, c.snapshot(), "test", func(context.Context) (int, error) {
		attempts++
		return 0, &transportError{err: errors.New("down")}
	})
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	var exhausted *errRetriesExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want errRetriesExhausted", err)
	}
}

func TestCancellationDuringBackoffAborts(t *testing.T) {
	c := newTestClient(t, Config{MaxRetries: 3, RetryDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	attempts := 0
	_, err := runWithRetry(ctx, c, c.snapshot(), "test", func(context.Context) (int, error) {
		attempts++
		return 0, &transportError{err: errors.New("flaky")}
	})

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 (no attempt after cancellation)", attempts)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in chain", err)
	}
}

func TestCancellationDuringAttemptAborts(t *testing.T) {
	c := newTestClient(t, Config{MaxRetries: 3, RetryDelay: time.Millisecond})
	var delays []time.Duration
	c.sleep = fakeSleep(&delays)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := runWithRetry(ctx, c, c.snapshot(), "test", func(context.Context) (int, error) {
		attempts++
		cancel()
		return 0, &transportError{err: fmt.Errorf("read: %w", context.Canceled)}
	})

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled in chain", err)
	}
}

func TestNetworkFailureShape(t *testing.T) {
	resp := networkFailure(&errRetriesExhausted{attempts: 4, last: errors.New("dial tcp: refused")})
	if resp.Success {
		t.Fatal("Success = true, want false")
	}
	if resp.Error == nil {
		t.Fatal("Error is nil")
	}
	if resp.Error.Code != ErrCodeNetwork {
		t.Errorf("Code = %q, want %q", resp.Error.Code, ErrCodeNetwork)
	}
	if resp.Error.Type != ErrTypeClient {
		t.Errorf("Type = %q, want %q", resp.Error.Type, ErrTypeClient)
	}
	if resp.Error.Category != CategoryNetwork {
		t.Errorf("Category = %v, want %v", resp.Error.Category, CategoryNetwork)
	}
	if resp.Data != nil {
		t.Error("Data set on a failed response")
	}
}
