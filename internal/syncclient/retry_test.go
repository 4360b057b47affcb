package syncclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2,
		IsRetryable:  IsNetworkError,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: http.StatusServiceUnavailable}
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q, %v", got, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryExhaustionWrapsLastError(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), fastPolicy(4), func(context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
	})
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("expected the last cause to be wrapped, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	rejected := &StatusError{StatusCode: http.StatusBadRequest, Message: "duplicate nonce"}
	_, err := WithRetry(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, rejected
	})
	if !errors.Is(err, rejected) || errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected the rejection as-is, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestWithRetryDelayHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy(3)
	policy.InitialDelay = time.Hour
	policy.MaxDelay = time.Hour

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	started := time.Now()
	_, err := WithRetry(ctx, policy, func(context.Context) (int, error) {
		return 0, &StatusError{StatusCode: http.StatusBadGateway}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(started) > time.Second {
		t.Fatalf("cancelled retry waited too long: %s", time.Since(started))
	}
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	policy := RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond, Multiplier: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := policy.Delay(i + 1); got != w {
			t.Errorf("delay(%d) = %s, want %s", i+1, got, w)
		}
	}

	policy.Jitter = 0.2
	for i := 0; i < 50; i++ {
		d := policy.Delay(1)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("jittered delay %s outside ±20%%", d)
		}
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsNetworkError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"net error", &net.OpError{Op: "dial", Err: timeoutError{}}, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "pay.example.com"}, true},
		{"refused", fmt.Errorf("post: %w", syscall.ECONNREFUSED), true},
		{"reset text", errors.New("read tcp: connection reset by peer"), true},
		{"tls text", errors.New("remote error: tls handshake failure"), true},
		{"server error", &StatusError{StatusCode: http.StatusInternalServerError}, true},
		{"throttled", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"unauthorized", &StatusError{StatusCode: http.StatusUnauthorized}, false},
		{"validation", &StatusError{StatusCode: http.StatusUnprocessableEntity}, false},
		{"plain", errors.New("bad payload"), false},
	}
	for _, tc := range cases {
		if got := IsNetworkError(tc.err); got != tc.want {
			t.Errorf("%s: IsNetworkError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
