package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return "status error" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 503, 599} {
		if !IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d: expected retryable", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if IsRetryableHTTPStatus(code) {
			t.Fatalf("status %d: expected non-retryable", code)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatalf("nil error: expected non-retryable")
	}
	if !IsRetryableError(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded: expected retryable")
	}
	if IsRetryableError(errors.New("boom")) {
		t.Fatalf("plain error: expected non-retryable")
	}
	if !IsRetryableError(&statusErr{code: 503}) {
		t.Fatalf("503: expected retryable")
	}
	if IsRetryableError(&statusErr{code: 400}) {
		t.Fatalf("400: expected non-retryable")
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	got := RetryAfterDuration(resp, time.Second, 10*time.Second)
	if got != 3*time.Second {
		t.Fatalf("Retry-After honored: want=3s got=%s", got)
	}
	got = RetryAfterDuration(resp, time.Second, 2*time.Second)
	if got != 2*time.Second {
		t.Fatalf("Retry-After capped: want=2s got=%s", got)
	}
	got = RetryAfterDuration(nil, time.Second, 10*time.Second)
	if got != time.Second {
		t.Fatalf("fallback used: want=1s got=%s", got)
	}
}

func TestJitterSleep(t *testing.T) {
	if JitterSleep(0) != 0 {
		t.Fatalf("zero base: expected zero")
	}
	base := time.Second
	for i := 0; i < 50; i++ {
		v := JitterSleep(base)
		if v < 800*time.Millisecond || v > 1200*time.Millisecond {
			t.Fatalf("jitter out of bounds: %s", v)
		}
	}
}
