package venice

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:        maxRetries,
		BaseDelay:         time.Millisecond,
		MaxDelay:          10 * time.Millisecond,
		Jitter:            0,
		StatusCodes:       []int{429, 500, 502, 503, 504},
		RespectRetryAfter: true,
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL), WithRetries(fastRetryConfig(2)))

	var out map[string]any
	err := client.do(context.Background(), requestOptions{method: http.MethodGet, path: "models"}, &out)
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestRetryExhaustionReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error": {"message": "still down"}}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL), WithRetries(fastRetryConfig(2)))

	err := client.do(context.Background(), requestOptions{method: http.MethodGet, path: "models"}, nil)
	if !IsKind(err, KindServiceUnavailable) {
		t.Fatalf("error = %v, want service_unavailable", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3 (initial + 2 retries)", got)
	}
}

func TestNoRetryOnNonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": {"message": "bad input"}}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL), WithRetries(fastRetryConfig(2)))

	err := client.do(context.Background(), requestOptions{method: http.MethodGet, path: "models"}, nil)
	if !IsKind(err, KindInvalidRequest) {
		t.Fatalf("error = %v, want invalid_request", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestRetryReplaysRequestBody(t *testing.T) {
	var calls atomic.Int32
	var lastBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody = string(body)
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL), WithRetries(fastRetryConfig(2)))

	err := client.do(context.Background(), requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
		body:   map[string]string{"model": "m"},
	}, nil)
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if lastBody != `{"model":"m"}` {
		t.Errorf("retried body = %q, want the original payload", lastBody)
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	var firstAttempt, secondAttempt time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			firstAttempt = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			secondAttempt = time.Now()
			io.WriteString(w, `{}`)
		}
	}))
	defer server.Close()

	cfg := fastRetryConfig(1)
	cfg.MaxDelay = 5 * time.Second
	client := New("test-key", WithBaseURL(server.URL), WithRetries(cfg))

	err := client.do(context.Background(), requestOptions{method: http.MethodGet, path: "models"}, nil)
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if gap := secondAttempt.Sub(firstAttempt); gap < 900*time.Millisecond {
		t.Errorf("retry gap = %v, want at least the Retry-After delay", gap)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := fastRetryConfig(5)
	cfg.BaseDelay = 200 * time.Millisecond
	client := New("test-key", WithBaseURL(server.URL), WithRetries(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := client.do(ctx, requestOptions{method: http.MethodGet, path: "models"}, nil)
	if err == nil {
		t.Fatal("do() error = nil, want cancellation")
	}
	if got := calls.Load(); got > 2 {
		t.Errorf("server saw %d calls, cancellation must stop the retry loop", got)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	rt := &retryTransport{cfg: RetryConfig{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  300 * time.Millisecond,
		Jitter:    0,
	}}

	if got := rt.backoff(0); got != 100*time.Millisecond {
		t.Errorf("backoff(0) = %v, want 100ms", got)
	}
	if got := rt.backoff(1); got != 200*time.Millisecond {
		t.Errorf("backoff(1) = %v, want 200ms", got)
	}
	if got := rt.backoff(5); got != 300*time.Millisecond {
		t.Errorf("backoff(5) = %v, want the 300ms cap", got)
	}
}

func TestRetryDoesNotMutateCallerRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"n":1}` {
			t.Errorf("attempt body = %q, want the original payload", body)
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer server.Close()

	rt := &retryTransport{next: http.DefaultTransport, cfg: fastRetryConfig(2)}

	req, err := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{"n":1}`))
	if err != nil {
		t.Fatal(err)
	}
	origBody := req.Body

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip() error = %v", err)
	}
	resp.Body.Close()

	if req.Body != origBody {
		t.Error("RoundTrip reassigned the caller's request body")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}
