package venice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig configures the transport-level retry decorator enabled by
// WithRetries. Retries happen below the dispatcher, at the RoundTripper
// layer, so the dispatcher itself stays single-shot.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the initial request.
	// Defaults to 2.
	MaxRetries int

	// BaseDelay is the initial backoff delay. Defaults to 1s.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Defaults to 30s.
	MaxDelay time.Duration

	// Jitter is the jitter factor in [0, 1]. Defaults to 0.2.
	Jitter float64

	// StatusCodes lists the response status codes eligible for retries.
	// Defaults to 429, 500, 502, 503, 504.
	StatusCodes []int

	// RespectRetryAfter uses the Retry-After header as the backoff when the
	// server sends one, capped at MaxDelay. Defaults to true when the config
	// comes from DefaultRetryConfig.
	RespectRetryAfter bool
}

// DefaultRetryConfig returns a retry configuration with sensible defaults:
// exponential backoff with jitter, 2 retries, Retry-After honored.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		Jitter:            0.2,
		StatusCodes:       []int{429, 500, 502, 503, 504},
		RespectRetryAfter: true,
	}
}

func (cfg *RetryConfig) applyDefaults() {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.2
	}
	if len(cfg.StatusCodes) == 0 {
		cfg.StatusCodes = []int{429, 500, 502, 503, 504}
	}
}

// retryTransport is an http.RoundTripper decorator that replays requests on
// retryable statuses and transport failures.
type retryTransport struct {
	next http.RoundTripper
	cfg  RetryConfig
}

// withRetryTransport returns a copy of client whose transport retries per cfg.
func withRetryTransport(client *http.Client, cfg RetryConfig) *http.Client {
	cfg.applyDefaults()
	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &retryTransport{next: next, cfg: cfg}
	return &wrapped
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body once so it can be replayed on each attempt. Streaming
	// request bodies are not expected here; the SDK always sends buffered
	// JSON or multipart payloads.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		// RoundTrippers must not modify the caller's request, so each
		// attempt runs on a clone carrying a fresh body reader.
		attemptReq := req.Clone(req.Context())
		if bodyBytes != nil {
			attemptReq.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		} else {
			attemptReq.Body = nil
		}

		resp, err = t.next.RoundTrip(attemptReq)

		if !t.shouldRetry(resp, err) || attempt >= t.cfg.MaxRetries {
			return resp, err
		}

		delay := t.backoff(attempt)
		if t.cfg.RespectRetryAfter && resp != nil {
			if ra := parseRetryAfter(resp.Header.Get("Retry-After")); ra > 0 {
				delay = min(ra, t.cfg.MaxDelay)
			}
		}
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if sleepErr := sleepCtx(req.Context(), delay); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

func (t *retryTransport) shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		// Context cancellation and deadline expiry are the caller's call to
		// stop; everything else transport-level is worth another attempt.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	for _, code := range t.cfg.StatusCodes {
		if resp.StatusCode == code {
			return true
		}
	}
	return false
}

// backoff computes baseDelay * 2^attempt with jitter, capped at MaxDelay.
func (t *retryTransport) backoff(attempt int) time.Duration {
	delay := float64(t.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if t.cfg.Jitter > 0 {
		jitterRange := delay * t.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay > float64(t.cfg.MaxDelay) {
		delay = float64(t.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
