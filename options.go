package venice

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds configuration for the Venice client.
type Config struct {
	// APIKey is the Venice API key (required).
	APIKey Secret

	// BaseURL is the API base URL. Defaults to https://api.venice.ai/api/v1
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Timeout is the per-request timeout. Defaults to 60 seconds.
	Timeout time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Logger receives recovery-path diagnostics (malformed stream lines,
	// non-JSON error bodies). Defaults to a discard logger.
	Logger *slog.Logger

	// Retry enables transport-level retries when non-nil.
	Retry *RetryConfig
}

// DefaultBaseURL is the default Venice API base URL.
const DefaultBaseURL = "https://api.venice.ai/api/v1"

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 60 * time.Second

// defaultUserAgent identifies the SDK on outbound requests.
const defaultUserAgent = "venice-go"

// Option configures the Venice client.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithLogger sets the logger for recovery-path diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithRetries enables transport-level retries with the given configuration.
// Retries are applied as a RoundTripper decorator; the dispatcher itself
// stays single-shot.
func WithRetries(cfg RetryConfig) Option {
	return func(c *Config) {
		c.Retry = &cfg
	}
}
