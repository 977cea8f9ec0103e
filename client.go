package venice

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// DefaultAPIKeyEnvVar is the environment variable name for the Venice API key.
const DefaultAPIKeyEnvVar = "VENICE_API_KEY"

// ErrAPIKeyNotSet is returned when no API key is supplied and the
// VENICE_API_KEY environment variable is not set.
var ErrAPIKeyNotSet = errors.New("venice: VENICE_API_KEY environment variable not set")

// Client is the entry point for the Venice AI API.
// Client is safe for concurrent use.
//
// API capabilities are organized into resource namespaces:
//
//	client := venice.New("my-api-key")
//	resp, err := client.Chat.Completions.New(ctx, &venice.ChatCompletionRequest{...})
type Client struct {
	config Config

	// Resource namespaces.
	Chat       *ChatResource
	Models     *ModelsResource
	Image      *ImageResource
	Audio      *AudioResource
	Embeddings *EmbeddingsResource
	Billing    *BillingResource
	APIKeys    *APIKeysResource
	Characters *CharactersResource
}

// New creates a new Venice client with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	cfg := Config{
		APIKey:     NewSecret(strings.TrimSpace(apiKey)),
		BaseURL:    DefaultBaseURL,
		HTTPClient: http.DefaultClient,
		Timeout:    DefaultTimeout,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Retry != nil {
		cfg.HTTPClient = withRetryTransport(cfg.HTTPClient, *cfg.Retry)
	}

	c := &Client{config: cfg}
	c.Chat = &ChatResource{Completions: &ChatCompletionsResource{client: c}}
	c.Models = &ModelsResource{client: c}
	c.Image = &ImageResource{client: c}
	c.Audio = &AudioResource{client: c}
	c.Embeddings = &EmbeddingsResource{client: c}
	c.Billing = &BillingResource{client: c}
	c.APIKeys = &APIKeysResource{client: c}
	c.Characters = &CharactersResource{client: c}
	return c
}

// NewFromEnv creates a new Venice client using the VENICE_API_KEY
// environment variable.
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(DefaultAPIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return New(apiKey, opts...), nil
}

// baseURL returns the configured base URL without a trailing slash.
func (c *Client) baseURL() string {
	return strings.TrimRight(c.config.BaseURL, "/")
}

// logger returns the configured diagnostics logger.
func (c *Client) logger() *slog.Logger {
	return c.config.Logger
}

// buildHeaders constructs the default HTTP headers for a JSON API request.
// Per-call headers are merged on top by the dispatcher.
func (c *Client) buildHeaders() http.Header {
	headers := make(http.Header)

	if !c.config.APIKey.IsEmpty() {
		headers.Set("Authorization", "Bearer "+c.config.APIKey.Expose())
	}
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")

	ua := c.config.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	headers.Set("User-Agent", ua)

	for key, values := range c.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}
