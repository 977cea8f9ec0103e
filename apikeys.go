package venice

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const (
	apiKeysPath              = "api_keys"
	apiKeysWeb3Path          = "api_keys/generate_web3_key"
	apiKeysRateLimitsPath    = "api_keys/rate_limits"
	apiKeysRateLimitLogsPath = "api_keys/rate_limits/log"
)

// APIKeysResource exposes API key management endpoints. These require an
// admin-type key.
type APIKeysResource struct {
	client *Client
}

// APIKeyType distinguishes inference keys from admin keys.
type APIKeyType string

const (
	APIKeyTypeInference APIKeyType = "INFERENCE"
	APIKeyTypeAdmin     APIKeyType = "ADMIN"
)

// ConsumptionLimit caps how much a key may spend, per currency.
type ConsumptionLimit struct {
	USD *float64 `json:"usd,omitempty"`
	VCU *float64 `json:"vcu,omitempty"`
}

// APIKeyUsage summarizes recent spend for a key.
type APIKeyUsage struct {
	TrailingSevenDays map[string]string `json:"trailingSevenDays"`
}

// APIKey is one key as reported by the management endpoints. The secret
// value is only present on the response to Create.
type APIKey struct {
	APIKey            string           `json:"apiKey,omitempty"`
	APIKeyType        APIKeyType       `json:"apiKeyType"`
	ConsumptionLimits ConsumptionLimit `json:"consumptionLimits"`
	CreatedAt         string           `json:"createdAt,omitempty"`
	Description       string           `json:"description"`
	ExpiresAt         string           `json:"expiresAt,omitempty"`
	ID                string           `json:"id"`
	Last6Chars        string           `json:"last6Chars"`
	LastUsedAt        string           `json:"lastUsedAt,omitempty"`
	Usage             APIKeyUsage      `json:"usage"`
}

// APIKeyList is the envelope returned when listing keys.
type APIKeyList struct {
	Data   []APIKey `json:"data"`
	Object string   `json:"object,omitempty"`
}

// APIKeyListParams paginates a key listing.
type APIKeyListParams struct {
	Page  int
	Limit int
}

// APIKeyCreateRequest describes a key to create.
type APIKeyCreateRequest struct {
	Description      string            `json:"description"`
	APIKeyType       APIKeyType        `json:"apiKeyType"`
	ConsumptionLimit *ConsumptionLimit `json:"consumptionLimit,omitempty"`
	ExpiresAt        string            `json:"expiresAt,omitempty"`
	Web3NetworkID    string            `json:"web3_network_id,omitempty"`
	Web3Address      string            `json:"web3_address,omitempty"`
}

// apiKeyEnvelope wraps single-key responses that arrive under "data".
type apiKeyEnvelope struct {
	Data    *APIKey `json:"data"`
	Success bool    `json:"success"`
}

// apiKeyRetrieveEnvelope wraps retrieve responses, where "data" is a list
// filtered to the requested key.
type apiKeyRetrieveEnvelope struct {
	Data []APIKey `json:"data"`
}

// APIKeyDeleteResponse confirms a key deletion.
type APIKeyDeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Web3Token carries the challenge token used to sign a web3 key request.
type Web3Token struct {
	Data    map[string]string `json:"data"`
	Success bool              `json:"success"`
}

// Web3KeyCreateRequest exchanges a signed challenge for a new API key.
type Web3KeyCreateRequest struct {
	Address          string            `json:"address"`
	Signature        string            `json:"signature"`
	Token            string            `json:"token"`
	APIKeyType       APIKeyType        `json:"apiKeyType,omitempty"`
	Description      string            `json:"description,omitempty"`
	ExpiresAt        string            `json:"expiresAt,omitempty"`
	ConsumptionLimit *ConsumptionLimit `json:"consumptionLimit,omitempty"`
}

// APITier identifies the account's rate limit tier.
type APITier struct {
	ID        string `json:"id"`
	IsCharged bool   `json:"isCharged"`
}

// Balances reports remaining account balances by currency.
type Balances struct {
	USD float64 `json:"USD"`
	VCU float64 `json:"VCU"`
}

// ModelRateLimits lists the rate limits that apply to one model.
type ModelRateLimits struct {
	APIModelID string           `json:"apiModelId"`
	RateLimits []map[string]any `json:"rateLimits"`
}

// RateLimitInfo is the full rate limit status for the authenticated key.
type RateLimitInfo struct {
	AccessPermitted bool              `json:"accessPermitted"`
	APITier         APITier           `json:"apiTier"`
	Balances        Balances          `json:"balances"`
	KeyExpiration   string            `json:"keyExpiration,omitempty"`
	NextEpochBegins string            `json:"nextEpochBegins"`
	RateLimits      []ModelRateLimits `json:"rateLimits"`
}

type rateLimitInfoEnvelope struct {
	Data RateLimitInfo `json:"data"`
}

// RateLimitLog records one rate limit exceedance.
type RateLimitLog struct {
	APIKeyID      string `json:"apiKeyId"`
	ModelID       string `json:"modelId"`
	RateLimitTier string `json:"rateLimitTier"`
	RateLimitType string `json:"rateLimitType"`
	Timestamp     string `json:"timestamp"`
}

// RateLimitLogList is the envelope returned by the rate limit log endpoint.
type RateLimitLogList struct {
	Data   []RateLimitLog `json:"data"`
	Object string         `json:"object,omitempty"`
}

// RateLimitLogParams filters and paginates a rate limit log query.
type RateLimitLogParams struct {
	APIKeyID  string
	StartDate string
	EndDate   string
	Limit     int
	Page      int
}

// List returns the account's API keys. A nil params requests the first page
// with the server's default limit.
func (r *APIKeysResource) List(ctx context.Context, params *APIKeyListParams) (*APIKeyList, error) {
	var q url.Values
	if params != nil {
		q = make(url.Values)
		if params.Page != 0 {
			q.Set("page", strconv.Itoa(params.Page))
		}
		if params.Limit != 0 {
			q.Set("limit", strconv.Itoa(params.Limit))
		}
	}
	var list APIKeyList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   apiKeysPath,
		query:  q,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Create provisions a new API key. The secret value is returned only here
// and cannot be recovered later.
func (r *APIKeysResource) Create(ctx context.Context, req *APIKeyCreateRequest) (*APIKey, error) {
	reqURL := r.client.baseURL() + "/" + apiKeysPath
	if req == nil || req.Description == "" {
		return nil, invalidRequestError("description is required and cannot be empty.", http.MethodPost, reqURL)
	}
	if req.APIKeyType == "" {
		return nil, invalidRequestError("apiKeyType is required and cannot be empty.", http.MethodPost, reqURL)
	}

	var env apiKeyEnvelope
	err := r.client.do(ctx, requestOptions{
		method: http.MethodPost,
		path:   apiKeysPath,
		body:   req,
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, &Error{
			Kind:    KindResponseProcessing,
			Message: "Unexpected response format from API key creation endpoint. Expected a 'data' field.",
			Method:  http.MethodPost,
			URL:     reqURL,
		}
	}
	return env.Data, nil
}

// Retrieve fetches one API key by ID. The secret value is never included.
func (r *APIKeysResource) Retrieve(ctx context.Context, apiKeyID string) (*APIKey, error) {
	reqURL := r.client.baseURL() + "/" + apiKeysPath
	if apiKeyID == "" {
		return nil, invalidRequestError("api_key_id is required and cannot be empty.", http.MethodGet, reqURL)
	}

	q := make(url.Values)
	q.Set("id", apiKeyID)
	var env apiKeyRetrieveEnvelope
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   apiKeysPath,
		query:  q,
	}, &env)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, newStatusError(http.StatusNotFound, "API key not found", nil, http.MethodGet, reqURL)
	}
	return &env.Data[0], nil
}

// Delete permanently revokes an API key.
func (r *APIKeysResource) Delete(ctx context.Context, apiKeyID string) (*APIKeyDeleteResponse, error) {
	reqURL := r.client.baseURL() + "/" + apiKeysPath
	if apiKeyID == "" {
		return nil, invalidRequestError("api_key_id is required and cannot be empty.", http.MethodDelete, reqURL)
	}

	q := make(url.Values)
	q.Set("id", apiKeyID)
	var resp APIKeyDeleteResponse
	err := r.client.do(ctx, requestOptions{
		method: http.MethodDelete,
		path:   apiKeysPath,
		query:  q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetWeb3Token fetches the challenge token for web3 key creation.
func (r *APIKeysResource) GetWeb3Token(ctx context.Context) (*Web3Token, error) {
	var tok Web3Token
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   apiKeysWeb3Path,
	}, &tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// CreateWeb3Key exchanges a signed web3 challenge for a new API key.
func (r *APIKeysResource) CreateWeb3Key(ctx context.Context, req *Web3KeyCreateRequest) (*APIKey, error) {
	reqURL := r.client.baseURL() + "/" + apiKeysWeb3Path
	if req == nil || req.Address == "" || req.Signature == "" || req.Token == "" {
		return nil, invalidRequestError("address, signature and token are required and cannot be empty.", http.MethodPost, reqURL)
	}

	var env apiKeyEnvelope
	err := r.client.do(ctx, requestOptions{
		method: http.MethodPost,
		path:   apiKeysWeb3Path,
		body:   req,
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, &Error{
			Kind:    KindResponseProcessing,
			Message: "Unexpected response format from web3 key creation endpoint. Expected a 'data' field.",
			Method:  http.MethodPost,
			URL:     reqURL,
		}
	}
	return env.Data, nil
}

// GetRateLimits reports the rate limit status for the authenticated key.
func (r *APIKeysResource) GetRateLimits(ctx context.Context) (*RateLimitInfo, error) {
	var env rateLimitInfoEnvelope
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   apiKeysRateLimitsPath,
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// GetRateLimitLogs lists recent rate limit exceedances. A nil params
// requests the API defaults.
func (r *APIKeysResource) GetRateLimitLogs(ctx context.Context, params *RateLimitLogParams) (*RateLimitLogList, error) {
	var q url.Values
	if params != nil {
		q = make(url.Values)
		if params.APIKeyID != "" {
			q.Set("api_key_id", params.APIKeyID)
		}
		if params.StartDate != "" {
			q.Set("start_date", params.StartDate)
		}
		if params.EndDate != "" {
			q.Set("end_date", params.EndDate)
		}
		if params.Limit != 0 {
			q.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Page != 0 {
			q.Set("page", strconv.Itoa(params.Page))
		}
		if len(q) == 0 {
			q = nil
		}
	}
	var list RateLimitLogList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   apiKeysRateLimitLogsPath,
		query:  q,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}
