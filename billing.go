package venice

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const billingUsagePath = "billing/usage"

// BillingResource exposes billing and usage reporting endpoints.
type BillingResource struct {
	client *Client
}

// BillingCurrency filters usage records by the currency they were billed in.
type BillingCurrency string

const (
	CurrencyUSD BillingCurrency = "USD"
	CurrencyVCU BillingCurrency = "VCU"
)

// BillingUsageParams filters and paginates a usage query. The zero value
// requests the API defaults.
type BillingUsageParams struct {
	// Currency restricts results to charges in one currency.
	Currency BillingCurrency
	// StartDate and EndDate bound the billing period, in ISO 8601 form
	// (for example "2025-01-01T00:00:00Z").
	StartDate string
	EndDate   string
	// Limit is the page size, 1 to 500. The API defaults to 200.
	Limit int
	// Page selects the 1-based result page.
	Page int
	// SortOrder orders records by timestamp, "asc" or "desc".
	SortOrder string
}

// InferenceDetails carries per-request metadata attached to LLM usage
// entries. Absent for other usage types.
type InferenceDetails struct {
	CompletionTokens       float64 `json:"completionTokens,omitempty"`
	PromptTokens           float64 `json:"promptTokens,omitempty"`
	InferenceExecutionTime float64 `json:"inferenceExecutionTime,omitempty"`
	RequestID              string  `json:"requestId,omitempty"`
}

// BillingUsageEntry is one billable event.
type BillingUsageEntry struct {
	Amount           float64           `json:"amount"`
	Currency         BillingCurrency   `json:"currency"`
	InferenceDetails *InferenceDetails `json:"inferenceDetails,omitempty"`
	Notes            string            `json:"notes"`
	PricePerUnitUSD  float64           `json:"pricePerUnitUsd"`
	SKU              string            `json:"sku"`
	Timestamp        string            `json:"timestamp"`
	Units            float64           `json:"units"`
}

// BillingUsagePagination describes the pagination state of a usage response.
type BillingUsagePagination struct {
	Limit      float64 `json:"limit"`
	Page       float64 `json:"page"`
	Total      float64 `json:"total"`
	TotalPages float64 `json:"totalPages"`
}

// BillingUsageResponse is the JSON envelope returned by billing/usage.
type BillingUsageResponse struct {
	Data       []BillingUsageEntry    `json:"data"`
	Pagination BillingUsagePagination `json:"pagination"`
}

func (p *BillingUsageParams) query() url.Values {
	if p == nil {
		return nil
	}
	q := make(url.Values)
	if p.Currency != "" {
		q.Set("currency", string(p.Currency))
	}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	if p.Limit != 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Page != 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// GetUsage retrieves billing usage records, optionally filtered by currency
// and time range. A nil params requests the API defaults.
func (r *BillingResource) GetUsage(ctx context.Context, params *BillingUsageParams) (*BillingUsageResponse, error) {
	var resp BillingUsageResponse
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   billingUsagePath,
		query:  params.query(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUsageCSV retrieves billing usage records as raw CSV bytes, for export.
func (r *BillingResource) GetUsageCSV(ctx context.Context, params *BillingUsageParams) ([]byte, error) {
	headers := make(http.Header)
	headers.Set("Accept", "text/csv")
	return r.client.doRaw(ctx, requestOptions{
		method:  http.MethodGet,
		path:    billingUsagePath,
		query:   params.query(),
		headers: headers,
	})
}
