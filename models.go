package venice

import (
	"context"
	"net/http"
	"net/url"
)

const (
	modelsPath             = "models"
	modelTraitsPath        = "models/traits"
	modelCompatibilityPath = "models/compatibility_mapping"
)

// ModelType filters model listings by functionality class.
type ModelType string

const (
	ModelTypeAll       ModelType = "all"
	ModelTypeText      ModelType = "text"
	ModelTypeImage     ModelType = "image"
	ModelTypeEmbedding ModelType = "embedding"
	ModelTypeTTS       ModelType = "tts"
	ModelTypeUpscale   ModelType = "upscale"
)

// ModelsResource exposes model listing and lookup endpoints.
type ModelsResource struct {
	client *Client
}

// PricingUnit is a cost expressed in both billing currencies.
type PricingUnit struct {
	USD float64 `json:"usd"`
	VCU float64 `json:"vcu"`
}

// ModelPricing carries the per-million-token prices for a model, plus the
// legacy flat fields older listings still return.
type ModelPricing struct {
	Input  *PricingUnit `json:"input,omitempty"`
	Output *PricingUnit `json:"output,omitempty"`

	// Legacy fields, USD and VCU per million tokens.
	InputCostPerMtok     float64 `json:"input_cost_per_mtok,omitempty"`
	OutputCostPerMtok    float64 `json:"output_cost_per_mtok,omitempty"`
	InputCostPerMtokVCU  float64 `json:"input_cost_per_mtok_vcu,omitempty"`
	OutputCostPerMtokVCU float64 `json:"output_cost_per_mtok_vcu,omitempty"`
}

// ModelCapabilities describes what a model supports.
type ModelCapabilities struct {
	Streaming         bool `json:"streaming"`
	Async             bool `json:"async"`
	MaxTokens         int  `json:"max_tokens,omitempty"`
	SupportsFunctions bool `json:"supports_functions,omitempty"`
	SupportsVision    bool `json:"supports_vision,omitempty"`
	SupportsWebSearch bool `json:"supports_web_search,omitempty"`
}

// ModelSpec nests capability, pricing, and trait metadata for one model.
type ModelSpec struct {
	AvailableContextTokens int                `json:"availableContextTokens,omitempty"`
	Capabilities           *ModelCapabilities `json:"capabilities,omitempty"`
	Pricing                *ModelPricing      `json:"pricing,omitempty"`
	Traits                 []string           `json:"traits,omitempty"`
}

// Model is one entry in a model listing.
type Model struct {
	ID        string     `json:"id"`
	Object    string     `json:"object,omitempty"`
	Type      string     `json:"type,omitempty"`
	Created   int64      `json:"created,omitempty"`
	OwnedBy   string     `json:"owned_by,omitempty"`
	ModelSpec *ModelSpec `json:"model_spec,omitempty"`
}

// ModelList is the response for the model listing endpoint.
type ModelList struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
	Type   string  `json:"type,omitempty"`
}

// ModelTraitList maps trait names (semantic shortcuts such as
// "default" or "fastest") to model IDs.
type ModelTraitList struct {
	Object string            `json:"object"`
	Data   map[string]string `json:"data"`
	Type   string            `json:"type,omitempty"`
}

// ModelCompatibilityList maps external model names to Venice model IDs.
type ModelCompatibilityList struct {
	Object string            `json:"object"`
	Data   map[string]string `json:"data"`
	Type   string            `json:"type,omitempty"`
}

// List lists available models, optionally filtered by type. A zero-value
// modelType lists everything.
func (r *ModelsResource) List(ctx context.Context, modelType ModelType) (*ModelList, error) {
	query := url.Values{}
	if modelType != "" {
		query.Set("type", string(modelType))
	}

	var list ModelList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   modelsPath,
		query:  query,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Traits lists model traits, optionally filtered by type.
func (r *ModelsResource) Traits(ctx context.Context, modelType ModelType) (*ModelTraitList, error) {
	query := url.Values{}
	if modelType != "" {
		query.Set("type", string(modelType))
	}

	var traits ModelTraitList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   modelTraitsPath,
		query:  query,
	}, &traits)
	if err != nil {
		return nil, err
	}
	return &traits, nil
}

// Compatibility lists the external-to-Venice model name mapping.
func (r *ModelsResource) Compatibility(ctx context.Context, modelType ModelType) (*ModelCompatibilityList, error) {
	query := url.Values{}
	if modelType != "" {
		query.Set("type", string(modelType))
	}

	var mapping ModelCompatibilityList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodGet,
		path:   modelCompatibilityPath,
		query:  query,
	}, &mapping)
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// Find returns the model with the given ID, or nil when the listing does
// not contain it.
func (r *ModelsResource) Find(ctx context.Context, modelID string) (*Model, error) {
	list, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range list.Data {
		if list.Data[i].ID == modelID {
			return &list.Data[i], nil
		}
	}
	return nil, nil
}

// Capabilities returns the capability set for the given model, or nil when
// the model is unknown or carries no capability metadata.
func (r *ModelsResource) Capabilities(ctx context.Context, modelID string) (*ModelCapabilities, error) {
	model, err := r.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if model == nil || model.ModelSpec == nil {
		return nil, nil
	}
	return model.ModelSpec.Capabilities, nil
}

// Pricing returns the pricing block for the given model, or nil when the
// model is unknown or carries no pricing metadata.
func (r *ModelsResource) Pricing(ctx context.Context, modelID string) (*ModelPricing, error) {
	model, err := r.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if model == nil || model.ModelSpec == nil {
		return nil, nil
	}
	return model.ModelSpec.Pricing, nil
}
