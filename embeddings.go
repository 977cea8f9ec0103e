package venice

import (
	"context"
	"net/http"
)

const embeddingsPath = "embeddings"

// EmbeddingsResource exposes the embeddings endpoint.
type EmbeddingsResource struct {
	client *Client
}

// EmbeddingRequest is the request body for embedding generation. Input is
// either a single string or a slice of strings.
type EmbeddingRequest struct {
	Model          string `json:"model"`
	Input          any    `json:"input"`
	EncodingFormat string `json:"encoding_format,omitempty"`
	Dimensions     *int   `json:"dimensions,omitempty"`
	User           string `json:"user,omitempty"`
}

// Embedding is a single embedding vector in a response.
type Embedding struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingList is the response for an embedding request.
type EmbeddingList struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  *Usage      `json:"usage,omitempty"`
}

// New generates embeddings for the given input.
func (r *EmbeddingsResource) New(ctx context.Context, req *EmbeddingRequest) (*EmbeddingList, error) {
	url := r.client.baseURL() + "/" + embeddingsPath
	if req == nil || req.Model == "" {
		return nil, invalidRequestError("model parameter is required and cannot be empty.", http.MethodPost, url)
	}
	if emptyInput(req.Input) {
		return nil, invalidRequestError("input cannot be empty.", http.MethodPost, url)
	}

	var list EmbeddingList
	err := r.client.do(ctx, requestOptions{
		method: http.MethodPost,
		path:   embeddingsPath,
		body:   req,
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// emptyInput reports whether the embedding input carries no content.
func emptyInput(input any) bool {
	switch v := input.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
