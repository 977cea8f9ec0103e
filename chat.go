package venice

import (
	"context"
	"fmt"
	"net/http"
)

const chatCompletionsPath = "chat/completions"

// ChatResource groups chat-related endpoints.
type ChatResource struct {
	Completions *ChatCompletionsResource
}

// ChatCompletionsResource exposes the chat completions endpoint.
type ChatCompletionsResource struct {
	client *Client
}

// New creates a model response for the given chat conversation.
func (r *ChatCompletionsResource) New(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletion, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = false

	var completion ChatCompletion
	err := r.client.do(ctx, requestOptions{
		method: http.MethodPost,
		path:   chatCompletionsPath,
		body:   &body,
	}, &completion)
	if err != nil {
		return nil, err
	}
	return &completion, nil
}

// NewStreaming creates a streaming model response. The returned stream
// yields one ChatCompletionChunk per SSE data line until the server sends
// the termination sentinel. The caller must Close the stream.
func (r *ChatCompletionsResource) NewStreaming(ctx context.Context, req *ChatCompletionRequest) (*Stream[ChatCompletionChunk], error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	body := *req
	body.Stream = true

	return streamRequest[ChatCompletionChunk](ctx, r.client, requestOptions{
		method: http.MethodPost,
		path:   chatCompletionsPath,
		body:   &body,
	})
}

// validate rejects requests the API would refuse, before any bytes go out.
func (r *ChatCompletionsResource) validate(req *ChatCompletionRequest) error {
	if req == nil || req.Model == "" {
		return invalidRequestError("model parameter is required and cannot be empty.", http.MethodPost, r.client.baseURL()+"/"+chatCompletionsPath)
	}
	if len(req.Messages) == 0 {
		return invalidRequestError("messages parameter is required and cannot be empty.", http.MethodPost, r.client.baseURL()+"/"+chatCompletionsPath)
	}
	for i, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		default:
			return invalidRequestError(
				fmt.Sprintf("invalid role %q at index %d: valid roles are 'system', 'user', 'assistant', 'tool'.", msg.Role, i),
				http.MethodPost, r.client.baseURL()+"/"+chatCompletionsPath)
		}
		if msg.Role == RoleSystem && i > 0 {
			return invalidRequestError(
				fmt.Sprintf("system message at index %d: system messages must come first.", i),
				http.MethodPost, r.client.baseURL()+"/"+chatCompletionsPath)
		}
		if msg.Content == "" && len(msg.ToolCalls) == 0 {
			return invalidRequestError(
				fmt.Sprintf("message at index %d has no content.", i),
				http.MethodPost, r.client.baseURL()+"/"+chatCompletionsPath)
		}
		if msg.Role == RoleTool && msg.ToolCallID == "" {
			return invalidRequestError(
				fmt.Sprintf("tool message at index %d is missing tool_call_id.", i),
				http.MethodPost, r.client.baseURL()+"/"+chatCompletionsPath)
		}
	}
	return nil
}

// invalidRequestError builds the client-side counterpart of a 400 response
// so parameter validation failures share the API error taxonomy.
func invalidRequestError(message, method, url string) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Message: "HTTP Status 400: " + message,
		Status:  400,
		Method:  method,
		URL:     url,
		Body:    map[string]any{"error": map[string]any{"message": message}},
	}
}
