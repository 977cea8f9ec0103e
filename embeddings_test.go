package venice

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbeddingsNew(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("Path = %q, want /embeddings", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{
			"object": "list",
			"data": [
				{"object": "embedding", "index": 0, "embedding": [0.1, -0.2, 0.3]},
				{"object": "embedding", "index": 1, "embedding": [0.4, 0.5, -0.6]}
			],
			"model": "text-embedding-bge-m3",
			"usage": {"prompt_tokens": 8, "total_tokens": 8}
		}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	list, err := client.Embeddings.New(context.Background(), &EmbeddingRequest{
		Model: "text-embedding-bge-m3",
		Input: []string{"first", "second"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(list.Data) != 2 {
		t.Fatalf("len(Data) = %d, want 2", len(list.Data))
	}
	if list.Data[1].Index != 1 || list.Data[1].Embedding[2] != -0.6 {
		t.Errorf("Data[1] = %+v", list.Data[1])
	}
	if list.Usage == nil || list.Usage.TotalTokens != 8 {
		t.Errorf("Usage = %+v", list.Usage)
	}

	inputs, ok := gotBody["input"].([]any)
	if !ok || len(inputs) != 2 || inputs[0] != "first" {
		t.Errorf("request input = %v", gotBody["input"])
	}
}

func TestEmbeddingsValidation(t *testing.T) {
	client := New("test-key")

	tests := []struct {
		name string
		req  *EmbeddingRequest
	}{
		{"nil request", nil},
		{"missing model", &EmbeddingRequest{Input: "text"}},
		{"nil input", &EmbeddingRequest{Model: "m"}},
		{"empty string input", &EmbeddingRequest{Model: "m", Input: ""}},
		{"empty slice input", &EmbeddingRequest{Model: "m", Input: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Embeddings.New(context.Background(), tt.req)
			if !IsKind(err, KindInvalidRequest) {
				t.Errorf("error = %v, want invalid_request", err)
			}
		})
	}
}

func TestEmbeddingsSingleStringInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["input"] != "one string" {
			t.Errorf("input = %v, want plain string", body["input"])
		}
		io.WriteString(w, `{"object":"list","data":[],"model":"m"}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	_, err := client.Embeddings.New(context.Background(), &EmbeddingRequest{
		Model: "m",
		Input: "one string",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
}
