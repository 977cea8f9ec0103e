package venice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func chunkServer(t *testing.T, body string, status int, assertReq func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if assertReq != nil {
			assertReq(r)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func collectChunks(t *testing.T, stream *Stream[ChatCompletionChunk]) []ChatCompletionChunk {
	t.Helper()
	var chunks []ChatCompletionChunk
	for stream.Next() {
		chunks = append(chunks, stream.Current())
	}
	return chunks
}

func TestStreamDeliversChunksInOrder(t *testing.T) {
	body := `data: {"id":"1","choices":[{"index":0,"delta":{"content":"Hel"}}]}

data: {"id":"2","choices":[{"index":0,"delta":{"content":"lo"}}]}

data: [DONE]
`
	server := chunkServer(t, body, http.StatusOK, func(r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", r.Header.Get("Accept"))
		}
	})
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
		body:   map[string]any{"model": "m", "stream": true},
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}
	defer stream.Close()

	chunks := collectChunks(t, stream)
	if stream.Err() != nil {
		t.Fatalf("Err() = %v, want nil", stream.Err())
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ID != "1" || chunks[1].ID != "2" {
		t.Errorf("chunk order = %q, %q", chunks[0].ID, chunks[1].ID)
	}
	if chunks[0].Choices[0].Delta.Content != "Hel" {
		t.Errorf("first delta = %q, want Hel", chunks[0].Choices[0].Delta.Content)
	}
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	body := `data: {"id":"1"}

data: {not valid json}

data: {"id":"2"}

data: [DONE]
`
	server := chunkServer(t, body, http.StatusOK, nil)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}
	defer stream.Close()

	chunks := collectChunks(t, stream)
	if stream.Err() != nil {
		t.Fatalf("Err() = %v, want nil: malformed lines are skipped, not fatal", stream.Err())
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ID != "1" || chunks[1].ID != "2" {
		t.Errorf("chunks = %q, %q, want the valid lines on either side", chunks[0].ID, chunks[1].ID)
	}
}

func TestStreamStopsAtDoneSentinel(t *testing.T) {
	body := `data: {"id":"1"}

data: [DONE]

data: {"id":"after"}
`
	server := chunkServer(t, body, http.StatusOK, nil)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}
	defer stream.Close()

	chunks := collectChunks(t, stream)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: nothing after [DONE] may be processed", len(chunks))
	}
	if stream.Err() != nil {
		t.Errorf("Err() = %v, want nil", stream.Err())
	}
}

func TestStreamSkipsCommentsAndBlankLines(t *testing.T) {
	body := `: keep-alive

data: {"id":"1"}

: another comment

data: [DONE]
`
	server := chunkServer(t, body, http.StatusOK, nil)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}
	defer stream.Close()

	chunks := collectChunks(t, stream)
	if len(chunks) != 1 || chunks[0].ID != "1" {
		t.Fatalf("chunks = %v, want exactly the one data line", chunks)
	}
}

func TestStreamEndsCleanlyWithoutSentinel(t *testing.T) {
	// Body exhaustion without [DONE] is still normal completion.
	body := `data: {"id":"1"}
`
	server := chunkServer(t, body, http.StatusOK, nil)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}
	defer stream.Close()

	chunks := collectChunks(t, stream)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if stream.Err() != nil {
		t.Errorf("Err() = %v, want nil on EOF", stream.Err())
	}
}

func TestStreamNon2xxYieldsErrorBeforeChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"message": "rate limited"}}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
	})
	if stream != nil {
		t.Fatal("stream must be nil when the open fails")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if apiErr.Kind != KindRateLimit {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindRateLimit)
	}
	if !strings.Contains(apiErr.Message, "rate limited") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestStreamCloseStopsIteration(t *testing.T) {
	body := `data: {"id":"1"}

data: {"id":"2"}

data: [DONE]
`
	server := chunkServer(t, body, http.StatusOK, nil)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}

	if !stream.Next() {
		t.Fatal("first Next() = false, want true")
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if stream.Next() {
		t.Error("Next() after Close() = true, want false")
	}
	// Close is idempotent.
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestByteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("audio-bytes-here"))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	stream, err := client.byteStreamRequest(context.Background(), requestOptions{
		method: http.MethodPost,
		path:   "audio/speech",
		body:   map[string]string{"input": "hi"},
	})
	if err != nil {
		t.Fatalf("byteStreamRequest() error = %v", err)
	}
	defer stream.Close()

	var got []byte
	for stream.Next() {
		got = append(got, stream.Current()...)
	}
	if stream.Err() != nil {
		t.Fatalf("Err() = %v, want nil", stream.Err())
	}
	if string(got) != "audio-bytes-here" {
		t.Errorf("bytes = %q", got)
	}
}

func TestByteStreamNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error": {"message": "down"}}`)
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))

	_, err := client.byteStreamRequest(context.Background(), requestOptions{
		method: http.MethodPost,
		path:   "audio/speech",
	})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if apiErr.Kind != KindServiceUnavailable {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindServiceUnavailable)
	}
}

func TestStreamConnectTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := New("test-key", WithBaseURL(server.URL), WithTimeout(30*time.Millisecond))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
		body:   map[string]any{"model": "m", "stream": true},
	})
	if stream != nil {
		t.Fatal("stream returned despite a connect timeout")
	}
	if !IsKind(err, KindTimeout) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if !strings.Contains(err.Error(), "Stream request timed out") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestStreamOutlivesConnectTimeout(t *testing.T) {
	// The timeout bounds only the wait for response headers; a stream that
	// takes longer than that overall must still deliver every chunk.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"id\":\"1\"}\n\n")
		flusher.Flush()
		time.Sleep(80 * time.Millisecond)
		io.WriteString(w, "data: {\"id\":\"2\"}\n\ndata: [DONE]\n")
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL), WithTimeout(30*time.Millisecond))

	stream, err := streamRequest[ChatCompletionChunk](context.Background(), client, requestOptions{
		method: http.MethodPost,
		path:   "chat/completions",
		body:   map[string]any{"model": "m", "stream": true},
	})
	if err != nil {
		t.Fatalf("streamRequest() error = %v", err)
	}
	defer stream.Close()

	chunks := collectChunks(t, stream)
	if stream.Err() != nil {
		t.Fatalf("Err() = %v, want nil", stream.Err())
	}
	if len(chunks) != 2 || chunks[0].ID != "1" || chunks[1].ID != "2" {
		t.Errorf("chunks = %+v, want both delivered", chunks)
	}
}
