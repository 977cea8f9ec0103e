// Package venice provides the Go client for the Venice AI API.
//
// The primary entry point is [Client], created with an API key and optional
// configuration:
//
//	client := venice.New(os.Getenv("VENICE_API_KEY"),
//	    venice.WithTimeout(30*time.Second),
//	    venice.WithRetries(venice.DefaultRetryConfig()),
//	)
//
// [NewFromEnv] reads the key from the VENICE_API_KEY environment variable.
//
// # Resources
//
// API endpoints are grouped into resource namespaces on the client:
//
//	resp, err := client.Chat.Completions.New(ctx, &venice.ChatCompletionRequest{
//	    Model: "llama-3.3-70b",
//	    Messages: []venice.ChatMessage{
//	        {Role: venice.RoleUser, Content: "Hello!"},
//	    },
//	})
//
// Available namespaces: Chat.Completions, Models, Image, Audio, Embeddings,
// Billing, APIKeys, and Characters.
//
// # Streaming
//
// Streaming endpoints return a [Stream], a single-use forward-only iterator
// over server-sent events:
//
//	stream, err := client.Chat.Completions.NewStreaming(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for stream.Next() {
//	    chunk := stream.Current()
//	    fmt.Print(chunk.Choices[0].Delta.Content)
//	}
//	if err := stream.Err(); err != nil {
//	    return err
//	}
//
// Iteration ends when the server sends its terminator, the body is
// exhausted, the stream fails, or [Stream.Close] is called. [Stream.Err]
// distinguishes normal completion (nil) from failure.
//
// # Error Handling
//
// Every failed request returns an [*Error] carrying a machine-readable
// [ErrorKind], the HTTP status, the originating method and URL, and the
// parsed response body:
//
//	_, err := client.Models.List(ctx, nil)
//	var apiErr *venice.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == venice.KindRateLimit {
//	    time.Sleep(apiErr.RetryAfter)
//	}
//
// Transport failures (connection errors, timeouts) are classified the same
// way, with a zero Status.
//
// # Thread Safety
//
// [Client] is safe for concurrent use across goroutines. [Stream] and
// [ByteStream] may be read by one goroutine at a time.
package venice
