package venice

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// streamDoneSentinel terminates an SSE stream. It is matched after the
// data: prefix and surrounding whitespace are stripped and is never passed
// to the JSON parser.
const streamDoneSentinel = "[DONE]"

// Stream is a lazy, forward-only, single-pass sequence of typed chunks
// decoded from a Server-Sent-Events response body. It owns the underlying
// connection for its lifetime: once fully iterated or closed it yields no
// further items and cannot be restarted.
//
// Usage follows the scanner idiom:
//
//	stream, err := client.Chat.Completions.NewStreaming(ctx, req)
//	if err != nil { ... }
//	defer stream.Close()
//	for stream.Next() {
//	    chunk := stream.Current()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
//
// A Stream must not be iterated from more than one goroutine.
type Stream[T any] struct {
	body   io.ReadCloser
	reader *bufio.Reader
	logger *slog.Logger

	method string
	url    string

	current T
	err     error

	// pending holds a read error observed on the same read that produced
	// the current chunk; it is acted on at the next Next call so the chunk
	// is still delivered.
	pending error
	closed  bool
}

// Next advances the stream to the next chunk. It returns false when the
// stream ends, whether by the [DONE] sentinel, body exhaustion, or a
// failure; check Err afterwards to distinguish failure from completion.
//
// Malformed lines do not end the stream: a line that is not valid JSON is
// logged and skipped, and iteration continues with the next line.
func (s *Stream[T]) Next() bool {
	if s.closed {
		return false
	}
	if s.pending != nil {
		s.finish(s.pending)
		return false
	}

	for {
		line, readErr := s.reader.ReadString('\n')

		payload := strings.TrimSpace(line)
		switch {
		case payload == "" || strings.HasPrefix(payload, ":"):
			// SSE keep-alive or comment.
		default:
			if strings.HasPrefix(payload, "data:") {
				payload = strings.TrimSpace(strings.TrimPrefix(payload, "data:"))
			}
			if payload == streamDoneSentinel {
				s.close()
				return false
			}

			var chunk T
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				s.logger.Error("failed to parse JSON in streaming response",
					"error", err, "payload", payload)
			} else {
				s.current = chunk
				if readErr != nil {
					s.pending = readErr
				}
				return true
			}
		}

		if readErr != nil {
			s.finish(readErr)
			return false
		}
	}
}

// Current returns the chunk produced by the last successful Next call.
func (s *Stream[T]) Current() T {
	return s.current
}

// Err returns the classified error that ended the stream, or nil if the
// stream completed normally (sentinel or body exhaustion).
func (s *Stream[T]) Err() error {
	return s.err
}

// Close releases the underlying connection. It is safe to call multiple
// times and after iteration has finished.
func (s *Stream[T]) Close() error {
	s.close()
	return nil
}

// finish records the terminal read error (EOF means normal completion) and
// releases the connection.
func (s *Stream[T]) finish(readErr error) {
	if !errors.Is(readErr, io.EOF) {
		s.err = classifyTransportError(readErr, s.method, s.url, true)
	}
	s.close()
}

func (s *Stream[T]) close() {
	if s.closed {
		return
	}
	s.closed = true
	s.body.Close()
}

// streamRequest opens a streaming exchange and returns a Stream decoding
// each data: line into T. A non-2xx status is classified and returned
// before any chunk is yielded: a failed stream produces zero chunks and
// one error, never a mix.
func streamRequest[T any](ctx context.Context, c *Client, opts requestOptions) (*Stream[T], error) {
	resp, fullURL, err := c.openStream(ctx, opts, true)
	if err != nil {
		return nil, err
	}
	return &Stream[T]{
		body:   resp.Body,
		reader: bufio.NewReader(resp.Body),
		logger: c.logger(),
		method: opts.method,
		url:    fullURL,
	}, nil
}

// ByteStream is the raw-bytes counterpart of Stream for binary streaming
// payloads (e.g. audio). It applies the same open/classify/release
// discipline but yields non-empty byte chunks directly with no framing or
// parsing; zero-length chunks are skipped.
type ByteStream struct {
	body   io.ReadCloser
	method string
	url    string

	buf     []byte
	current []byte
	err     error
	pending error
	closed  bool
}

// Next advances to the next non-empty chunk of bytes.
func (s *ByteStream) Next() bool {
	if s.closed {
		return false
	}
	if s.pending != nil {
		s.finish(s.pending)
		return false
	}

	for {
		n, readErr := s.body.Read(s.buf)
		if n > 0 {
			s.current = s.buf[:n]
			if readErr != nil {
				s.pending = readErr
			}
			return true
		}
		if readErr != nil {
			s.finish(readErr)
			return false
		}
	}
}

// Current returns the chunk produced by the last successful Next call. The
// returned slice is only valid until the next Next call.
func (s *ByteStream) Current() []byte {
	return s.current
}

// Err returns the classified error that ended the stream, or nil.
func (s *ByteStream) Err() error {
	return s.err
}

// Close releases the underlying connection. Idempotent.
func (s *ByteStream) Close() error {
	s.close()
	return nil
}

func (s *ByteStream) finish(readErr error) {
	if !errors.Is(readErr, io.EOF) {
		s.err = classifyTransportError(readErr, s.method, s.url, true)
	}
	s.close()
}

func (s *ByteStream) close() {
	if s.closed {
		return
	}
	s.closed = true
	s.body.Close()
}

// byteStreamRequest opens a streaming exchange for a binary payload.
func (c *Client) byteStreamRequest(ctx context.Context, opts requestOptions) (*ByteStream, error) {
	resp, fullURL, err := c.openStream(ctx, opts, false)
	if err != nil {
		return nil, err
	}
	return &ByteStream{
		body:   resp.Body,
		method: opts.method,
		url:    fullURL,
		buf:    make([]byte, 8192),
	}, nil
}

// openStream issues the streaming request and verifies the status before
// handing the open body to a stream wrapper. The configured timeout bounds
// only the connect phase, up to response-header receipt: an overall deadline
// sized for a single request would cut long-lived streams short, so once
// headers arrive the exchange runs under the caller's context alone.
func (c *Client) openStream(ctx context.Context, opts requestOptions, sse bool) (*http.Response, string, error) {
	fullURL := c.requestURL(opts)

	var reqBody io.Reader
	if opts.body != nil {
		encoded, err := json.Marshal(opts.body)
		if err != nil {
			return nil, fullURL, &Error{
				Kind:    KindResponseProcessing,
				Message: fmt.Sprintf("Failed to encode request body: %v", err),
				Method:  opts.method,
				URL:     fullURL,
				Err:     err,
			}
		}
		reqBody = bytes.NewReader(encoded)
	}

	ctx, cancel := context.WithCancel(ctx)
	timeout := c.config.Timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	var connectTimer *time.Timer
	if timeout > 0 {
		connectTimer = time.AfterFunc(timeout, cancel)
	}

	httpReq, err := http.NewRequestWithContext(ctx, opts.method, fullURL, reqBody)
	if err != nil {
		cancel()
		return nil, fullURL, classifyTransportError(err, opts.method, fullURL, true)
	}
	headers := c.mergeHeaders(opts)
	if sse && opts.headers.Get("Accept") == "" && !strings.EqualFold(opts.method, http.MethodGet) {
		headers.Set("Accept", "text/event-stream")
	}
	httpReq.Header = headers

	resp, err := c.config.HTTPClient.Do(httpReq)
	connectExpired := connectTimer != nil && !connectTimer.Stop()
	if err != nil {
		cancel()
		if connectExpired {
			err = context.DeadlineExceeded
		}
		return nil, fullURL, classifyTransportError(err, opts.method, fullURL, true)
	}
	if connectExpired {
		resp.Body.Close()
		cancel()
		return nil, fullURL, classifyTransportError(context.DeadlineExceeded, opts.method, fullURL, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, fullURL, c.statusError(resp, respBody, opts.method, fullURL)
	}

	// Closing the body also releases the connect context, covering early
	// breaks by the caller.
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, fullURL, nil
}

// cancelOnCloseBody ties the stream's request context to the body's
// lifetime.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
