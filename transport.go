package venice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// errorBodyLimit caps how much of a non-JSON error body is carried into the
// error message.
const errorBodyLimit = 500

// requestOptions describes one outbound API call. Constructed by resource
// wrappers and consumed once by the dispatcher.
type requestOptions struct {
	method string
	path   string

	// body is the JSON-serializable request body, or nil.
	body any

	// headers are per-call overrides, merged over the client defaults.
	headers http.Header

	// query holds URL query parameters.
	query url.Values

	// timeout overrides the client timeout for this call when non-zero.
	timeout time.Duration
}

// filePart is one file in a multipart upload, in (field, filename, content)
// form mirroring the wire encoding.
type filePart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

// do performs one JSON HTTP exchange. On success the response body is
// decoded into out when out is non-nil; an empty or non-JSON success body
// leaves out untouched and returns nil (a 204 is a valid result, not an
// error). On a non-2xx status or transport failure the returned error is a
// classified *Error. The response body is always drained and closed before
// do returns.
func (c *Client) do(ctx context.Context, opts requestOptions, out any) error {
	body, err := c.exchange(ctx, opts)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if !json.Valid(body) {
		// A successful response that is not JSON is treated as an empty
		// result, matching the empty-body case.
		c.logger().Debug("discarding non-JSON success body", "method", opts.method, "path", opts.path)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Kind:    KindResponseProcessing,
			Message: fmt.Sprintf("Failed to cast response to %T: %v", out, err),
			Method:  opts.method,
			URL:     c.requestURL(opts),
			Err:     err,
		}
	}
	return nil
}

// doRaw performs one HTTP exchange and returns the raw response bytes
// without JSON decoding. Error semantics match do.
func (c *Client) doRaw(ctx context.Context, opts requestOptions) ([]byte, error) {
	return c.exchange(ctx, opts)
}

// exchange is the single-shot request/response primitive shared by do and
// doRaw. No retries happen here; retry policy, if enabled, lives in the
// transport decorator.
func (c *Client) exchange(ctx context.Context, opts requestOptions) ([]byte, error) {
	fullURL := c.requestURL(opts)

	var reqBody io.Reader
	if opts.body != nil {
		encoded, err := json.Marshal(opts.body)
		if err != nil {
			return nil, &Error{
				Kind:    KindResponseProcessing,
				Message: fmt.Sprintf("Failed to encode request body: %v", err),
				Method:  opts.method,
				URL:     fullURL,
				Err:     err,
			}
		}
		reqBody = bytes.NewReader(encoded)
	}

	ctx, cancel := c.withTimeout(ctx, opts.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, opts.method, fullURL, reqBody)
	if err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}
	httpReq.Header = c.mergeHeaders(opts)

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp, respBody, opts.method, fullURL)
	}

	return respBody, nil
}

// doMultipart performs one multipart/form-data exchange (file uploads). The
// default JSON Content-Type is suppressed so the multipart boundary wins,
// and Accept defaults to */* unless explicitly overridden. On success the
// body is decoded into out when out is non-nil; when raw is true the
// undecoded bytes are returned instead.
func (c *Client) doMultipart(ctx context.Context, opts requestOptions, files []filePart, fields map[string]string, raw bool, out any) ([]byte, error) {
	fullURL := c.requestURL(opts)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		ct := f.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)
		part, err := writer.CreatePart(hdr)
		if err != nil {
			return nil, classifyTransportError(err, opts.method, fullURL, false)
		}
		if _, err := part.Write(f.content); err != nil {
			return nil, classifyTransportError(err, opts.method, fullURL, false)
		}
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, classifyTransportError(err, opts.method, fullURL, false)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}

	ctx, cancel := c.withTimeout(ctx, opts.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, opts.method, fullURL, &buf)
	if err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}
	httpReq.Header = c.multipartHeaders(opts)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err, opts.method, fullURL, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp, respBody, opts.method, fullURL)
	}

	if raw {
		return respBody, nil
	}
	if out != nil && len(bytes.TrimSpace(respBody)) > 0 && json.Valid(respBody) {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, &Error{
				Kind:    KindResponseProcessing,
				Message: fmt.Sprintf("Failed to cast response to %T: %v", out, err),
				Method:  opts.method,
				URL:     fullURL,
				Err:     err,
			}
		}
	}
	return respBody, nil
}

// statusError decodes a non-2xx response body and classifies the failure.
// A body that fails JSON decoding falls back to raw text truncated to 500
// characters so callers still see what the server sent.
func (c *Client) statusError(resp *http.Response, respBody []byte, method, fullURL string) *Error {
	var decoded any
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			text := string(respBody)
			if len(text) > errorBodyLimit {
				text = text[:errorBodyLimit]
			}
			c.logger().Error("error response body is not JSON", "status", resp.StatusCode, "body", text)
			decoded = text
		}
	}

	apiErr := newStatusError(
		resp.StatusCode,
		fmt.Sprintf("API error %d for %s %s", resp.StatusCode, method, fullURL),
		decoded,
		method,
		fullURL,
	)
	apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	return apiErr
}

// requestURL joins the base URL, path, and query parameters.
func (c *Client) requestURL(opts requestOptions) string {
	full := c.baseURL() + "/" + strings.TrimLeft(opts.path, "/")
	if len(opts.query) > 0 {
		full += "?" + opts.query.Encode()
	}
	return full
}

// withTimeout applies the per-call or client-level timeout to ctx.
func (c *Client) withTimeout(ctx context.Context, override time.Duration) (context.Context, context.CancelFunc) {
	timeout := c.config.Timeout
	if override > 0 {
		timeout = override
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// mergeHeaders builds the outbound headers for a JSON exchange: client
// defaults first, then per-call overrides. GET requests carry no body, so
// inherited Content-Type and Accept are stripped unless the caller set them
// explicitly for this call.
func (c *Client) mergeHeaders(opts requestOptions) http.Header {
	headers := c.buildHeaders()
	for key, values := range opts.headers {
		headers.Del(key)
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	if strings.EqualFold(opts.method, http.MethodGet) {
		if opts.headers.Get("Content-Type") == "" {
			headers.Del("Content-Type")
		}
		if opts.headers.Get("Accept") == "" {
			headers.Del("Accept")
		}
	}

	return headers
}

// multipartHeaders starts from a minimal header set (no JSON Content-Type)
// so the multipart writer controls the content type.
func (c *Client) multipartHeaders(opts requestOptions) http.Header {
	defaults := c.buildHeaders()
	headers := make(http.Header)
	if v := defaults.Get("Authorization"); v != "" {
		headers.Set("Authorization", v)
	}
	if v := defaults.Get("User-Agent"); v != "" {
		headers.Set("User-Agent", v)
	}
	for key, values := range opts.headers {
		headers.Del(key)
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	if headers.Get("Accept") == "" {
		headers.Set("Accept", "*/*")
	}
	return headers
}

// parseRetryAfter parses a Retry-After header value, either delta-seconds
// or an HTTP date. Returns zero when absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
