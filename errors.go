package venice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrorKind identifies one failure category in the closed error taxonomy.
// Every error the SDK returns for a failed exchange carries exactly one kind.
type ErrorKind string

const (
	// HTTP status categories.
	KindInvalidRequest      ErrorKind = "invalid_request"      // 400, 413, 415
	KindAuthentication      ErrorKind = "authentication"       // 401
	KindPaymentRequired     ErrorKind = "payment_required"     // 402
	KindPermissionDenied    ErrorKind = "permission_denied"    // 403
	KindNotFound            ErrorKind = "not_found"            // 404
	KindConflict            ErrorKind = "conflict"             // 409
	KindUnprocessableEntity ErrorKind = "unprocessable_entity" // 422
	KindRateLimit           ErrorKind = "rate_limit"           // 429
	KindServiceUnavailable  ErrorKind = "service_unavailable"  // 503
	KindInternalServer      ErrorKind = "internal_server"      // 500, 502, 504, other 5xx
	KindAPI                 ErrorKind = "api"                  // unhandled 4xx and anything else

	// Transport-level categories. No status code; carry the outbound
	// request description instead.
	KindTimeout    ErrorKind = "timeout"
	KindConnection ErrorKind = "connection"

	// KindResponseProcessing marks a 2xx response whose body could not be
	// decoded into the caller-supplied type. Distinguishable from HTTP and
	// transport failures so schema drift is never mistaken for either.
	KindResponseProcessing ErrorKind = "response_processing"
)

// Error is the single error type returned by the SDK for failed API
// exchanges. The Kind field is the discriminant; the remaining fields are
// populated as far as the failure context allows.
//
// An Error is created exactly once at the boundary where the failure is
// first observed and propagated unchanged; it is never re-wrapped.
type Error struct {
	Kind    ErrorKind
	Message string

	// Status is the HTTP status code, or zero for transport failures.
	Status int

	// Method and URL describe the outbound request. Always set, even when
	// the underlying transport error carried no request.
	Method string
	URL    string

	// Body is the decoded error body when one was available.
	Body any

	// RetryAfter is the parsed Retry-After delay, when the server sent one.
	RetryAfter time.Duration

	// Err is the wrapped lower-level cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chaining.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *venice.Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Kind == kind
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool { return IsKind(err, KindTimeout) }

// IsRateLimit reports whether err is a rate-limit rejection.
func IsRateLimit(err error) bool { return IsKind(err, KindRateLimit) }

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool { return IsKind(err, KindAuthentication) }

// kindForStatus maps an HTTP status code to an error kind. First match wins;
// statuses outside the table fall through to the generic API kind.
func kindForStatus(status int) ErrorKind {
	switch status {
	case 400, 413, 415:
		return KindInvalidRequest
	case 401:
		return KindAuthentication
	case 402:
		return KindPaymentRequired
	case 403:
		return KindPermissionDenied
	case 404:
		return KindNotFound
	case 409:
		return KindConflict
	case 422:
		return KindUnprocessableEntity
	case 429:
		return KindRateLimit
	case 503:
		return KindServiceUnavailable
	}
	if status >= 500 && status < 600 {
		return KindInternalServer
	}
	return KindAPI
}

// newStatusError classifies a non-2xx response into a concrete Error.
//
// message is optional extra context (typically "API error <code> for
// <METHOD> <URL>"). body is the decoded response body: a map for JSON
// bodies, a string for non-JSON fallbacks, or nil. Non-map bodies are
// normalized into {"error": "Non-JSON response from API (status <c>): .."}
// so the stored body shape is consistent.
//
// Classification never fails: every status yields exactly one Error.
func newStatusError(status int, message string, body any, method, url string) *Error {
	if body != nil {
		if _, ok := body.(map[string]any); !ok {
			body = map[string]any{
				"error": fmt.Sprintf("Non-JSON response from API (status %d): %v", status, body),
			}
		}
	}

	msg := fmt.Sprintf("HTTP Status %d", status)
	if message != "" {
		msg = fmt.Sprintf("%s: %s", msg, message)
	}

	if m, ok := body.(map[string]any); ok {
		switch errData := m["error"].(type) {
		case map[string]any:
			detail, _ := errData["message"].(string)
			if detail == "" {
				detail, _ = errData["detail"].(string)
			}
			if detail != "" {
				msg = fmt.Sprintf("%s: %s", msg, detail)
			}
			if code, ok := errData["code"].(string); ok && code != "" {
				msg = fmt.Sprintf("%s (Code: %s)", msg, code)
			}
		case string:
			if errData != "" {
				msg = fmt.Sprintf("%s: %s", msg, errData)
			}
		}
	}

	kind := kindForStatus(status)
	if kind == KindAPI && status >= 400 && status < 500 {
		msg = "Unhandled 4xx error: " + msg
	}

	return &Error{
		Kind:    kind,
		Message: msg,
		Status:  status,
		Method:  method,
		URL:     url,
		Body:    body,
	}
}

// classifyTransportError converts a transport-level failure into a timeout
// or connection Error. The method and URL of the attempted request are
// threaded through so the result always identifies the outbound call, even
// when the cause carries no request of its own. stream adjusts the message
// prefix for failures observed during streaming.
func classifyTransportError(err error, method, url string, stream bool) *Error {
	prefix := "Request"
	if stream {
		prefix = "Stream request"
	}

	if isTimeoutErr(err) {
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("%s timed out: %v", prefix, err),
			Method:  method,
			URL:     url,
			Err:     err,
		}
	}

	return &Error{
		Kind:    KindConnection,
		Message: fmt.Sprintf("%s failed: %v", prefix, err),
		Method:  method,
		URL:     url,
		Err:     err,
	}
}

// isTimeoutErr reports whether err represents a timed-out exchange rather
// than a generic connection failure.
func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
