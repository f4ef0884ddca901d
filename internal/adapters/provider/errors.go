package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse marks a response body that could not be decoded.
var ErrMalformedResponse = errors.New("malformed provider response")

// APIError describes a failed provider call.
// StatusCode is zero when the request never produced an HTTP response.
type APIError struct {
	StatusCode int
	Op         string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("provider %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Body != "":
		return fmt.Sprintf("provider %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("provider %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the call may succeed:
// transport failures, 429 and 5xx are retryable. Other 4xx, malformed bodies and cancellation are not.
func (e *APIError) Retryable() bool {
	if errors.Is(e.Err, ErrMalformedResponse) || errors.Is(e.Err, context.Canceled) {
		return false
	}
	if e.StatusCode == 0 {
		return e.Err != nil
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether err is, or wraps, a retryable APIError.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// ErrorClass buckets the failure for metric tags.
func (e *APIError) ErrorClass() string {
	switch {
	case errors.Is(e.Err, ErrMalformedResponse):
		return "provider_malformed"
	case e.StatusCode == 0:
		return "provider_transport"
	case e.StatusCode == http.StatusTooManyRequests:
		return "provider_rate_limited"
	case e.StatusCode >= http.StatusInternalServerError:
		return "provider_5xx"
	default:
		return "provider_4xx"
	}
}
