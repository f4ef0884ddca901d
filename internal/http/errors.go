package httpx

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	apperrors "github.com/linkscore/linkscore-api/internal/errors"
)

// StatusFor maps an application error code to an HTTP status.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeStateConflict:
		return http.StatusBadRequest
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case apperrors.ErrCodeAPI:
		return http.StatusBadGateway
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeNotReady, apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeCanceled:
		return 499
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// WriteAppError renders err as a JSON error response. Errors without an application
// code are treated as internal; their details are logged and not returned to the caller.
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := apperrors.GetCode(err)
	switch {
	case code != "":
	case errors.Is(err, context.DeadlineExceeded):
		code = apperrors.ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		code = apperrors.ErrCodeCanceled
	default:
		code = apperrors.ErrCodeInternal
	}
	status := StatusFor(code)

	body := errorBody{Error: string(code), Message: err.Error(), Field: apperrors.GetField(err)}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(r.Context(), "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("code", string(code)),
				slog.Any("error", err))
		}
		if code == apperrors.ErrCodeInternal {
			body.Message = "internal server error"
		}
	}
	if code == apperrors.ErrCodeRateLimited {
		if d := apperrors.GetRetryAfter(err); d > 0 {
			secs := int(math.Ceil(d.Seconds()))
			body.RetryAfter = secs
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}
	WriteJSON(w, status, body)
}
