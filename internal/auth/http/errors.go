package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/opencivic/streetfix/internal/auth/service"
	"github.com/opencivic/streetfix/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeConflict       = "conflict"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeRateLimited    = "rate_limited"
	ErrorCodeServerError    = "server_error"
)

// APIError is the JSON error envelope every endpoint returns on failure.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is a stable machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	ErrBadRequestBody = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "Request body is missing or malformed",
	}
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "An internal error occurred",
	}
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "Invalid or missing access token",
	}
)

// writeServiceError maps service error kinds onto HTTP responses. Wrapped
// causes keep their message; unknown errors collapse into a 500 without
// leaking internals.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		(&APIError{
			StatusCode:  http.StatusUnauthorized,
			Code:        ErrorCodeUnauthorized,
			Description: err.Error(),
		}).WriteError(w)
	case errors.Is(err, service.ErrConflict):
		(&APIError{
			StatusCode:  http.StatusConflict,
			Code:        ErrorCodeConflict,
			Description: err.Error(),
		}).WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		(&APIError{
			StatusCode:  http.StatusNotFound,
			Code:        ErrorCodeNotFound,
			Description: err.Error(),
		}).WriteError(w)
	case errors.Is(err, service.ErrRateLimited):
		(&APIError{
			StatusCode:  http.StatusTooManyRequests,
			Code:        ErrorCodeRateLimited,
			Description: err.Error(),
		}).WriteError(w)
	case errors.Is(err, service.ErrBadRequest):
		(&APIError{
			StatusCode:  http.StatusBadRequest,
			Code:        ErrorCodeInvalidRequest,
			Description: err.Error(),
		}).WriteError(w)
	default:
		ErrServerError.WriteError(w)
	}
}
