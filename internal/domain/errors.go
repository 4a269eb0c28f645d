package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of a request error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates a missing or invalid API key.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypePermission indicates an origin check failure.
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeRateLimit indicates rate limiting was triggered.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeWebhookNetwork indicates a transport-level failure calling
	// an external endpoint. Recovered locally, never surfaced as non-200.
	ErrorTypeWebhookNetwork ErrorType = "webhook_network"

	// ErrorTypeWebhookHTTP indicates a non-2xx answer from an external
	// endpoint. Recovered locally, never surfaced as non-200.
	ErrorTypeWebhookHTTP ErrorType = "webhook_http"

	// ErrorTypeBackupWrite indicates a local persistence failure. Logged
	// only; never surfaced as a request failure.
	ErrorTypeBackupWrite ErrorType = "backup_write"

	// ErrorTypeInterpretation indicates an unexpected webhook response
	// shape. Recovered via fallback synthesis.
	ErrorTypeInterpretation ErrorType = "interpretation"
)

// APIError is the canonical request error. Only the invalid_request,
// authentication, permission, and rate_limit types ever reach the wire;
// the webhook/backup/interpretation types are folded into the
// SubmissionResult.
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`

	// Fields carries field-level validation detail (field name -> message).
	Fields map[string]string `json:"fields,omitempty"`

	// StatusCode is the suggested HTTP status code.
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithFields attaches field-level validation detail to the error.
func (e *APIError) WithFields(fields map[string]string) *APIError {
	e.Fields = fields
	return e
}

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message)
}

// ErrAuthentication creates an authentication error.
func ErrAuthentication(message string) *APIError {
	return NewAPIError(ErrorTypeAuthentication, message)
}

// ErrPermission creates a permission error.
func ErrPermission(message string) *APIError {
	return NewAPIError(ErrorTypePermission, message)
}

// ErrRateLimit creates a rate limit error.
func ErrRateLimit(message string) *APIError {
	return NewAPIError(ErrorTypeRateLimit, message)
}
