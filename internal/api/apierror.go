package api

import (
	"encoding/json"
	"net/http"
)

// APIError is a structured error response. Retryable marks upstream
// failures the client may re-issue unchanged (scan analysis or comp fetch
// being unreachable), as opposed to malformed requests.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// ToJSON converts the error to a response envelope.
func (e *APIError) ToJSON() []byte {
	response := map[string]any{
		"success": false,
		"error":   e,
	}
	data, _ := json.Marshal(response)
	return data
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// ValidationError creates a 400 error for rejected input values.
func ValidationError(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "VALIDATION_ERROR",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *APIError {
	if message == "" {
		message = "Resource not found"
	}
	return &APIError{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// Conflict creates a 409 Conflict error.
func Conflict(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

// UpstreamError creates a 502 error for failing external services.
// Marked retryable: the client should offer a retry/cancel choice.
func UpstreamError(message string) *APIError {
	return &APIError{
		StatusCode: http.StatusBadGateway,
		Code:       "UPSTREAM_ERROR",
		Message:    message,
		Retryable:  true,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *APIError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}
