// Package core provides core types and interfaces for the claim-rejection resolution engine.
package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeConfiguration indicates a missing or invalid live-mode configuration (fatal, not retried)
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeRateLimit indicates the live-mode call gate rejected the call (429)
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
	// ErrorTypeBackend indicates the completion backend failed or returned unusable content (502)
	ErrorTypeBackend ErrorType = "backend_error"
	// ErrorTypeInvalidRequest indicates a client error (4xx)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAuthentication indicates an authentication error (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
)

// EngineError is the base error type for all resolution engine errors
type EngineError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// RetryAfter is the remaining wait before a rate-limited call may proceed
	RetryAfter time.Duration `json:"-"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *EngineError) Unwrap() error {
	return e.Err
}

// RetryAfterMs returns the remaining wait in whole milliseconds, rounded up.
func (e *EngineError) RetryAfterMs() int64 {
	if e.RetryAfter <= 0 {
		return 0
	}
	ms := e.RetryAfter / time.Millisecond
	if e.RetryAfter%time.Millisecond != 0 {
		ms++
	}
	return int64(ms)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *EngineError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeBackend:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *EngineError) ToJSON() map[string]interface{} {
	body := map[string]interface{}{
		"type":    e.Type,
		"message": e.Message,
	}
	if e.Type == ErrorTypeRateLimit {
		body["retry_after_ms"] = e.RetryAfterMs()
	}
	return map[string]interface{}{"error": body}
}

// NewConfigurationError creates a new configuration error (500)
func NewConfigurationError(message string) *EngineError {
	return &EngineError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewRateLimitError creates a new rate limit error (429) carrying the remaining wait
func NewRateLimitError(retryAfter time.Duration) *EngineError {
	err := &EngineError{
		Type:       ErrorTypeRateLimit,
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
	err.Message = fmt.Sprintf("rate limit exceeded, retry after %dms", err.RetryAfterMs())
	return err
}

// NewBackendError creates a new completion backend error (upstream failure)
func NewBackendError(provider string, statusCode int, message string, err error) *EngineError {
	return &EngineError{
		Type:       ErrorTypeBackend,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Err:        err,
	}
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *EngineError {
	return &EngineError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(provider string, message string) *EngineError {
	return &EngineError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Provider:   provider,
	}
}

// ParseBackendError parses an error response from a completion backend.
// Every upstream failure maps to a backend error; the upstream status is kept in
// the message so operators can tell a bad credential from an outage.
func ParseBackendError(provider string, statusCode int, body []byte, originalErr error) *EngineError {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &errorResponse); err == nil && errorResponse.Error.Message != "" {
		message = errorResponse.Error.Message
	}

	return NewBackendError(provider, http.StatusBadGateway,
		fmt.Sprintf("upstream status %d: %s", statusCode, message), originalErr)
}
