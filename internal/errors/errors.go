// Package errors defines the service error taxonomy and its HTTP mapping.
package errors

import (
	"fmt"
	"net/http"
)

// Error codes used in JSON error envelopes.
const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeRateLimit    = "rate_limit_exceeded"
	CodeUnavailable  = "backend_unavailable"
	CodeInternal     = "internal_error"
)

// ServiceError is a domain error carrying the HTTP status it maps to.
// Handlers translate adapter and validation failures into ServiceErrors
// directly; anything else crosses the recovery boundary as a generic 500.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Validation reports malformed or missing input (400).
func Validation(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Unauthorized reports bad credentials (401).
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// NotFound reports a missing resource (404).
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Conflict reports a uniqueness violation (409).
func Conflict(message string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// RateLimitExceeded reports that a client exceeded its request quota (429).
func RateLimitExceeded(limit int, window string) *ServiceError {
	return &ServiceError{
		Code:       CodeRateLimit,
		Message:    fmt.Sprintf("rate limit of %d requests per %s exceeded", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Unavailable reports a transient backend failure that exhausted its retry (500).
func Unavailable(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeUnavailable,
		Message:    "storage backend unavailable",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// Internal reports an unexpected fault (500).
func Internal(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
