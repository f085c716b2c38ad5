// Copyright (c) 2026 NZELA. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error type for the NZELA API.

It bridges low-level storage and domain failures to the HTTP rejection envelope.

Architecture:

  - AppError: machine-readable Code, optional Reason, client-safe Message.
  - Reason: the auth rejection class a client can branch on ("unauthenticated",
    "session_expired", "insufficient_privilege", "invalid_credentials").
  - Mapping: every constructor fixes the HTTP status.

Every error that leaves the service layer should be an [AppError] or be wrapped by
[Internal] in the transport layer.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Rejection reasons exposed to clients.
const (
	ReasonUnauthenticated       = "unauthenticated"
	ReasonSessionExpired        = "session_expired"
	ReasonInsufficientPrivilege = "insufficient_privilege"
	ReasonInvalidCredentials    = "invalid_credentials"
)

// AppError is the canonical error type for the NZELA API.
//
// # Security
//
// Cause is for server-side logging only and is never serialized.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Reason is the auth rejection class, empty for non-auth errors.
	Reason string `json:"reason,omitempty"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
	// RetryAfter is sent as the Retry-After header when positive, in seconds.
	RetryAfter int `json:"-"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause returns a copy of e carrying cause. Package-level sentinel errors stay untouched.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// BadRequest creates a 400 [AppError] with a custom code.
func BadRequest(code, msg string) *AppError {
	return &AppError{
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Unauthenticated creates a 401 [AppError] for a missing, garbled or unknown credential.
func Unauthenticated(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Reason:     ReasonUnauthenticated,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// SessionExpired creates a 401 [AppError] for a well-formed credential past its TTL.
func SessionExpired() *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Reason:     ReasonSessionExpired,
		Message:    "Session expired, please log in again",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidCredentials creates the single 401 [AppError] used for every failed login.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIALS",
		Reason:     ReasonInvalidCredentials,
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InsufficientPrivilege creates a 403 [AppError].
func InsufficientPrivilege(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Reason:     ReasonInsufficientPrivilege,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
		RetryAfter: retryAfterSeconds,
	}
}

// Unprocessable creates a 422 [AppError] for semantically invalid input.
func Unprocessable(msg string) *AppError {
	return &AppError{
		Code:       "UNPROCESSABLE",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasReason reports whether err carries an [AppError] with the given reason.
func HasReason(err error, reason string) bool {
	ae := As(err)
	return ae != nil && ae.Reason == reason
}
