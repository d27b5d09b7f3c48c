// Package errors provides the domain errors returned by the Boatyard services.
//
// Each error carries a Code that fixes its HTTP status and a Message that is
// shown to the caller verbatim:
//
//	if load.Assigned() {
//	    return errors.Conflict("The load is already loaded on another boat")
//	}
//
// Sentinels match any error with the same code:
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported so callers need a single errors import.
var (
	Is = errors.Is
	As = errors.As
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeValidation   Code = "VALIDATION"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeUpstream     Code = "UPSTREAM"
	CodeUnavailable  Code = "UNAVAILABLE"
	CodeInternal     Code = "INTERNAL"
)

// Relationship conflicts are refusals on an existing resource, so they share 403 with Forbidden.
var statusByCode = map[Code]int{
	CodeNotFound:     http.StatusNotFound,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeConflict:     http.StatusForbidden,
	CodeValidation:   http.StatusBadRequest,
	CodeRateLimited:  http.StatusTooManyRequests,
	CodeUpstream:     http.StatusBadGateway,
	CodeUnavailable:  http.StatusServiceUnavailable,
}

// HTTPStatus returns the HTTP status for c. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of e wrapping err. The message shown to callers is unchanged.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound     = New(CodeNotFound, "not found")
	ErrUnauthorized = New(CodeUnauthorized, "unauthorized")
	ErrForbidden    = New(CodeForbidden, "forbidden")
	ErrValidation   = New(CodeValidation, "validation error")
	ErrConflict     = New(CodeConflict, "conflict")
	ErrUpstream     = New(CodeUpstream, "upstream error")
	ErrUnavailable  = New(CodeUnavailable, "unavailable")
)

// New creates an error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error { return New(CodeUnauthorized, msg) }

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error { return New(CodeForbidden, msg) }

// Validation creates a validation error.
func Validation(msg string) *Error { return New(CodeValidation, msg) }

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return Validation(msg).WithDetails(details)
}

// Conflict creates a relationship conflict error.
func Conflict(msg string) *Error { return New(CodeConflict, msg) }

// RateLimited creates a rate limit error.
func RateLimited(msg string) *Error { return New(CodeRateLimited, msg) }

// Upstream creates an error for a failed call to Google.
func Upstream(msg string) *Error { return New(CodeUpstream, msg) }

// Unavailable creates a service unavailable error.
func Unavailable(msg string) *Error { return New(CodeUnavailable, msg) }
