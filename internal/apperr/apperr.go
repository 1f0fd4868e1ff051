// Package apperr defines the operational error type handlers construct
// for client-caused failures. Errors carry an HTTP status code and a
// human-readable message; anything that is not an *Error reaching the
// HTTP boundary is treated as an internal failure and masked outside
// development mode.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an operational error with an HTTP status.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an operational error with an explicit status code.
func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches an underlying cause to an operational error.
func Wrap(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }

func Forbidden(message string) *Error { return New(http.StatusForbidden, message) }

func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

func Conflict(message string) *Error { return New(http.StatusConflict, message) }

// Internal wraps an unexpected failure. The message shown to clients is
// decided at the HTTP boundary, not here.
func Internal(err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: "something went wrong", Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
