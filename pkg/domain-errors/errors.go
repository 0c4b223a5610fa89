// Package domainerrors carries the error kinds services hand to the transport
// layer. Each error has a Code that the HTTP layer maps to a status; the
// underlying cause stays reachable through errors.Unwrap.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of failure independent of transport.
type Code string

const (
	// CodeInvalidInput marks a request rejected by local validation. It never
	// reaches the upstream directory.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks malformed transport input (bad JSON, bad path params).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks an entity no path could produce.
	CodeNotFound Code = "not_found"
	// CodeRateLimited marks an upstream that kept rate limiting until the retry
	// budget ran out.
	CodeRateLimited Code = "rate_limited"
	// CodeUnavailable marks transport failures and unclassified upstream errors.
	CodeUnavailable Code = "upstream_unavailable"
	// CodeInternal marks anything else.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost domain error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
