// Package errors provides coded domain errors shared by the bot's components.
//
// Usage:
//
//	// In components - return typed errors that keep the cause
//	if err := s.store.CreateUser(ctx, u); err != nil {
//	    return errors.Wrap(err, errors.CodeStorage, "create user")
//	}
//
//	// At the orchestrator boundary - branch on the code
//	if errors.Is(err, errors.ErrStorage) {
//	    b.reply(ctx, ref, msgGenericError)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes, one per failure class the bot distinguishes.
const (
	CodeNotFound         Code = "NOT_FOUND"
	CodeValidation       Code = "VALIDATION"
	CodeDecode           Code = "DECODE"
	CodeNetwork          Code = "NETWORK"
	CodeUpstreamRejected Code = "UPSTREAM_REJECTED"
	CodeStorage          Code = "STORAGE"
	CodeTooLarge         Code = "TOO_LARGE"
	CodeInternal         Code = "INTERNAL"
)

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

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation       = &Error{Code: CodeValidation, Message: "validation error"}
	ErrDecode           = &Error{Code: CodeDecode, Message: "decode failure"}
	ErrNetwork          = &Error{Code: CodeNetwork, Message: "network failure"}
	ErrUpstreamRejected = &Error{Code: CodeUpstreamRejected, Message: "upstream rejected request"}
	ErrStorage          = &Error{Code: CodeStorage, Message: "storage failure"}
	ErrTooLarge         = &Error{Code: CodeTooLarge, Message: "too large"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// TooLargef creates a too-large error with a formatted message.
func TooLargef(format string, args ...any) *Error {
	return &Error{Code: CodeTooLarge, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
