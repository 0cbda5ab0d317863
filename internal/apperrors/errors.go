// Package apperrors provides coded domain errors shared by the auth, expense
// and HTTP layers.
package apperrors

import "errors"

// Error is the domain error type with structured metadata.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Client-safe message
	Fields  []string // Per-field validation messages
	Cause   error    // Wrapped underlying error, never shown to clients
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithFields creates a validation-style error carrying per-field messages.
func WithFields(code Code, message string, fields []string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Fields:  fields,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}
