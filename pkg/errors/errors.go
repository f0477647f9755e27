// Package errors provides the error type used throughout ivm.
//
// Every failure ivm reports is a message meant for the person at the
// terminal. The codes exist so that callers (and tests) can branch on the
// kind of failure without matching on message text:
//   - INVALID_*: input that could not be parsed
//   - NOT_*, NO_*, ALREADY_*: state of the install root
//   - NETWORK_ERROR, UNPACK_FAILED, COMMAND_FAILED, FILESYSTEM: failures of
//     the outside world, usually wrapping the underlying error
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotInstalled, "The version %s is not installed", v)
//	if errors.Is(err, errors.ErrCodeNotInstalled) {
//	    // ...
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileSystem, origErr, "Failed to remove %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"

	// Install root state
	ErrCodeNoVersions       Code = "NO_VERSIONS"
	ErrCodeNotInstalled     Code = "NOT_INSTALLED"
	ErrCodeAlreadyInstalled Code = "ALREADY_INSTALLED"
	ErrCodeVersionNotFound  Code = "VERSION_NOT_FOUND"

	// External failures
	ErrCodeNetwork       Code = "NETWORK_ERROR"
	ErrCodeUnpackFailed  Code = "UNPACK_FAILED"
	ErrCodeCommandFailed Code = "COMMAND_FAILED"
	ErrCodeFileSystem    Code = "FILESYSTEM"

	// Process-level errors
	ErrCodeConfig   Code = "CONFIG"
	ErrCodeLocked   Code = "LOCKED"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a message-carrying error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface. The code is not part of the text.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error without its cause.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
