// Package errors provides structured error types for pangraph.
//
// Every failure the core reports to a caller carries a [Code], so a CLI, an
// HTTP handler, or a UI can pick a message or a fallback without matching on
// error strings.
//
// # Error Codes
//
//   - FORMAT_ERROR: a record of the input file could not be parsed. These are
//     non-fatal during ingestion; the record is skipped and the rest of the
//     file is kept.
//   - MIXED_BASIS: a genome identifier does not fit the basis (integer or
//     symbolic) chosen from the first record. A subkind of FORMAT_ERROR.
//   - IO_ERROR: the source or a cache artifact could not be read or written.
//     Fatal for the current operation.
//   - CACHE_CORRUPT: a snapshot exists but does not decode. Callers fall back
//     to re-ingesting the source.
//   - CACHE_STALE: a snapshot exists but no longer matches its source.
//
// # Usage
//
//	err := errors.Format(lineNo, "segment id %q is not an integer", field)
//	if errors.IsFormat(err) {
//	    // skip the record, keep going
//	}
//
//	err := errors.Wrap(errors.ErrCodeIO, origErr, "open %s", path)
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
	ErrCodeFormat       Code = "FORMAT_ERROR"
	ErrCodeMixedBasis   Code = "MIXED_BASIS"
	ErrCodeInvalidInput Code = "INVALID_INPUT"

	// Storage errors
	ErrCodeIO           Code = "IO_ERROR"
	ErrCodeCacheCorrupt Code = "CACHE_CORRUPT"
	ErrCodeCacheStale   Code = "CACHE_STALE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Line    int    // 1-based source line, 0 when not tied to a line
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
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

// Format creates a FORMAT_ERROR tied to a source line.
func Format(line int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeFormat,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	}
}

// MixedBasis creates a MIXED_BASIS error tied to a source line.
func MixedBasis(line int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMixedBasis,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	}
}

// Corrupt creates a CACHE_CORRUPT error for the artifact at path.
func Corrupt(path string, line int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeCacheCorrupt,
		Message: fmt.Sprintf("%s: %s", path, fmt.Sprintf(format, args...)),
		Line:    line,
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

// IsFormat reports whether err is a per-record parse failure, including
// MIXED_BASIS.
func IsFormat(err error) bool {
	switch GetCode(err) {
	case ErrCodeFormat, ErrCodeMixedBasis:
		return true
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Line > 0 {
			return fmt.Sprintf("line %d: %s", e.Line, e.Message)
		}
		return e.Message
	}
	return err.Error()
}
