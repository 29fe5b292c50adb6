// Package errors provides structured error handling for Prism.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents missing file or resource errors
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeIO represents read/write errors
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeParse represents cell parsing errors
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeFormat represents unknown or malformed data format errors
	ErrorTypeFormat ErrorType = "format"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeMissingColumn represents references to columns absent from a header
	ErrorTypeMissingColumn ErrorType = "missing_column"
	// ErrorTypeDuplicateColumn represents attempts to introduce an already present column
	ErrorTypeDuplicateColumn ErrorType = "duplicate_column"
	// ErrorTypeSchemaMismatch represents concatenation of pipelines with differing headers
	ErrorTypeSchemaMismatch ErrorType = "schema_mismatch"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame

	row *int
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.row != nil {
		msg = fmt.Sprintf("%s (row %d)", msg, *e.row)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRow tags the error with the 0-based index of the source row that
// produced it. The first tag wins: once any error in the chain carries a
// row index, later calls leave it untouched.
func (e *Error) WithRow(row int) *Error {
	if _, ok := RowIndex(e); ok {
		return e
	}
	e.row = &row
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsNotFound reports whether the error is a missing file or resource error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// RowIndex reports the 0-based source row index attached to err, if any.
// It walks the unwrap chain, so tags survive later wrapping.
func RowIndex(err error) (int, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok && e.row != nil {
			return *e.row, true
		}
		err = errors.Unwrap(err)
	}
	return 0, false
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
