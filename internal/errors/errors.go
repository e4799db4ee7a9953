// Package errors defines the structured error type used across the sitepack
// pipeline. Every fatal pipeline error carries a category, a stable code and,
// where it applies, the source file that failed so the CLI can report which
// input broke the build.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeIO        ErrorType = "io"
	ErrorTypeBuild     ErrorType = "build"
	ErrorTypeTransform ErrorType = "transform"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeInternal  ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeStatFailed      = "ERR_STAT_FAILED"
	ErrCodeReadFailed      = "ERR_READ_FAILED"
	ErrCodeWriteFailed     = "ERR_WRITE_FAILED"
	ErrCodeWalkFailed      = "ERR_WALK_FAILED"
	ErrCodeMinifyFailed    = "ERR_MINIFY_FAILED"
	ErrCodeBundleFailed    = "ERR_BUNDLE_FAILED"
	ErrCodeIncludeCycle    = "ERR_INCLUDE_CYCLE"
	ErrCodeIncludeMissing  = "ERR_INCLUDE_MISSING"
	ErrCodeCleanupFailed   = "ERR_CLEANUP_FAILED"
	ErrCodeManifestWrite   = "ERR_MANIFEST_WRITE"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInternalFailure = "ERR_INTERNAL"
)

// PackError is a structured error type with pipeline context.
type PackError struct {
	Type     ErrorType
	Code     string
	Message  string
	FilePath string
	Cause    error
}

// Error implements the error interface.
func (e *PackError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PackError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *PackError) Is(target error) bool {
	var t *PackError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithFile attaches the source file the error originated from.
func (e *PackError) WithFile(path string) *PackError {
	e.FilePath = path

	return e
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PackError {
	return &PackError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *PackError {
	return &PackError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTransformError creates a minify/bundle error.
func NewTransformError(code, message string, cause error) *PackError {
	return &PackError{
		Type:    ErrorTypeTransform,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PackError {
	return &PackError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PackError {
	return &PackError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsTransformError checks if an error is a minify/bundle failure.
func IsTransformError(err error) bool {
	var pe *PackError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeTransform
	}

	return false
}

// ErrIncludeCycle creates the fatal error for a circular SSI include chain.
func ErrIncludeCycle(chain []string) *PackError {
	return NewBuildError(
		ErrCodeIncludeCycle,
		"circular include: "+strings.Join(chain, " -> "),
		nil,
	)
}
