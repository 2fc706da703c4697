// Package errors consolidates error definitions for the raintable project.
//
// It provides sentinel errors for all failure conditions, category checking
// functions, and wrapping utilities.
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// Input errors
	ErrNotFound     = errors.New("not found")
	ErrDirNotFound  = errors.New("directory not found")
	ErrFileNotFound = errors.New("file not found")

	// Fragment errors
	ErrFragmentRead   = errors.New("fragment read failed")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrEmptyHeader    = errors.New("empty or missing header")

	// Configuration errors
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrInvalidStrategy = errors.New("invalid combine strategy")
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrMissingField    = errors.New("missing required field")

	// Sink errors
	ErrWriterClosed = errors.New("writer is closed")

	// Internal errors
	ErrInternal = errors.New("internal error")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDirNotFound) ||
		errors.Is(err, ErrFileNotFound)
}

// IsFragmentRead returns true if err is a fragment read error.
func IsFragmentRead(err error) bool {
	return errors.Is(err, ErrFragmentRead)
}

// IsSchemaMismatch returns true if err is a schema mismatch error.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrEmptyHeader)
}

// IsValidation returns true if err is a configuration/validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidStrategy) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrMissingField)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewDirNotFound creates a directory-not-found error with context.
func NewDirNotFound(path string) error {
	return fmt.Errorf("%q: %w", path, ErrDirNotFound)
}

// NewFragmentRead creates a fragment read error naming the offending file.
func NewFragmentRead(path string, cause error) error {
	return fmt.Errorf("%q: %v: %w", path, cause, ErrFragmentRead)
}

// NewSchemaMismatch creates a schema mismatch error naming the offending
// file and the columns that differ from the expected schema.
func NewSchemaMismatch(path string, missing, unexpected []string) error {
	switch {
	case len(missing) > 0 && len(unexpected) > 0:
		return fmt.Errorf("%q: missing columns %v, unexpected columns %v: %w",
			path, missing, unexpected, ErrSchemaMismatch)
	case len(missing) > 0:
		return fmt.Errorf("%q: missing columns %v: %w", path, missing, ErrSchemaMismatch)
	case len(unexpected) > 0:
		return fmt.Errorf("%q: unexpected columns %v: %w", path, unexpected, ErrSchemaMismatch)
	default:
		return fmt.Errorf("%q: %w", path, ErrSchemaMismatch)
	}
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
