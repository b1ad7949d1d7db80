// Package errors consolidates error definitions for the spectra tools.
//
// This package provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities and typed constructors
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Parse errors
	ErrParse          = errors.New("parse error")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrNotNumeric     = errors.New("value is not numeric")
	ErrEmptyFile      = errors.New("file contains no data rows")

	// Key errors
	ErrKeyCollision = errors.New("key already exists")

	// Retrieval errors
	ErrNotFound   = errors.New("not found")
	ErrEmptyStore = errors.New("store contains no samples")

	// Validation errors
	ErrInvalidSensorType = errors.New("invalid sensor type")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingField      = errors.New("missing required field")

	// Synchronization errors
	ErrSyncFailed   = errors.New("synchronization failed")
	ErrRepoNotFound = errors.New("repository not found")

	// Store errors
	ErrStoreClosed = errors.New("store is closed")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// IsParse returns true if err is a parse error.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrNotNumeric) ||
		errors.Is(err, ErrEmptyFile)
}

// IsCollision returns true if err is a key collision.
func IsCollision(err error) bool {
	return errors.Is(err, ErrKeyCollision)
}

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrEmptyStore) ||
		errors.Is(err, ErrRepoNotFound)
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidSensorType) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField)
}

// IsSync returns true if err is a synchronization error.
func IsSync(err error) bool {
	return errors.Is(err, ErrSyncFailed)
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

// NewParse creates a parse error tagged with the source file.
func NewParse(file, reason string) error {
	return fmt.Errorf("%s: %s: %w", file, reason, ErrParse)
}

// NewSchemaMismatch creates a schema mismatch error for a file.
func NewSchemaMismatch(file, reason string) error {
	return fmt.Errorf("%s: %s: %w", file, reason, ErrSchemaMismatch)
}

// NewNotNumeric creates an error for a cell that failed numeric parsing.
func NewNotNumeric(file, column string, row int) error {
	return fmt.Errorf("%s: row %d, column %q: %w", file, row, column, ErrNotNumeric)
}

// NewKeyCollision creates a key collision error.
func NewKeyCollision(key string) error {
	return fmt.Errorf("sample %q: %w", key, ErrKeyCollision)
}

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s %q: %w", entityType, identifier, ErrNotFound)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewSync creates a synchronization error with the failing step.
func NewSync(step string, cause error) error {
	return fmt.Errorf("%s: %v: %w", step, cause, ErrSyncFailed)
}
