package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a referenced entity that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation represents missing or malformed input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeUnauthorized represents an absent or invalid viewer
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeForbidden represents a viewer lacking permission
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeConflict represents a uniqueness violation
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeStore represents persistence failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal is the fallback for untyped errors
	ErrorTypeInternal ErrorType = "internal"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind reports the error category. It is promoted to every typed error below.
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Not found

// ErrNotFound is returned when an article, comment or profile does not exist
type ErrNotFound struct {
	*BaseError
	Entity string
}

func NewNotFound(entity, message string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, message, nil),
		Entity:    entity,
	}
}

// Validation

// ErrValidation collects field-level validation messages.
type ErrValidation struct {
	*BaseError
	Fields map[string][]string
}

// NewValidation returns an empty validation error to be filled with Add.
func NewValidation() *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, "validation failed", nil),
		Fields:    map[string][]string{},
	}
}

// NewValidationFailed is a shortcut for a single failing field.
func NewValidationFailed(field, reason string) *ErrValidation {
	return NewValidation().Add(field, reason)
}

// Add records a message for field and returns the receiver.
func (e *ErrValidation) Add(field, reason string) *ErrValidation {
	e.Fields[field] = append(e.Fields[field], reason)
	return e
}

// HasErrors reports whether any field failed.
func (e *ErrValidation) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns the error when it holds field messages and nil otherwise.
func (e *ErrValidation) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ErrValidation) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Type, e.Message, strings.Join(parts, "; "))
}

// Access

// NewUnauthorized is returned when a viewer is required but absent or invalid
func NewUnauthorized(message string) *BaseError {
	return NewBaseError(ErrorTypeUnauthorized, message, nil)
}

// NewForbidden is returned when the viewer may not act on the entity
func NewForbidden(message string) *BaseError {
	return NewBaseError(ErrorTypeForbidden, message, nil)
}

// Conflict

// ErrConflict is returned when a unique field is already taken
type ErrConflict struct {
	*BaseError
	Field string
}

func NewConflict(field, message string) *ErrConflict {
	return &ErrConflict{
		BaseError: NewBaseError(ErrorTypeConflict, message, nil),
		Field:     field,
	}
}

// Store Errors

// ErrStoreFailure wraps a backend error raised during a named operation
type ErrStoreFailure struct {
	*BaseError
	Operation string
}

func NewStoreFailure(operation string, err error) *ErrStoreFailure {
	return &ErrStoreFailure{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type kinded interface {
	Kind() ErrorType
}

// TypeOf returns the category of the first typed error in err's chain,
// or ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var k kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return ErrorTypeInternal
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
