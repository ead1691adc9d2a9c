package shared

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies domain errors so callers can branch on them without
// comparing messages.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindSelfMerge         ErrorKind = "SELF_MERGE"
	KindConflict          ErrorKind = "CONFLICT"
	KindStorage           ErrorKind = "STORAGE"
)

// FieldError describes one violated field of a ValidationError
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind    `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches on kind so that errors.Is(err, ErrNotFound) holds for every
// not-found error regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Common domain errors, usable as errors.Is targets
var (
	ErrValidation        = NewDomainError(KindValidation, "VALIDATION_ERROR", "Invalid input provided")
	ErrNotFound          = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrInvalidTransition = NewDomainError(KindInvalidTransition, "INVALID_TRANSITION", "Operation not allowed in current state")
	ErrSelfMerge         = NewDomainError(KindSelfMerge, "SELF_MERGE", "A supplier cannot be merged into itself")
	ErrConflict          = NewDomainError(KindConflict, "CONFLICT", "Resource was modified by another process")
	ErrStorage           = NewDomainError(KindStorage, "STORAGE_ERROR", "An unexpected storage error occurred")
)

// NewValidationError builds a ValidationError listing every violated field
func NewValidationError(fields ...FieldError) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: "Invalid input provided",
		Fields:  fields,
	}
}

// NewNotFoundError reports a missing or tombstoned entity
func NewNotFoundError(entity string, id fmt.Stringer) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewInvalidTransitionError reports a lifecycle rule violation
func NewInvalidTransitionError(message string) *DomainError {
	return &DomainError{
		Kind:    KindInvalidTransition,
		Code:    "INVALID_TRANSITION",
		Message: message,
	}
}

// NewConflictError wraps a unique-constraint or optimistic-lock violation
func NewConflictError(message string, cause error) *DomainError {
	return &DomainError{
		Kind:    KindConflict,
		Code:    "CONFLICT",
		Message: message,
		cause:   cause,
	}
}

// NewStorageError wraps an infrastructure failure. The message stays generic;
// the cause is only reachable through errors.Unwrap.
func NewStorageError(cause error) *DomainError {
	return &DomainError{
		Kind:    KindStorage,
		Code:    "STORAGE_ERROR",
		Message: "An unexpected storage error occurred",
		cause:   cause,
	}
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// FieldErrors accumulates field violations in order
type FieldErrors []FieldError

// Add records a violation
func (f *FieldErrors) Add(field, message string) {
	*f = append(*f, FieldError{Field: field, Message: message})
}

// Err returns a ValidationError when at least one violation was recorded
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError(f...)
}
