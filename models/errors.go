package models

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid input field
type FieldError struct {
	// Field is the path of the invalid field, ex., sections[0].name
	Field string `json:"field"`

	// Message explains what is wrong, meant for users
	Message string `json:"message"`
}

// ValidationError indicates the caller supplied malformed input. Nothing was read
// or written.
type ValidationError struct {
	Fields []FieldError
}

// Error implements error
func (e *ValidationError) Error() string {
	msgs := []string{}
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}

	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, ", "))
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}}}
}

// NotFoundError indicates a record does not exist or is outside the actor's scope.
// The two cases are never distinguished.
type NotFoundError struct {
	// What was being looked up
	What string
}

// Error implements error
func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found or access denied", e.What)
}

// AuthorizationError indicates the actor's role does not permit an action
type AuthorizationError struct {
	// Action which was attempted
	Action string

	// Role of the actor
	Role Role
}

// Error implements error
func (e AuthorizationError) Error() string {
	role := string(e.Role)
	if len(role) == 0 {
		role = "none"
	}

	return fmt.Sprintf("role %s may not %s", role, e.Action)
}

// RetrievalError wraps a persistence failure
type RetrievalError struct {
	// Op is the operation which failed
	Op string

	// Err is the underlying error
	Err error
}

// Error implements error
func (e RetrievalError) Error() string {
	return fmt.Sprintf("failed to %s: %s", e.Op, e.Err.Error())
}

// Unwrap returns the underlying error
func (e RetrievalError) Unwrap() error {
	return e.Err
}
