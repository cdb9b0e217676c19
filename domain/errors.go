package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeInvalid  ErrorCode = "INVALID"
	ErrCodeConflict ErrorCode = "CONFLICT"
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// FieldViolation describes one rejected input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Details []FieldViolation
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds an INVALID error carrying every field violation.
func NewValidationError(details ...FieldViolation) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: "Validation failed",
		Details: details,
	}
}

// Common domain errors.
var (
	ErrTaskNotFound   = NewError(ErrCodeNotFound, "Task not found")
	ErrTaskExists     = NewError(ErrCodeConflict, "Task with this ID already exists")
	ErrNoChanges      = NewError(ErrCodeInvalid, "No valid fields provided for update")
	ErrInvalidPayload = NewValidationError(FieldViolation{Field: "body", Message: "invalid payload"})
	ErrIDRequired     = NewValidationError(FieldViolation{Field: "id", Message: "id required"})
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Violations returns the field details of a validation error, if any.
func Violations(err error) []FieldViolation {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Details
	}
	return nil
}
