package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a local, synchronous failure raised where it is detected.
//
// Errors are never retried inside the engines. The categories are:
//   - Validation: malformed or missing required input
//   - Invariant: a chain of steps has the wrong shape
//   - Inventory exhausted: an allocation cannot be satisfied
//   - Not found: a referenced unit or node could not be resolved
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// IDs names the offending records, if any.
	IDs []string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION"
	ErrCodeInvariant          ErrorCode = "INVARIANT"
	ErrCodeInventoryExhausted ErrorCode = "INVENTORY_EXHAUSTED"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.IDs) > 0 {
		return fmt.Sprintf("%s: %s (ids=%s)", e.Code, e.Message, strings.Join(e.IDs, ","))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates an Error for malformed input.
func NewValidationError(message string, ids ...string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, IDs: ids}
}

// NewInvariantError creates an Error for a chain with the wrong shape,
// naming what was expected and what was found.
func NewInvariantError(id, expected, actual string) *Error {
	return &Error{
		Code:    ErrCodeInvariant,
		Message: fmt.Sprintf("expected %s, got %s", expected, actual),
		IDs:     []string{id},
		Details: map[string]string{
			"expected": expected,
			"actual":   actual,
		},
	}
}

// NewNotFoundError creates an Error for records that could not be resolved.
func NewNotFoundError(what string, ids ...string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", what),
		IDs:     ids,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsInvariantError reports whether err is a domain-invariant violation.
func IsInvariantError(err error) bool { return CodeOf(err) == ErrCodeInvariant }

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsInventoryError reports whether err is an inventory-exhaustion error.
func IsInventoryError(err error) bool { return CodeOf(err) == ErrCodeInventoryExhausted }
