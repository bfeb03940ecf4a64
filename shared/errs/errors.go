// Package errs holds the error taxonomy shared by every service.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means no authenticated actor is present
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the actor's role lacks the required permission
	ErrForbidden = errors.New("insufficient privilege")
	// ErrNotFound covers absent rows, rows of another tenant and rows in the wrong state
	ErrNotFound = errors.New("not found")
	// ErrValidationFailed is matched by every *ValidationError
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError reports malformed input on a single field
type ValidationError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// Invalid builds a ValidationError
func Invalid(field, constraint string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Constraint)
}

// Is lets errors.Is(err, ErrValidationFailed) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Retryable reports whether repeating the operation could succeed.
// Permission and lookup failures never change on retry.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidationFailed):
		return false
	default:
		return true
	}
}
