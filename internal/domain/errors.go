package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrUnknownBook        = errors.New("unknown book")
	ErrUnknownTranslation = errors.New("unknown translation")
	ErrInvalidReference   = errors.New("invalid reference")

	// ErrStoreUnavailable marks failures of the verse store. It is the only
	// error class that aborts a batch.
	ErrStoreUnavailable = errors.New("verse store unavailable")
)

// FieldError is one rejected field of a record.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field a record failed on. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationErrors wraps errs in a *ValidationError.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
