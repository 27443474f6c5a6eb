package models

import "strings"

// ValidationError reports field-level problems with a request. Handlers map
// it to a 400 response carrying Errors.
type ValidationError struct {
	Errors []FieldError

	// Err optionally identifies the rule that failed so callers can match it
	// with errors.Is.
	Err error
}

// NewValidationError creates a ValidationError from field errors.
func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		if e.Err != nil {
			return "validation failed: " + e.Err.Error()
		}
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, ". ")
}

// Unwrap returns the underlying rule error, if any.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
