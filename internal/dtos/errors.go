// File: internal/dtos/errors.go
package dtos

import "fmt"

// ValidationError reports a malformed or out-of-range request payload field.
// Handlers translate it into a 400 response at the boundary instead of letting
// bad shapes travel into the services.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
