// File: internal/services/assistant/errors.go
package assistant

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeProvider   ErrorType = "PROVIDER"
	ErrTypeRun        ErrorType = "RUN"
	ErrTypeTimeout    ErrorType = "TIMEOUT"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type AssistantError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("assistant %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("assistant %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AssistantError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *AssistantError {
	return &AssistantError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewProviderError(operation, msg string, cause error) *AssistantError {
	return &AssistantError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewRunError(operation, msg string) *AssistantError {
	return &AssistantError{Type: ErrTypeRun, Operation: operation, Message: msg}
}
