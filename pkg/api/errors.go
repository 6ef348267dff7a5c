package api

import "fmt"

// ErrorType categorizes an APIError for clients and for HTTP status mapping.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrorTypeForbidden      ErrorType = "forbidden_error"
	ErrorTypeNotFound       ErrorType = "not_found_error"
	ErrorTypeGeneration     ErrorType = "generation_error"
	ErrorTypeExecution      ErrorType = "execution_error"
	ErrorTypeServer         ErrorType = "server_error"
)

// APIError is the structured error returned on the wire.
type APIError struct {
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Param, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError reports a malformed or missing request parameter.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{Type: ErrorTypeInvalidRequest, Param: param, Message: message}
}

// NewForbiddenError reports a request the sandbox boundary rejected.
func NewForbiddenError(message string) *APIError {
	return &APIError{Type: ErrorTypeForbidden, Message: message}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string) *APIError {
	return &APIError{Type: ErrorTypeNotFound, Message: message}
}

// NewGenerationError reports a code-generation failure.
func NewGenerationError(message string) *APIError {
	return &APIError{Type: ErrorTypeGeneration, Message: message}
}

// NewExecutionError reports a task whose execution attempts were exhausted.
func NewExecutionError(message string) *APIError {
	return &APIError{Type: ErrorTypeExecution, Message: message}
}

// NewServerError reports an internal failure.
func NewServerError(message string) *APIError {
	return &APIError{Type: ErrorTypeServer, Message: message}
}
