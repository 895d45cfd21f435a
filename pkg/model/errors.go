package model

import "fmt"

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation        ErrorCode = "VALIDATION_ERROR"
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrUnsupportedEntity ErrorCode = "UNSUPPORTED_ENTITY"
	ErrUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrForbidden         ErrorCode = "FORBIDDEN"
	ErrInternal          ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the cinedex API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// UnsupportedEntityError is returned when a list, read or write names an
// entity kind that has no registered implementation.
type UnsupportedEntityError struct {
	Kind string
}

func (e *UnsupportedEntityError) Error() string {
	return fmt.Sprintf("unsupported entity %q", e.Kind)
}

// APIError converts the error to its API representation.
func (e *UnsupportedEntityError) APIError() *APIError {
	return &APIError{Code: ErrUnsupportedEntity, Message: e.Error()}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}
