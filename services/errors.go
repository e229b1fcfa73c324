package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeMissingAttribute ErrorType = "missing_attribute"
	ErrorTypeMalformedContext ErrorType = "malformed_context"
	ErrorTypeTransport        ErrorType = "transport"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeClosed           ErrorType = "closed"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeConflict         ErrorType = "conflict"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

var (
	// ErrMissingAttribute matches any MissingAttributeError with errors.Is
	ErrMissingAttribute = NewDomainError(ErrorTypeMissingAttribute, "missing attribute", nil)

	// ErrMalformedContext matches any MalformedContextError with errors.Is
	ErrMalformedContext = NewDomainError(ErrorTypeMalformedContext, "malformed context", nil)

	// ErrHandlerClosed is returned when a closed batch handler is used
	ErrHandlerClosed = NewDomainError(ErrorTypeClosed, "handler already closed", nil)

	// ErrNoFormatter is returned when a batch handler is closed without a formatter
	ErrNoFormatter = NewDomainError(ErrorTypeValidation, "no formatter configured", nil)

	// ErrNotFound matches any NotFoundError
	ErrNotFound = NewDomainError(ErrorTypeNotFound, "resource not found", nil)

	// ErrConflict matches any ConflictError
	ErrConflict = NewDomainError(ErrorTypeConflict, "resource conflict", nil)
)

// NewNotFoundError creates a not found error for a resource
func NewNotFoundError(resource string, id interface{}) *DomainError {
	return NewDomainError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), nil).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *DomainError {
	return NewDomainError(ErrorTypeConflict, message, nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, err)
}

// NewMissingAttributeError reports an entity attribute that was expected but absent.
// The offending key is stored under the "key" detail.
func NewMissingAttributeError(key string, err error) *DomainError {
	msg := "attribute access failed"
	if key != "" {
		msg = fmt.Sprintf("attribute %q is missing", key)
	}
	return NewDomainError(ErrorTypeMissingAttribute, msg, err).WithDetail("key", key)
}

// NewMalformedContextError reports a record context that is not a JSON object
func NewMalformedContextError(context interface{}, err error) *DomainError {
	return NewDomainError(ErrorTypeMalformedContext, "record context must be a map", err).
		WithDetail("context_type", fmt.Sprintf("%T", context))
}

// WrapTransport wraps an error returned while writing records to a transport
func WrapTransport(transport string, err error) error {
	return NewDomainError(ErrorTypeTransport, "failed to write records", err).
		WithDetail("transport", transport)
}

// IsMissingAttributeError checks if an error is a missing attribute error
func IsMissingAttributeError(err error) bool {
	return GetErrorType(err) == ErrorTypeMissingAttribute
}

// IsMalformedContextError checks if an error is a malformed context error
func IsMalformedContextError(err error) bool {
	return GetErrorType(err) == ErrorTypeMalformedContext
}

// IsTransportError checks if an error came from a transport
func IsTransportError(err error) bool {
	return GetErrorType(err) == ErrorTypeTransport
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// MissingAttributeKey returns the offending key of a missing attribute error
func MissingAttributeKey(err error) string {
	if !IsMissingAttributeError(err) {
		return ""
	}
	key, _ := GetErrorDetails(err)["key"].(string)
	return key
}
