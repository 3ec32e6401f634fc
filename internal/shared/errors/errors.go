package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error types for different domains
type ErrorType string

const (
	// Caller mistakes, never retried
	ErrorTypeUsage      ErrorType = "USAGE_ERROR"
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	// Protocol violations detected in transport responses
	ErrorTypeDataIntegrity  ErrorType = "DATA_INTEGRITY_ERROR"
	ErrorTypeInfrastructure ErrorType = "INFRASTRUCTURE_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

// Common client errors
var (
	ErrInvalidPath         = errors.New("invalid firestore path")
	ErrInvalidProjectID    = errors.New("invalid project ID")
	ErrInvalidDatabaseID   = errors.New("invalid database ID")
	ErrReadAfterWrite      = errors.New("read after write is not allowed")
	ErrBadWriteOption      = errors.New("exactly one of create_if_missing, last_update_time and exists must be provided")
	ErrUnexpectedDocument  = errors.New("document appeared in response but was not present among references")
	ErrMalformedResult     = errors.New("batch get result had neither found nor missing set")
	ErrIncompleteResponse  = errors.New("batch get stream ended before every requested document was answered")
	ErrTransportNotEnabled = errors.New("transport is not configured")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      codes.Code             `json:"code"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GRPCStatus lets status.Code and status.FromError see the error's code.
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Error())
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, code codes.Code) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Code:    code,
		Details: make(map[string]interface{}),
	}
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewUsageError creates an error for a contract the caller violated.
func NewUsageError(message string) *AppError {
	return NewAppError(ErrorTypeUsage, message, codes.InvalidArgument)
}

// NewFailedPreconditionError is a usage error caused by the state of the
// caller's objects rather than by an argument, e.g. a transaction that
// already holds writes.
func NewFailedPreconditionError(message string) *AppError {
	return NewAppError(ErrorTypeUsage, message, codes.FailedPrecondition)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, codes.InvalidArgument)
}

// NewDataIntegrityError creates an error for a response the transport should
// never have produced.
func NewDataIntegrityError(message string) *AppError {
	return NewAppError(ErrorTypeDataIntegrity, message, codes.DataLoss)
}

// NewInfrastructureError creates an infrastructure error
func NewInfrastructureError(message string) *AppError {
	return NewAppError(ErrorTypeInfrastructure, message, codes.Unavailable)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, codes.Internal)
}

// FromTransport wraps an error returned by a transport, keeping its gRPC code.
func FromTransport(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(ErrorTypeInfrastructure, message, transportCode(err)).WithCause(err)
}

// transportCode finds the gRPC status anywhere in err's chain.
func transportCode(err error) codes.Code {
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Code()
	}
	return status.Code(err)
}

// ValidationError represents validation errors for multiple fields
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents a collection of validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error implements the error interface
func (ve *ValidationErrors) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve.Errors[0].Message)
}

// NewValidationErrors creates a new validation errors instance
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}

// Add adds a validation error
func (ve *ValidationErrors) Add(field, message string, value interface{}) *ValidationErrors {
	ve.Errors = append(ve.Errors, ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	})
	return ve
}

// HasErrors returns true if there are validation errors
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError converts validation errors to an AppError
func (ve *ValidationErrors) ToAppError() *AppError {
	if !ve.HasErrors() {
		return nil
	}

	appErr := NewValidationError(ve.Error())
	appErr.Details["validation_errors"] = ve.Errors
	return appErr
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsUsage reports whether err was caused by the caller. Validation errors
// count as usage errors.
func IsUsage(err error) bool {
	return isType(err, ErrorTypeUsage) || isType(err, ErrorTypeValidation) ||
		errors.Is(err, ErrReadAfterWrite) || errors.Is(err, ErrBadWriteOption)
}

// IsDataIntegrity reports whether err is a protocol violation from the transport.
func IsDataIntegrity(err error) bool {
	return isType(err, ErrorTypeDataIntegrity) || errors.Is(err, ErrUnexpectedDocument) ||
		errors.Is(err, ErrMalformedResult) || errors.Is(err, ErrIncompleteResponse)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}
