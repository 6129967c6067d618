// FilePath: internal/errors/errors.go
package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeMalformedPayload ErrorType = "malformed_payload"
	ErrorTypeUnknownDevice    ErrorType = "unknown_device"
	ErrorTypeWrite            ErrorType = "write"
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeDatabase         ErrorType = "database"
	ErrorTypeAuth             ErrorType = "authentication"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
)

// APIError is a structured error. Its JSON shape is the error envelope the
// HTTP surface exposes: {errorType, errorMessage, errors}.
type APIError struct {
	Type      ErrorType `json:"errorType"`
	Message   string    `json:"errorMessage"`
	Errors    []string  `json:"errors"`
	Code      int       `json:"-"`
	RequestID string    `json:"requestId,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error to errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.err
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithErrors attaches detail lines to the error envelope
func (e *APIError) WithErrors(details []string) *APIError {
	e.Errors = details
	return e
}

// NewMalformedPayloadError marks a payload that failed to decode
func NewMalformedPayloadError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeMalformedPayload,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewUnknownDeviceError marks a reading whose device identity cannot be
// resolved or whose status forbids ingestion
func NewUnknownDeviceError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUnknownDevice,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewWriteError marks a persistence failure on the ingest path
func NewWriteError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeWrite,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDatabase,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewAuthError creates a new authentication error
func NewAuthError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeAuth,
		Message: msg,
		Code:    http.StatusUnauthorized,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// IsMalformedPayload checks if an error is a MalformedPayload error
func IsMalformedPayload(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeMalformedPayload
	}
	return false
}

// IsUnknownDevice checks if an error is an UnknownDevice error
func IsUnknownDevice(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeUnknownDevice
	}
	return false
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Type == ErrorTypeValidation
	}
	return false
}
