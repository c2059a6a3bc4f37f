package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Pipeline error codes
const (
	ErrValidation        ErrorCode = "VALIDATION_ERROR"
	ErrConfiguration     ErrorCode = "CONFIGURATION_ERROR"
	ErrDecode            ErrorCode = "DECODE_ERROR"
	ErrStorageWrite      ErrorCode = "STORAGE_WRITE_ERROR"
	ErrStorageURL        ErrorCode = "STORAGE_URL_ERROR"
	ErrSynthesis         ErrorCode = "SYNTHESIS_ERROR"
	ErrNoImageGenerated  ErrorCode = "NO_IMAGE_GENERATED"
	ErrRefinement        ErrorCode = "REFINEMENT_ERROR"
	ErrHistoryNotEnabled ErrorCode = "HISTORY_NOT_ENABLED"
)

// Transport error codes
const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrUpstreamError    ErrorCode = "UPSTREAM_ERROR"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
// HTTPStatus defaults to the status registered for the code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: StatusForCode(code)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// Details 返回用于诊断的完整错误链。
func (e *Error) Details() string {
	return e.Error()
}

// AsError extracts *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether any *Error in the chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// StatusForCode maps an error code to its HTTP status.
// Client-caused errors are 4xx; everything raised by the pipeline is 500.
func StatusForCode(code ErrorCode) int {
	switch code {
	case ErrValidation, ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrHistoryNotEnabled:
		return http.StatusNotFound
	case ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// 常用错误构造
// =============================================================================

// NewValidationError creates a client-caused validation error.
func NewValidationError(message string) *Error {
	return NewError(ErrValidation, message)
}

// NewConfigurationError reports a missing provider or storage setting.
func NewConfigurationError(message string) *Error {
	return NewError(ErrConfiguration, message)
}

// NewDecodeError reports an undecodable reference image.
func NewDecodeError(message string, cause error) *Error {
	return NewError(ErrDecode, message).WithCause(cause)
}
