package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code, so errors.Is(err, &AppError{Code: ...}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// InvalidConfiguration reports a configuration that failed validation.
func InvalidConfiguration(message string) *AppError {
	return New(ErrCodeInvalidConfiguration, message, http.StatusInternalServerError)
}

// BindingFailed reports a dependency that could not be resolved for the given key.
func BindingFailed(key string, cause error) *AppError {
	return New(ErrCodeBindingFailed, fmt.Sprintf("Unable to provide %s.", key), http.StatusInternalServerError).
		WithDetail("key", key).
		WithCause(cause)
}

// NotReady reports a value read before the application finished starting.
func NotReady(what string) *AppError {
	return New(ErrCodeNotReady, fmt.Sprintf("The %s is not available yet.", what), http.StatusServiceUnavailable)
}

// NotFound creates an error for a missing resource.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// InvalidInput creates an error for an invalid request field.
func InvalidInput(field, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason), http.StatusBadRequest).
		WithDetail("field", field)
}

// Validation creates an error for a failed struct validation.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// MethodNotAllowed creates an error for an unsupported method.
func MethodNotAllowed(method string) *AppError {
	return New(ErrCodeMethodNotAllowed, fmt.Sprintf("Method %s is not allowed.", method), http.StatusMethodNotAllowed)
}

// ServiceUnavailable creates an error for a temporarily unavailable dependency.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service), http.StatusServiceUnavailable)
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.", http.StatusInternalServerError).WithCause(cause)
}
