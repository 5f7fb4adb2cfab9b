package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Startup errors.
const (
	// ErrCodeInvalidConfiguration indicates the application configuration failed validation.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	// ErrCodeBindingFailed indicates a dependency could not be bound or resolved.
	ErrCodeBindingFailed ErrorCode = "BINDING_FAILED"
	// ErrCodeNotReady indicates a value was read before the application finished starting.
	ErrCodeNotReady ErrorCode = "NOT_READY"
)

// Request errors.
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMethodNotAllowed indicates the method is not supported for the target.
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeInternal indicates an unexpected server-side failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeNotReady:           true,
	ErrCodeServiceUnavailable: true,
}

// IsRetryableCode reports whether errors with the given code may succeed on retry.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
