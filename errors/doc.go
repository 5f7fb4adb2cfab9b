// Package errors provides the structured error type used wherever an
// injectkit failure reaches an HTTP response or a configuration report.
// An AppError carries a machine-readable code, a message, an HTTP status and
// optional details, and wraps its cause for errors.Is/As.
package errors
