package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure exposed to API clients.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeAuthFailed   Code = "AUTH_FAILED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeDB           Code = "DB_ERROR"
	CodeStorage      Code = "STORAGE_ERROR"
	CodeRPC          Code = "RPC_ERROR"
	CodeEnvMissing   Code = "ENV_MISSING"
	CodeServer       Code = "SERVER_ERROR"
)

// Error is a coded application error. Message is safe to show to clients;
// the wrapped cause is for server-side logs only.
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a coded error with a client-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted client-safe message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error that keeps the underlying cause for logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus maps the error code to its response status.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeAuthFailed:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// From extracts the coded error from err. Unknown errors become a generic
// SERVER_ERROR so internals never leak into responses.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(CodeServer, "Internal server error", err)
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}
