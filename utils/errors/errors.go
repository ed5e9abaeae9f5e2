package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

var (
	ErrInvalidInput = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden    = NewAPIError("FORBIDDEN", "Insufficient permissions", http.StatusForbidden)
	ErrNotFound     = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal     = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict     = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrRateLimited  = NewAPIError("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests)
)

const (
	CodeNotFound        = "NOT_FOUND"
	CodeNotAllowed      = "NOT_ALLOWED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeDB              = "DB_ERROR"
)

// NotFound reports a lookup that matched nothing.
func NotFound(format string, args ...any) *APIError {
	return NewAPIError(CodeNotFound, fmt.Sprintf(format, args...), http.StatusNotFound)
}

// NotAllowed reports an action refused by an ownership, uniqueness or
// self-reference rule.
func NotAllowed(format string, args ...any) *APIError {
	return NewAPIError(CodeNotAllowed, fmt.Sprintf(format, args...), http.StatusForbidden)
}

func Unauthenticated(format string, args ...any) *APIError {
	return NewAPIError(CodeUnauthenticated, fmt.Sprintf(format, args...), http.StatusUnauthorized)
}

// InvalidInput is ErrInvalidInput with a specific message.
func InvalidInput(format string, args ...any) *APIError {
	return NewAPIError(ErrInvalidInput.Code, fmt.Sprintf(format, args...), http.StatusBadRequest)
}

// DB wraps a driver failure as a 500.
func DB(err error, message string) *APIError {
	return Wrap(err, CodeDB, message, http.StatusInternalServerError)
}

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error())
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

func IsNotAllowed(err error) bool {
	return hasCode(err, CodeNotAllowed)
}

func IsUnauthenticated(err error) bool {
	return hasCode(err, CodeUnauthenticated)
}
