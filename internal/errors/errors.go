// Package errors provides the application error taxonomy.
// Every failure that can reach the chat boundary or the admin API is an
// *AppError, so callers can map it to a user-safe message without ever
// leaking the internal cause.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so a wrapped
// error still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authorization errors. ErrUnauthorized is an expected, high-frequency outcome
// (unknown chat identity), not an infrastructure failure.
var (
	ErrUnauthorized  = &AppError{Code: "UNAUTHORIZED", Message: "Not authorized", StatusCode: http.StatusUnauthorized}
	ErrInvalidAPIKey = &AppError{Code: "INVALID_API_KEY", Message: "Invalid or missing API key", StatusCode: http.StatusUnauthorized}
	// ErrAdminNotConfigured is returned by every admin endpoint while no
	// admin API key is set.
	ErrAdminNotConfigured = &AppError{Code: "ADMIN_NOT_CONFIGURED", Message: "Admin endpoints are not configured", StatusCode: http.StatusServiceUnavailable}
)

// Message understanding errors.
var (
	ErrParseFailure = &AppError{Code: "PARSE_FAILURE", Message: "Could not understand the message", StatusCode: http.StatusUnprocessableEntity}
)

// Persistence errors.
var (
	ErrStoreFailure    = &AppError{Code: "STORE_FAILURE", Message: "Error processing the request", StatusCode: http.StatusInternalServerError}
	ErrDuplicateChatID = &AppError{Code: "DUPLICATE_CHAT_ID", Message: "A user with this chat ID already exists", StatusCode: http.StatusConflict}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInvalidScope   = &AppError{Code: "INVALID_SCOPE", Message: "Scope must be self or family", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
