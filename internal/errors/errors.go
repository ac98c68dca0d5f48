// Package errors provides custom error types for the spendlens API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput    = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound        = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrPayloadTooLarge = &AppError{Code: "PAYLOAD_TOO_LARGE", Message: "Uploaded file is too large", StatusCode: http.StatusRequestEntityTooLarge}
	ErrInternalServer  = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrRequestCanceled = &AppError{Code: "REQUEST_CANCELED", Message: "Request was canceled or timed out", StatusCode: http.StatusServiceUnavailable}
)

// Import errors.
var (
	ErrUploadNotFound      = &AppError{Code: "UPLOAD_NOT_FOUND", Message: "Upload not found", StatusCode: http.StatusNotFound}
	ErrEmptyBatch          = &AppError{Code: "EMPTY_BATCH", Message: "Statement contains no usable rows", StatusCode: http.StatusUnprocessableEntity}
	ErrUnsupportedFormat   = &AppError{Code: "UNSUPPORTED_FORMAT", Message: "Unsupported statement format", StatusCode: http.StatusBadRequest}
	ErrUnreadableStatement = &AppError{Code: "UNREADABLE_STATEMENT", Message: "Statement file could not be read", StatusCode: http.StatusUnprocessableEntity}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Categorization errors.
var (
	ErrRuleNotFound          = &AppError{Code: "RULE_NOT_FOUND", Message: "Merchant rule not found", StatusCode: http.StatusNotFound}
	ErrInvalidCorrectionMode = &AppError{Code: "INVALID_CORRECTION_MODE", Message: "Correction mode must be preview or execute", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Note errors.
var (
	ErrNoteNotFound = &AppError{Code: "NOTE_NOT_FOUND", Message: "Note not found", StatusCode: http.StatusNotFound}
)
