package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a caller may retry the failed operation.
// Only transient infrastructure failures qualify; business-rule failures never do.
func (e *AppError) Retryable() bool {
	return e.Code == CodeStorage || e.Code == CodeStorageUnavailable
}

// WithDetails returns a copy of e carrying structured details for the client.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Error codes.
const (
	CodeValidation         = "VAL_001"
	CodePayloadTooLarge    = "VAL_002"
	CodeNegativeBalance    = "LEDGER_001"
	CodeNotFound           = "NF_001"
	CodeConflict           = "CONFLICT_001"
	CodeInvalidToken       = "AUTH_001"
	CodeRateLimited        = "RATE_001"
	CodeStorage            = "SYS_001"
	CodeStorageUnavailable = "SYS_002"
)

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Is reports whether err is an *AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// ---- Business rules ----

// Validation reports malformed input. Rejected before any ledger read.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func ErrPayloadTooLarge(limit int64) *AppError {
	return New(CodePayloadTooLarge, fmt.Sprintf("Request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}

// NegativeBalance reports a mutation that would drive a historical holding below zero.
func NegativeBalance(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeNegativeBalance,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func ErrNotFound(entity string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrConflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func ErrWalletNameTaken() *AppError {
	return ErrConflict("A wallet with the same name already exists for this user")
}

// ---- Authentication & rate limiting ----

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure ----

// InternalError wraps an unexpected internal error; the cause is never shown to clients.
func InternalError(err error) *AppError {
	return Wrap(CodeStorage, "Internal server error", http.StatusInternalServerError, err)
}

// ErrStorageUnavailable wraps a transient storage failure (connection loss, serialization failure).
func ErrStorageUnavailable(err error) *AppError {
	return Wrap(CodeStorageUnavailable, "Storage temporarily unavailable", http.StatusServiceUnavailable, err)
}
