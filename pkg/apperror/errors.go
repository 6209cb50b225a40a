package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError for callers that do not care about HTTP.
type Kind string

const (
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindNotFound           Kind = "NOT_FOUND"
	KindDuplicateOperation Kind = "DUPLICATE_OPERATION"
	KindBusy               Kind = "BUSY"
	KindStorageFault       Kind = "STORAGE_FAULT"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf returns the Kind of the first AppError in err's chain.
// Errors that are not AppErrors are storage faults.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorageFault
}

// IsRetryable reports whether the caller may safely retry with the same idempotency key.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindBusy
}

// ---- Ledger Business Logic (LED) ----

// ErrInvalidRequest reports a caller-fixable request problem.
func ErrInvalidRequest(message string) *AppError {
	return New(KindInvalidRequest, "LED_001", message, http.StatusBadRequest)
}

// Validation is ErrInvalidRequest for input binding failures.
func Validation(message string) *AppError {
	return ErrInvalidRequest(message)
}

func ErrInsufficientFunds(current, requested int64) *AppError {
	return New(KindInvalidRequest, "LED_002",
		fmt.Sprintf("Insufficient balance. Current: %d, Requested: %d", current, requested),
		http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New(KindNotFound, "LED_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrDuplicateOperation(key string) *AppError {
	return New(KindDuplicateOperation, "LED_004",
		fmt.Sprintf("Operation with idempotency key already processed: %s", key),
		http.StatusConflict)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorageFault(err error) *AppError {
	return Wrap(KindStorageFault, "SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

// ErrBusy reports lock contention past the configured bound. Safe to retry with the same key.
func ErrBusy(err error) *AppError {
	return Wrap(KindBusy, "SYS_002", "Wallet is busy, retry with the same idempotency key", http.StatusServiceUnavailable, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(KindStorageFault, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
