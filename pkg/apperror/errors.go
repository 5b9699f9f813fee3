package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies an AppError independently of its HTTP status
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindAlreadyCancelled  Kind = "already_cancelled"
	KindPersistence       Kind = "persistence"
	KindConflict          Kind = "conflict"
	KindBadRequest        Kind = "bad_request"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code       int          `json:"code"`
	Kind       Kind         `json:"kind"`
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors,omitempty"`
	Shortfalls []Shortfall  `json:"insufficient_stock,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Shortfall describes one material that cannot cover a requested quantity
type Shortfall struct {
	MaterialID    uuid.UUID       `json:"material_id"`
	MaterialTitle string          `json:"material_title"`
	Required      decimal.Decimal `json:"required"`
	Available     decimal.Decimal `json:"available"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying storage error, if any
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) works for any not-found error
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Common errors
var (
	ErrNotFound          = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized      = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrBadRequest        = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer    = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrConflict          = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Resource already exists"}
	ErrValidation        = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Validation failed"}
	ErrInsufficientStock = &AppError{Code: http.StatusConflict, Kind: KindInsufficientStock, Message: "Insufficient stock"}
	ErrAlreadyCancelled  = &AppError{Code: http.StatusConflict, Kind: KindAlreadyCancelled, Message: "Already cancelled"}
	ErrPersistence       = &AppError{Code: http.StatusInternalServerError, Kind: KindPersistence, Message: "Persistence failure"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError creates a validation error for a single field
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewNoMaterialsError reports an empty material requirement list
func NewNoMaterialsError() *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: "no materials found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewInsufficientStockError lists every material that cannot cover its requirement
func NewInsufficientStockError(shortfalls []Shortfall) *AppError {
	return &AppError{
		Code:       http.StatusConflict,
		Kind:       KindInsufficientStock,
		Message:    fmt.Sprintf("Insufficient stock for %d material(s)", len(shortfalls)),
		Shortfalls: shortfalls,
	}
}

// NewAlreadyCancelledError reports an attempt to cancel something twice
func NewAlreadyCancelledError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindAlreadyCancelled,
		Message: resource + " is already cancelled",
	}
}

// NewPersistenceError wraps a storage error. The enclosing transaction is rolled back by the caller.
func NewPersistenceError(op string, err error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: op + " failed",
		cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindInternal
	}
}
