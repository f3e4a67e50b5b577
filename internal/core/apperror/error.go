// Package apperror defines the error type every layer returns to the HTTP edge.
// Handlers never build responses from raw errors; middleware renders an
// AppError as {code, message, details}.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// 5xx
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// 400
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnknownDocumentType = "UNKNOWN_DOCUMENT_TYPE"

	// 422
	CodeDocumentCancelled = "DOCUMENT_CANCELLED"

	// 404
	CodeNotFound = "NOT_FOUND"

	// 409
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeIdempotency            = "IDEMPOTENCY_CONFLICT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError carries a stable machine code, a client-safe message and an
// optional cause that is logged but never serialized.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func newError(status int, code, message string, details map[string]any) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail sets details[key] and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// NewValidation reports a malformed request (400).
func NewValidation(message string) *AppError {
	return newError(http.StatusBadRequest, CodeValidation, message, nil)
}

// NewInvalidInput reports a numeric input the totals engine refuses to compute with (400).
func NewInvalidInput(field, message string) *AppError {
	return newError(http.StatusBadRequest, CodeInvalidInput, message, map[string]any{"field": field})
}

// NewUnknownDocumentType is returned on a lookup miss in the document type registry.
func NewUnknownDocumentType(kind string) *AppError {
	return newError(http.StatusBadRequest, CodeUnknownDocumentType,
		fmt.Sprintf("unknown document type %q", kind), map[string]any{"type": kind})
}

func NewNotFound(entity string, id any) *AppError {
	return newError(http.StatusNotFound, CodeNotFound,
		entity+" not found", map[string]any{"entity": entity, "id": id})
}

// NewBusinessRule reports a domain rule violation under its own code (422).
func NewBusinessRule(code, message string) *AppError {
	return newError(http.StatusUnprocessableEntity, code, message, nil)
}

// NewConcurrentModification is returned when an update carries a stale version.
func NewConcurrentModification(entity string, id any) *AppError {
	return newError(http.StatusConflict, CodeConcurrentModification,
		"document was modified concurrently, reload and retry",
		map[string]any{"entity": entity, "id": id})
}

// NewInternal hides err behind a generic 500.
func NewInternal(err error) *AppError {
	return newError(http.StatusInternalServerError, CodeInternal, "Internal server error", nil).WithCause(err)
}

// NewDatabase reports an unavailable or timed-out database (503).
func NewDatabase(err error) *AppError {
	return newError(http.StatusServiceUnavailable, CodeDatabase, "Database unavailable, please retry", nil).WithCause(err)
}

// NewIdempotencyConflict is returned while the first request with key is still running.
func NewIdempotencyConflict(key string) *AppError {
	return newError(http.StatusConflict, CodeIdempotency,
		"request with this idempotency key is still in progress", map[string]any{"idempotency_key": key})
}

// NewIdempotencyMismatch is returned when key is reused for a different path or body.
func NewIdempotencyMismatch(key string) *AppError {
	return newError(http.StatusConflict, CodeIdempotency,
		"idempotency key was used for a different request", map[string]any{"idempotency_key": key})
}

func NewConflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message, nil)
}

// NewDuplicate reports an explicit ID that is already taken.
func NewDuplicate(entity, field, value string) *AppError {
	return newError(http.StatusConflict, CodeDuplicate,
		fmt.Sprintf("%s with this %s already exists", entity, field),
		map[string]any{"entity": entity, "field": field, "value": value})
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// GetHTTPStatus returns the status of err's AppError, or 500.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool     { return HasCode(err, CodeNotFound) }
func IsInvalidInput(err error) bool { return HasCode(err, CodeInvalidInput) }
