// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal         = "INTERNAL_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Lifecycle rule violations (422)
	CodeNotActive              = "NOT_ACTIVE"
	CodeNotDeleted             = "NOT_DELETED"
	CodeProtectedEntity        = "PROTECTED_ENTITY"
	CodeDependencyConflict     = "DEPENDENCY_CONFLICT"
	CodeReassignmentRequired   = "REASSIGNMENT_REQUIRED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (403)
	CodeForbidden = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (dependent ids, versions, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewNotActive is returned when an operation requires an active record.
func NewNotActive(entity string, id any, status string) *AppError {
	return &AppError{
		Code:       CodeNotActive,
		Message:    "not active",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "id": id, "status": status},
	}
}

// NewNotDeleted is returned when an operation requires an archived record.
func NewNotDeleted(entity string, id any, status string) *AppError {
	return &AppError{
		Code:       CodeNotDeleted,
		Message:    "not deleted",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "id": id, "status": status},
	}
}

// NewProtectedEntity is returned for system records that may never be archived or purged.
func NewProtectedEntity(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeProtectedEntity,
		Message:    "record is system-protected and cannot be deleted",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewDependencyConflict is returned when blocking dependents prevent a transition.
func NewDependencyConflict(entity string, id any, blocking int) *AppError {
	return &AppError{
		Code:       CodeDependencyConflict,
		Message:    fmt.Sprintf("%d active records still reference this %s", blocking, entity),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id, "blocking": blocking},
	}
}

// NewReassignmentRequired is returned when reassignable dependents exist and no
// replacement target was supplied. Affected dependent ids are carried in details.
func NewReassignmentRequired(entity string, id any, affected []string) *AppError {
	return &AppError{
		Code:       CodeReassignmentRequired,
		Message:    "dependents must be reassigned to a replacement target first",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id, "affected": affected},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewStoreUnavailable wraps an entity store transport failure.
// The core never retries; retries belong to the collaborator.
func NewStoreUnavailable(err error) *AppError {
	return &AppError{
		Code:       CodeStoreUnavailable,
		Message:    "entity store unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks if error carries the given code
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsNotActive checks if error is CodeNotActive
func IsNotActive(err error) bool {
	return HasCode(err, CodeNotActive)
}

// IsNotDeleted checks if error is CodeNotDeleted
func IsNotDeleted(err error) bool {
	return HasCode(err, CodeNotDeleted)
}

// IsProtectedEntity checks if error is CodeProtectedEntity
func IsProtectedEntity(err error) bool {
	return HasCode(err, CodeProtectedEntity)
}

// IsDependencyConflict checks if error is CodeDependencyConflict
func IsDependencyConflict(err error) bool {
	return HasCode(err, CodeDependencyConflict)
}

// IsReassignmentRequired checks if error is CodeReassignmentRequired
func IsReassignmentRequired(err error) bool {
	return HasCode(err, CodeReassignmentRequired)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// Render produces the user-facing reason string for bulk operation results.
func Render(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
