package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an internmap error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrForbidden           ErrorCode = "FORBIDDEN"            // 403
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrConflict            ErrorCode = "CONFLICT"             // 409
	ErrValidation          ErrorCode = "VALIDATION_FAILED"    // 422
	ErrInternal            ErrorCode = "INTERNAL"             // 500
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE" // 502
	ErrStorage             ErrorCode = "STORAGE_FAILED"       // 507
)

// AppError represents a structured error with code, status, and details.
type AppError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppError {
	return &AppError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewForbidden creates a 403 error, used when the shared access code does not match.
func NewForbidden(msg string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Status:  403,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a profile cannot be found.
func NewNotFound(identifier string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("profile not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *AppError {
	return &AppError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewValidation creates a 422 error listing the offending fields.
// fields maps a JSON field name to a human-readable reason.
func NewValidation(fields map[string]string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Status:  422,
		Message: fmt.Sprintf("profile failed validation: %d field(s)", len(fields)),
		Details: map[string]any{"fields": fields},
	}
}

// NewProviderUnavailable creates a 502 error when every external provider failed.
func NewProviderUnavailable(capability string) *AppError {
	return &AppError{
		Code:    ErrProviderUnavailable,
		Status:  502,
		Message: fmt.Sprintf("no %s provider returned a result", capability),
		Details: map[string]any{"capability": capability},
	}
}

// NewStorage creates a 507 error when the record store rejected a write.
func NewStorage(msg string) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Status:  507,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// FieldErrors returns the per-field reasons of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) || appErr.Code != ErrValidation {
		return nil
	}
	fields, _ := appErr.Details["fields"].(map[string]string)
	return fields
}
