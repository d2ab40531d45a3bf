// Package apperror defines the error kinds shared by services and handlers.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrLimitExceeded      = errors.New("limit exceeded")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRemote             = errors.New("remote call failed")
)

// AppError carries a user-facing message alongside its kind.
type AppError struct {
	Err     error  // kind, one of the Err* sentinels
	Message string // shown to the user as-is
	Field   string // optional: offending input field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func LimitExceeded(message string) *AppError {
	return &AppError{
		Err:     ErrLimitExceeded,
		Message: message,
	}
}

func InsufficientPoints(have, need int64) *AppError {
	return &AppError{
		Err:     ErrInsufficientPoints,
		Message: fmt.Sprintf("insufficient points: have %d, need %d", have, need),
	}
}

// Remote wraps a failure reported by a remote procedure or function,
// keeping its message for display.
func Remote(message string) *AppError {
	return &AppError{
		Err:     ErrRemote,
		Message: message,
	}
}

// Message returns the user-facing text of err, or fallback when err is not an AppError.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
