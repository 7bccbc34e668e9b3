// Package apperror defines the error vocabulary shared by the service,
// handler, and client layers.
//
// WHY SENTINEL ERRORS:
// Services return *AppError values wrapping one of the sentinels below.
// Callers never string-match: handlers pick an HTTP status with errors.Is,
// and the API client maps response envelopes back onto the same sentinels,
// so CLI code can errors.Is() a remote failure exactly like a local one.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinels. One per failure class the HTTP layer distinguishes.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError pairs a sentinel with a message safe to show to API consumers.
type AppError struct {
	Err     error  // sentinel, reachable via errors.Is/errors.As
	Message string // human-readable, returned in the response body
	Field   string // set for validation errors: which input was bad
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound covers missing documents and missing files alike: a catalog
// entry without an APK on disk reads the same as no entry at all.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a bad input. Field names which one, so the
// admin UI can highlight it.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation, e.g. a duplicate category name.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden means the caller is authenticated but not allowed.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller presented no credentials, or bad ones.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
