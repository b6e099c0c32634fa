package domain

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// HTTPError is implemented by errors that carry their own HTTP status and API code.
type HTTPError interface {
	error
	StatusCode() int
	Code() string
}

// Sentinel errors; typed errors below match them through errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

type (
	// NotFoundError indicates a resource was not found for the current owner.
	NotFoundError struct {
		Resource string
	}

	// ValidationError indicates invalid input. Fields holds per-field messages when known.
	ValidationError struct {
		Message string
		Fields  map[string]string
	}

	// UnauthorizedError indicates missing or invalid credentials.
	UnauthorizedError struct {
		Message string
	}

	// ConflictError indicates a concurrent modification or a duplicate.
	ConflictError struct {
		Message string
	}

	// UnavailableError indicates an optional backend (object storage, Redis) is not configured.
	UnavailableError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ConflictError) Error() string     { return e.Message }
func (e *UnavailableError) Error() string  { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ConflictError) StatusCode() int     { return http.StatusConflict }
func (e *UnavailableError) StatusCode() int  { return http.StatusServiceUnavailable }

func (e *NotFoundError) Code() string     { return "NOT_FOUND" }
func (e *ValidationError) Code() string   { return "INVALID_INPUT" }
func (e *UnauthorizedError) Code() string { return "UNAUTHORIZED" }
func (e *ConflictError) Code() string     { return "CONFLICT" }
func (e *UnavailableError) Code() string  { return "UNAVAILABLE" }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ConflictError) Is(target error) bool     { return target == ErrConflict }
func (e *UnavailableError) Is(target error) bool  { return target == ErrUnavailable }

// NotFound builds a NotFoundError for the named resource.
func NotFound(resource string) error { return &NotFoundError{Resource: resource} }

// Invalid builds a ValidationError with a single message.
func Invalid(msg string) error { return &ValidationError{Message: msg} }

// Conflict builds a ConflictError.
func Conflict(msg string) error { return &ConflictError{Message: msg} }

// Status returns the HTTP status and API code for err; unknown errors map to 500.
func Status(err error) (int, string) {
	var he HTTPError
	if errors.As(err, &he) {
		return he.StatusCode(), he.Code()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// FromValidation converts ozzo-validation errors into a ValidationError carrying per-field messages.
// Other errors are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		fields := make(map[string]string, len(errs))
		for k, v := range errs {
			if v != nil {
				fields[k] = v.Error()
			}
		}
		return &ValidationError{Message: errs.Error(), Fields: fields}
	}
	var ve validation.Error
	if errors.As(err, &ve) {
		return &ValidationError{Message: ve.Error()}
	}
	return err
}
