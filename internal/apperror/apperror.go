package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrConstraint       = errors.New("constraint violation")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrConfigMissing    = errors.New("configuration missing")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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

// DuplicateUser is returned when registration hits the unique index on email.
// It is a specialisation of a constraint violation; handlers map it to 409.
func DuplicateUser(email string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("user with email %s already exists", email),
		Field:   "email",
	}
}

// MissingIdentity is returned when an operation requires an authenticated
// user and none is present in the request context. Handlers map it to 401.
func MissingIdentity() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "no authenticated user in request context",
	}
}

// InvalidCredentials is returned on a failed login. The message is the same
// for "no such user" and "wrong password" so the endpoint doesn't reveal
// which emails are registered.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "invalid email or password",
	}
}

// ConstraintViolation covers foreign-key and other non-duplicate integrity
// failures from the store, e.g. an upsert referencing a user id that doesn't
// exist. Surfaced upstream as a generic server error.
func ConstraintViolation(detail string) *AppError {
	return &AppError{
		Err:     ErrConstraint,
		Message: detail,
	}
}

// StoreUnavailable wraps a transport-level database failure (connection
// refused, closed pool). The cause is kept for logging via Unwrap.
func StoreUnavailable(cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrStoreUnavailable, cause),
		Message: "data store is unavailable",
	}
}

// ConfigMissing reports required external configuration that was not supplied,
// e.g. no AI service URL in the environment.
func ConfigMissing(what string) *AppError {
	return &AppError{
		Err:     ErrConfigMissing,
		Message: fmt.Sprintf("%s is not configured", what),
	}
}
