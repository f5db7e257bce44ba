package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds returned by the ledger. Callers match them with errors.Is.
var (
	// ErrValidationFailed marks malformed or missing input.
	ErrValidationFailed = errors.New("validation failed")
	// ErrResourceNotFound marks an unknown id.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrPermissionDenied marks an actor lacking rights for an action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidState marks an operation that is illegal in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict marks an optimistic concurrency collision. Safe to retry after re-reading.
	ErrConflict = errors.New("conflict")
)

// Token errors
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")
)

// ConflictMessage is shown to users when their view of an entry is stale.
const ConflictMessage = "This entry was just updated by someone else; please refresh"

// NewValidationError creates a validation error with a message
func NewValidationError(format string, args ...interface{}) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewInvalidStateError creates an error for an operation the current state does not allow
func NewInvalidStateError(message string) error {
	return &CustomError{
		Err:     ErrInvalidState,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	if message == "" {
		message = ConflictMessage
	}
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// Kind returns the sentinel kind wrapped by err, or nil when err carries none.
func Kind(err error) error {
	for _, kind := range []error{ErrValidationFailed, ErrResourceNotFound, ErrPermissionDenied, ErrInvalidState, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message returns the user facing message of err. CustomError messages win
// over the generic sentinel text.
func Message(err error) string {
	var custom *CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
