package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConstraintViolation is returned when a referenced entity is absent.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned when a session credential is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the account lacks permission for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when request input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage is returned when the backing store fails unexpectedly.
	ErrStorage = errors.New("storage error")
)

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Is matches typed errors against their sentinel counterparts, so callers
// can write errors.Is(err, ErrNotFound) without knowing the concrete type.
func (e *BaseError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.code == CodeNotFound
	case ErrAlreadyExists:
		return e.code == CodeAlreadyExists
	case ErrConstraintViolation:
		return e.code == CodeConstraintViolation
	case ErrInvalidCredentials:
		return e.code == CodeInvalidCredentials
	case ErrUnauthorized:
		return e.code == CodeUnauthorized
	case ErrForbidden:
		return e.code == CodeForbidden
	case ErrInvalidInput:
		return e.code == CodeValidation
	case ErrStorage:
		return e.code == CodeStorage
	default:
		return false
	}
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	*BaseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		BaseError: &BaseError{
			code:    CodeNotFound,
			message: fmt.Sprintf("%s not found", resource),
			stack:   captureStack(1),
		},
		Resource: resource,
		ID:       id,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// AlreadyExistsError represents a duplicate resource error.
type AlreadyExistsError struct {
	*BaseError
	Resource string
	Field    string
	Value    string
}

// NewAlreadyExistsError creates a new already exists error.
func NewAlreadyExistsError(resource, field, value string) *AlreadyExistsError {
	message := fmt.Sprintf("%s already exists", resource)
	if field != "" {
		message = fmt.Sprintf("%s with %s='%s' already exists", resource, field, value)
	}
	return &AlreadyExistsError{
		BaseError: &BaseError{
			code:    CodeAlreadyExists,
			message: message,
			stack:   captureStack(1),
		},
		Resource: resource,
		Field:    field,
		Value:    value,
	}
}

// ConstraintViolationError represents a write that referenced an absent entity.
type ConstraintViolationError struct {
	*BaseError
	Resource  string
	Reference string
}

// NewConstraintViolationError creates a new constraint violation error.
func NewConstraintViolationError(resource, reference string) *ConstraintViolationError {
	return &ConstraintViolationError{
		BaseError: &BaseError{
			code:    CodeConstraintViolation,
			message: fmt.Sprintf("%s references a missing %s", resource, reference),
			stack:   captureStack(1),
		},
		Resource:  resource,
		Reference: reference,
	}
}

// InvalidCredentialsError represents a failed login attempt.
// The message never distinguishes a wrong email from a wrong password.
type InvalidCredentialsError struct {
	*BaseError
}

// NewInvalidCredentialsError creates a new invalid credentials error.
func NewInvalidCredentialsError() *InvalidCredentialsError {
	return &InvalidCredentialsError{
		BaseError: &BaseError{
			code:    CodeInvalidCredentials,
			message: "invalid email or password",
			stack:   captureStack(1),
		},
	}
}

// UnauthorizedError represents an authentication error.
type UnauthorizedError struct {
	*BaseError
	Realm string
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: &BaseError{
			code:    CodeUnauthorized,
			message: message,
			stack:   captureStack(1),
		},
	}
}

// WithRealm sets the authentication realm.
func (e *UnauthorizedError) WithRealm(realm string) *UnauthorizedError {
	e.Realm = realm
	return e
}

// ForbiddenError represents an authorization error.
type ForbiddenError struct {
	*BaseError
	Resource string
	Action   string
}

// NewForbiddenError creates a new forbidden error.
func NewForbiddenError(resource, action string) *ForbiddenError {
	message := "forbidden"
	if resource != "" && action != "" {
		message = fmt.Sprintf("forbidden: cannot %s %s", action, resource)
	}
	return &ForbiddenError{
		BaseError: &BaseError{
			code:    CodeForbidden,
			message: message,
			stack:   captureStack(1),
		},
		Resource: resource,
		Action:   action,
	}
}

// ContentRejectedError represents text that the moderation gateway flagged.
type ContentRejectedError struct {
	*BaseError
	Field string
}

// NewContentRejectedError creates a new content rejected error naming the
// field that failed screening.
func NewContentRejectedError(field string) *ContentRejectedError {
	return &ContentRejectedError{
		BaseError: &BaseError{
			code:    CodeContentRejected,
			message: fmt.Sprintf("content rejected by moderation: %s", field),
			stack:   captureStack(1),
		},
		Field: field,
	}
}

// ModerationUnavailableError represents a moderation gateway that could not be
// reached after exhausting retries.
type ModerationUnavailableError struct {
	*BaseError
}

// NewModerationUnavailableError creates a new moderation unavailable error.
func NewModerationUnavailableError(cause error) *ModerationUnavailableError {
	return &ModerationUnavailableError{
		BaseError: &BaseError{
			code:    CodeModerationUnavailable,
			message: "moderation service unavailable",
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// StorageError represents an unexpected backing-store failure.
type StorageError struct {
	*BaseError
	Operation string
}

// NewStorageError creates a new storage error.
func NewStorageError(operation string, cause error) *StorageError {
	return &StorageError{
		BaseError: &BaseError{
			code:    CodeStorage,
			message: "storage operation failed",
			cause:   cause,
			stack:   captureStack(1),
		},
		Operation: operation,
	}
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an internal error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already our error type, wrap it
	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	// Otherwise create an internal error
	return &BaseError{
		code:    CodeInternal,
		message: message,
		cause:   err,
		stack:   captureStack(1),
	}
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}

// Is reports whether any error in err's chain matches target. It mirrors the
// standard library so callers do not need two errors imports.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Trace returns the captured stack of an operational error, formatted for
// logging. Client-caused error types yield an empty string; their detail goes
// back to the caller instead.
func Trace(err error) string {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr.StackTrace()
	}
	var moderationErr *ModerationUnavailableError
	if errors.As(err, &moderationErr) {
		return moderationErr.StackTrace()
	}
	var base *BaseError
	if errors.As(err, &base) {
		return base.StackTrace()
	}
	return ""
}
