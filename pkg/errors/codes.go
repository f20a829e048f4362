package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where applicable.
const (
	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeAlreadyExists indicates attempting to create a resource that already exists.
	CodeAlreadyExists = "ALREADY_EXISTS"

	// CodeConstraintViolation indicates a write referenced an entity that is absent.
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"

	// CodeInvalidCredentials indicates a login attempt with a wrong email or password.
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	// CodeUnauthorized indicates the request lacks a valid session credential.
	CodeUnauthorized = "UNAUTHORIZED"

	// CodeForbidden indicates the authenticated account lacks write access.
	CodeForbidden = "FORBIDDEN"

	// CodeContentRejected indicates the moderation gateway flagged submitted text.
	CodeContentRejected = "CONTENT_REJECTED"

	// CodeModerationUnavailable indicates the moderation gateway could not be
	// reached after exhausting retries. Writes fail closed on this code.
	CodeModerationUnavailable = "MODERATION_UNAVAILABLE"

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeStorage indicates an unexpected backing-store failure.
	CodeStorage = "STORAGE_ERROR"

	// CodeInternal indicates an unclassified internal error.
	CodeInternal = "INTERNAL"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryClient indicates a client-caused error (4xx).
	CategoryClient ErrorCategory = "CLIENT_ERROR"

	// CategoryServer indicates a server-side error (5xx).
	CategoryServer ErrorCategory = "SERVER_ERROR"

	// CategoryAuth indicates an authentication/authorization error.
	CategoryAuth ErrorCategory = "AUTH_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeNotFound, CodeAlreadyExists, CodeConstraintViolation,
		CodeContentRejected, CodeValidation:
		return CategoryClient

	case CodeUnauthorized, CodeInvalidCredentials, CodeForbidden:
		return CategoryAuth

	default:
		return CategoryServer
	}
}

// IsTransient returns true for operational errors that may succeed on retry.
// Only these codes are logged with correlation detail server-side; everything
// else is client-caused.
func IsTransient(code string) bool {
	switch code {
	case CodeStorage, CodeModerationUnavailable:
		return true
	default:
		return false
	}
}

// IsClientError returns true if the error is a client error (4xx).
func IsClientError(code string) bool {
	return GetCategory(code) != CategoryServer
}
