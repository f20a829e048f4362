package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsCarrySentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"not found", NewNotFoundError("question", "7"), ErrNotFound, CodeNotFound},
		{"already exists", NewAlreadyExistsError("account", "email", "a@x.com"), ErrAlreadyExists, CodeAlreadyExists},
		{"constraint", NewConstraintViolationError("answer", "question 7"), ErrConstraintViolation, CodeConstraintViolation},
		{"invalid credentials", NewInvalidCredentialsError(), ErrInvalidCredentials, CodeInvalidCredentials},
		{"unauthorized", NewUnauthorizedError("expired"), ErrUnauthorized, CodeUnauthorized},
		{"forbidden", NewForbiddenError("question", "delete"), ErrForbidden, CodeForbidden},
		{"validation", NewValidationError("title", "empty"), ErrInvalidInput, CodeValidation},
		{"storage", NewStorageError("insert", New("boom")), ErrStorage, CodeStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			var coded Error
			require.ErrorAs(t, tt.err, &coded)
			assert.Equal(t, tt.code, coded.Code())
		})
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFoundError("question", "7"), http.StatusNotFound},
		{NewAlreadyExistsError("account", "email", "a@x.com"), http.StatusConflict},
		// A missing parent surfaces as 404 on the parent resource.
		{NewConstraintViolationError("answer", "question 7"), http.StatusNotFound},
		{NewInvalidCredentialsError(), http.StatusUnauthorized},
		{NewUnauthorizedError("no token"), http.StatusUnauthorized},
		{NewForbiddenError("question", "delete"), http.StatusForbidden},
		{NewContentRejectedError("title"), http.StatusUnprocessableEntity},
		{NewModerationUnavailableError(New("down")), http.StatusServiceUnavailable},
		{NewValidationError("limit", "not an integer"), http.StatusBadRequest},
		{NewStorageError("select", New("conn reset")), http.StatusInternalServerError},
		{New("unclassified"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), "%v", tt.err)
	}
}

func TestTransientErrorsDoNotLeakDetail(t *testing.T) {
	httpErr := ToHTTPError(NewStorageError("insert question", New("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "internal error", httpErr.Message)
	assert.NotContains(t, httpErr.Message, "connection refused")

	httpErr = ToHTTPError(NewModerationUnavailableError(New("dial tcp: refused")))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
	assert.NotContains(t, httpErr.Message, "dial tcp")
}

func TestClientErrorsKeepDetail(t *testing.T) {
	httpErr := ToHTTPError(NewValidationError("title", "must not be empty"))
	assert.Equal(t, CodeValidation, httpErr.Code)
	assert.Equal(t, "title", httpErr.Details["field"])

	httpErr = ToHTTPError(NewContentRejectedError("content"))
	assert.Equal(t, CodeContentRejected, httpErr.Code)
	assert.Equal(t, "content", httpErr.Details["field"])
}

func TestWriteHTTPErrorSetsAuthenticateHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHTTPError(rec, NewUnauthorizedError("missing bearer token").WithRealm("askstack"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Bearer realm="askstack"`, rec.Header().Get("WWW-Authenticate"))
	assert.Contains(t, rec.Body.String(), CodeUnauthorized)
}

func TestWrapPreservesCode(t *testing.T) {
	inner := NewNotFoundError("question", "7")
	wrapped := Wrap(inner, "while listing answers")

	assert.Equal(t, http.StatusNotFound, StatusCode(wrapped))
	var nf *NotFoundError
	assert.ErrorAs(t, wrapped, &nf)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(CodeStorage))
	assert.True(t, IsTransient(CodeModerationUnavailable))
	assert.False(t, IsTransient(CodeContentRejected))
	assert.False(t, IsTransient(CodeNotFound))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(CodeValidation))
	assert.True(t, IsClientError(CodeUnauthorized))
	assert.False(t, IsClientError(CodeStorage))
	assert.False(t, IsClientError(CodeInternal))
}

func TestTraceOnlyForOperationalErrors(t *testing.T) {
	// Operational errors carry a stack for server-side logs.
	assert.NotEmpty(t, Trace(NewStorageError("insert", New("boom"))))
	assert.NotEmpty(t, Trace(NewModerationUnavailableError(New("down"))))
	assert.NotEmpty(t, Trace(New("unclassified")))

	// Client-caused errors report nothing; their detail goes to the caller.
	assert.Empty(t, Trace(NewNotFoundError("question", "7")))
	assert.Empty(t, Trace(NewValidationError("title", "empty")))
}
