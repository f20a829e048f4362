package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askstack/askstack/pkg/auth"
	"github.com/askstack/askstack/pkg/config"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/logging"
	"github.com/askstack/askstack/pkg/moderation"
	"github.com/askstack/askstack/pkg/service"
	"github.com/askstack/askstack/pkg/storage/memory"
)

// scriptedGateway flags any text containing the word "forbidden" and can be
// switched into outage mode.
type scriptedGateway struct {
	unavailable bool
}

func (g *scriptedGateway) Screen(_ context.Context, text string) (moderation.Result, error) {
	if g.unavailable {
		return moderation.Result{}, errors.NewModerationUnavailableError(errors.New("gateway down"))
	}
	if strings.Contains(text, "forbidden") {
		return moderation.Result{Flagged: true, Matches: []string{"forbidden"}}, nil
	}
	return moderation.Result{}, nil
}

type testEnv struct {
	srv *httptest.Server
	mod *scriptedGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger, err := logging.NewColoredLogger(logging.ComponentServer, false)
	require.NoError(t, err)

	store := memory.NewStore()
	mod := &scriptedGateway{}
	qa := service.NewQAService(store, mod, logger)
	authMgr := auth.NewManager(store, config.AuthConfig{
		SessionTTL:    time.Hour,
		SweepInterval: time.Minute,
	}, logger)

	g := NewGateway(config.ServerConfig{
		ListenAddr:      ":0",
		RequestTimeout:  5 * time.Second,
		ShutdownTimeout: time.Second,
	}, logger, qa, authMgr, store)

	srv := httptest.NewServer(g.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, mod: mod}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

// register+login and return a usable bearer token.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	res := e.do(t, http.MethodPost, "/accounts/register", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = e.do(t, http.MethodPost, "/accounts/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	cred := decode[auth.Credential](t, res)
	require.NotEmpty(t, cred.ClientID)
	require.NotEmpty(t, cred.ClientSecret)
	return cred.Token()
}

func TestQuestionScenario(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"title":   "T",
		"content": "C",
		"tags":    []string{"rust"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	type question struct {
		ID        int64     `json:"id"`
		Title     string    `json:"title"`
		Content   string    `json:"content"`
		Tags      []string  `json:"tags"`
		CreatedOn time.Time `json:"created_on"`
	}
	created := decode[question](t, res)
	assert.Positive(t, created.ID)
	assert.False(t, created.CreatedOn.IsZero())

	res = env.do(t, http.MethodGet, fmt.Sprintf("/questions/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	got := decode[question](t, res)
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "C", got.Content)
	assert.Equal(t, []string{"rust"}, got.Tags)
}

func TestWriteRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/questions"},
		{http.MethodPut, "/questions/1"},
		{http.MethodDelete, "/questions/1"},
		{http.MethodPost, "/questions/1/answers"},
		{http.MethodPut, "/answers/1"},
		{http.MethodDelete, "/answers/1"},
		{http.MethodPost, "/accounts/logout"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			res := env.do(t, p.method, p.path, "", map[string]string{})
			assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
			assert.Contains(t, res.Header.Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestReadIsPublic(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/questions", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = env.do(t, http.MethodGet, "/questions/99", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestFlaggedContentRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"title":   "a forbidden word",
		"content": "C",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	body := decode[map[string]any](t, res)
	assert.Equal(t, "CONTENT_REJECTED", body["code"])
}

func TestModerationOutageReturns503(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")
	env.mod.unavailable = true

	res := env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"title":   "T",
		"content": "C",
	})
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	// The body must not leak the cause.
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "gateway down")
}

func TestListQuestionsBadPagination(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"?limit=abc", "?offset=-1", "?offset=x"} {
		res := env.do(t, http.MethodGet, "/questions"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, q)
	}
}

func TestAnswerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"title": "T", "content": "C",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	q := decode[map[string]any](t, res)
	qid := int64(q["id"].(float64))

	res = env.do(t, http.MethodPost, fmt.Sprintf("/questions/%d/answers", qid), token, map[string]string{
		"content": "an answer",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	a := decode[map[string]any](t, res)
	aid := int64(a["id"].(float64))

	res = env.do(t, http.MethodGet, fmt.Sprintf("/questions/%d/answers", qid), "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	answers := decode[[]map[string]any](t, res)
	require.Len(t, answers, 1)

	res = env.do(t, http.MethodPut, fmt.Sprintf("/answers/%d", aid), token, map[string]string{
		"content": "a better answer",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	updated := decode[map[string]any](t, res)
	assert.Equal(t, "a better answer", updated["content"])

	res = env.do(t, http.MethodDelete, fmt.Sprintf("/answers/%d", aid), token, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = env.do(t, http.MethodDelete, fmt.Sprintf("/answers/%d", aid), token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAnswerToMissingQuestionIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/questions/42/answers", token, map[string]string{
		"content": "orphan",
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUnknownBodyFieldsRejected(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"title":   "T",
		"content": "C",
		"sneaky":  "field",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = env.do(t, http.MethodPost, "/accounts/register", "", map[string]any{
		"email": "b@x.com", "password": "pw", "admin": true,
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRegisterDuplicateIs409(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/accounts/register", "", map[string]string{
		"email": "a@x.com", "password": "other",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestLoginWrongPasswordIs401(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/accounts/login", "", map[string]string{
		"email": "a@x.com", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@x.com", "pw1")

	res := env.do(t, http.MethodPost, "/accounts/logout", token, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = env.do(t, http.MethodPost, "/questions", token, map[string]any{
		"title": "T", "content": "C",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	res := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
