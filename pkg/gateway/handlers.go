package gateway

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/askstack/askstack/pkg/domain"
	"github.com/askstack/askstack/pkg/errors"
	"github.com/askstack/askstack/pkg/httputil"
	"github.com/askstack/askstack/pkg/logging"
	"github.com/askstack/askstack/pkg/service"
	"github.com/askstack/askstack/pkg/storage"
)

// writeError replies with the error's HTTP shape. Operational failures are
// logged with their stack first; client-caused errors carry their own detail
// and need no server-side record.
func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	var coded errors.Error
	if errors.As(err, &coded) && !errors.IsClientError(coded.Code()) {
		fields := []zap.Field{zap.Error(err)}
		if trace := errors.Trace(err); trace != "" {
			fields = append(fields, zap.String("stack", trace))
		}
		g.logger.ComponentError(logging.ComponentServer, "request failed", fields...)
	}
	errors.WriteHTTPError(w, err)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Ping(r.Context()); err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		g.writeError(w, err)
		return
	}
	tag := httputil.QueryParam(r, "tag", "")

	questions, err := g.qa.ListQuestions(r.Context(), page, tag)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, questions)
}

func (g *Gateway) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	q, err := g.qa.GetQuestion(r.Context(), id)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (g *Gateway) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var in service.QuestionInput
	if err := httputil.DecodeJSONStrict(r, &in); err != nil {
		g.writeError(w, errors.NewValidationError("body", "malformed JSON"))
		return
	}

	q, err := g.qa.CreateQuestion(r.Context(), in, requesterEmail(r))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, q)
}

func (g *Gateway) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	var patch domain.QuestionPatch
	if err := httputil.DecodeJSONStrict(r, &patch); err != nil {
		g.writeError(w, errors.NewValidationError("body", "malformed JSON"))
		return
	}

	q, err := g.qa.UpdateQuestion(r.Context(), id, patch, requesterEmail(r))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func (g *Gateway) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	if err := g.qa.DeleteQuestion(r.Context(), id, requesterEmail(r)); err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (g *Gateway) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	answers, err := g.qa.ListAnswers(r.Context(), id, page)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, answers)
}

type answerRequest struct {
	Content string `json:"content"`
}

func (g *Gateway) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	var in answerRequest
	if err := httputil.DecodeJSONStrict(r, &in); err != nil {
		g.writeError(w, errors.NewValidationError("body", "malformed JSON"))
		return
	}

	a, err := g.qa.CreateAnswer(r.Context(), id, in.Content, requesterEmail(r))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (g *Gateway) handleUpdateAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	var in answerRequest
	if err := httputil.DecodeJSONStrict(r, &in); err != nil {
		g.writeError(w, errors.NewValidationError("body", "malformed JSON"))
		return
	}

	a, err := g.qa.UpdateAnswer(r.Context(), id, in.Content, requesterEmail(r))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (g *Gateway) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		g.writeError(w, err)
		return
	}

	if err := g.qa.DeleteAnswer(r.Context(), id, requesterEmail(r)); err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := httputil.DecodeJSONStrict(r, &in); err != nil {
		g.writeError(w, errors.NewValidationError("body", "malformed JSON"))
		return
	}

	acct, err := g.auth.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, acct)
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentialsRequest
	if err := httputil.DecodeJSONStrict(r, &in); err != nil {
		g.writeError(w, errors.NewValidationError("body", "malformed JSON"))
		return
	}

	cred, err := g.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cred)
}

func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	// requireAuth already validated the token; revocation is idempotent.
	if err := g.auth.Revoke(r.Context(), httputil.BearerToken(r)); err != nil {
		g.writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

func pageFromQuery(r *http.Request) (storage.Page, error) {
	offset, err := httputil.QueryParamInt(r, "offset", 0)
	if err != nil {
		return storage.Page{}, errors.NewValidationError("offset", "must be an integer")
	}
	limit, err := httputil.QueryParamInt(r, "limit", 0)
	if err != nil {
		return storage.Page{}, errors.NewValidationError("limit", "must be an integer")
	}
	if offset < 0 {
		return storage.Page{}, errors.NewValidationError("offset", "must not be negative")
	}
	if limit < 0 {
		return storage.Page{}, errors.NewValidationError("limit", "must not be negative")
	}
	return storage.Page{Offset: offset, Limit: limit}, nil
}

func requesterEmail(r *http.Request) string {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		return ""
	}
	return sess.OwnerEmail
}
