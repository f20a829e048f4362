package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the router. Question reads are public; every mutation sits
// behind session authentication.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(g.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", g.handleHealth)

	r.Route("/questions", func(r chi.Router) {
		r.Get("/", g.handleListQuestions)
		r.Get("/{id}", g.handleGetQuestion)
		r.Get("/{id}/answers", g.handleListAnswers)

		r.Group(func(r chi.Router) {
			r.Use(g.requireAuth)
			r.Post("/", g.handleCreateQuestion)
			r.Put("/{id}", g.handleUpdateQuestion)
			r.Delete("/{id}", g.handleDeleteQuestion)
			r.Post("/{id}/answers", g.handleCreateAnswer)
		})
	})

	r.Route("/answers", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(g.requireAuth)
			r.Put("/{id}", g.handleUpdateAnswer)
			r.Delete("/{id}", g.handleDeleteAnswer)
		})
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/register", g.handleRegister)
		r.Post("/login", g.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(g.requireAuth)
			r.Post("/logout", g.handleLogout)
		})
	})

	return r
}
