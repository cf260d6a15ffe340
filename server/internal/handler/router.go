package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/uigen-dev/uigen/server/internal/middleware"
)

// Router builds the application's route tree with its global middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SanitizedLogger(h.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Sign-in and staging need the visitor's anonymous id
		r.Group(func(r chi.Router) {
			r.Use(middleware.AnonymousID(h.cfg))

			r.Post("/auth/signin", h.SignIn)
			r.Post("/auth/signup", h.SignUp)

			r.Get("/anon-work", h.GetAnonWork)
			r.Put("/anon-work", h.PutAnonWork)
			r.Delete("/anon-work", h.DeleteAnonWork)
		})

		r.Post("/auth/signout", h.SignOut)
		r.With(middleware.OptionalAuth(h.store, h.cfg)).Get("/auth/me", h.Me)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.store, h.cfg))

			r.Get("/projects", h.ListProjects)
			r.Post("/projects", h.CreateProject)
			r.Get("/projects/{projectId}", h.GetProject)
			r.Delete("/projects/{projectId}", h.DeleteProject)
		})
	})

	return r
}
