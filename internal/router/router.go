// Package router sets up the HTTP routes and middleware chains for the
// game catalog API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"stonegames/internal/handlers"
	"stonegames/internal/middleware"
)

// New creates and returns the configured Chi router. The like and view
// counters are throttled per client by limiter. trustProxy makes the
// limiter key on forwarding headers instead of the peer address.
func New(h *handlers.Catalog, limiter middleware.Limiter, trustProxy bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{id}", h.GetCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.ListGames)
			r.Post("/", h.CreateGame)
			r.Get("/{id}", h.GetGame)
			r.Put("/{id}", h.UpdateGame)
			r.Delete("/{id}", h.DeleteGame)

			// Counters, rate-limited per client IP.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(limiter, trustProxy))
				r.Post("/{id}/like", h.LikeGame)
				r.Post("/{id}/view", h.ViewGame)
			})
		})

		r.Get("/home", h.Home)
		r.Get("/stats", h.Stats)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reconcile", h.Reconcile)
			r.Get("/sync-log", h.SyncLog)
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
