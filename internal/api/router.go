package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the handlers into a chi router with the standard
// middleware chain.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(RequestMetrics(h.Metrics))

	r.Get("/health", h.Health)
	r.Handle("/metrics", h.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/optimize", h.Optimize)
		r.Get("/stations/near", h.StationsNear)
	})

	return r
}
