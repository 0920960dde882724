package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/starford/specgraph/internal/specservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *specservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/graph", h.Graph)
	r.Get("/impact/*", h.Impact)
	r.Post("/simulate", h.Simulate)
	r.Get("/report", h.Report)
	r.Get("/cycles", h.Cycles)
	r.Get("/search", h.Search)

	return r
}
