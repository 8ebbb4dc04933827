package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/health", s.health)
	r.Get("/hooks", s.listHooks)
	r.Get("/metrics", s.getMetrics)
	r.Get("/event", s.allEvents)

	// Application-level callbacks are not addressed to an actor.
	r.Post("/callbacks/{name}", s.dispatchHandler(types.CategoryAppCallback))

	r.Route("/{actorID}", func(r chi.Router) {
		r.Post("/methods/{name}", s.dispatchHandler(types.CategoryMethod))
		r.Post("/actions/{name}", s.dispatchHandler(types.CategoryAction))
		// Property names are paths such as "settings/theme".
		r.Get("/properties/*", s.dispatchHandler(types.CategoryProperty))
		r.Put("/properties/*", s.dispatchHandler(types.CategoryProperty))
		r.Post("/callbacks/{name}", s.dispatchHandler(types.CategoryCallback))
		r.Post("/subscriptions/{name}", s.dispatchHandler(types.CategorySubscription))
		r.Post("/lifecycle/{name}", s.dispatchHandler(types.CategoryLifecycle))
	})
}
