package routes

import (
	"forage-map/orchard/internal/api"
	"forage-map/orchard/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, limiter *middleware.RateLimiter) {
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/catalog", handlers.CatalogHandler())

		v1.Route("/points", func(points chi.Router) {
			points.Get("/", handlers.ListPointsHandler())
			points.Get("/export.csv", handlers.ExportPointsHandler())

			// Writes reach the remote table; budget them per client.
			points.Group(func(writes chi.Router) {
				writes.Use(limiter.Middleware)
				writes.Post("/", handlers.AddPointHandler())
				writes.Post("/refresh", handlers.RefreshPointsHandler())
				writes.Delete("/{id}", handlers.DeletePointHandler())
			})
		})
	})
}
