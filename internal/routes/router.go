package routes

import (
	"net/http"
	"time"

	"forage-map/orchard/internal/api"
	"forage-map/orchard/internal/logging"
	"forage-map/orchard/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterRoutes builds the chi router serving the health check and the
// points API.
func RegisterRoutes(deps *api.Dependencies, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.InFlightMiddleware(deps.Metrics))
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.Origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	handlers := api.NewHandlers(deps)
	limiter := middleware.NewRateLimiter(deps.Config.RateLimit)

	// health check
	r.Get("/healthCheck", handlers.HealthCheckHandler(upSince))

	RegisterAPIRoutes(r, handlers, limiter)

	logging.Info("Router initialized with metrics and logging middleware")
	return r
}
