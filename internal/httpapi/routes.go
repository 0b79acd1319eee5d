package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/riftgate/llm-gateway/internal/app"
	"github.com/riftgate/llm-gateway/internal/middleware"
	"github.com/riftgate/llm-gateway/internal/respond"
)

// MaxBodyBytes bounds the request body read for every route (spec §6:
// 10MB).
const MaxBodyBytes = 10 << 20

// SetupRoutes configures the gateway's HTTP routes and middleware chain
// (spec §6's endpoint table). Grounded on the teacher's routes.SetupRoutes:
// same chi core-middleware stack and CORS setup, with
// deps.AuthMiddleware.RequireAuth/ExtractTenant replaced by
// deps.Auth.RequireAPIKey and a rate-limit layer added per spec §4.7.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(bodyLimit)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	chatHandler := NewChatHandler(deps.Router, deps.Tenants, deps.Metrics, deps.CostPerToken(), deps.PolicyParams, deps.Logger)
	healthHandler := NewHealthHandler(deps.Providers, deps.Breakers, deps.Health, deps.Logger)
	metricsHandler := NewMetricsHandler(deps.Metrics)

	r.Get("/health", healthHandler.HandleLiveness)
	r.Get("/health/detailed", healthHandler.HandleDetailed)
	r.Get("/metrics", metricsHandler.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.With(deps.Auth.RequireAPIKey, deps.RateLimitMW.Enforce).Post("/chat/completions", chatHandler.ServeHTTP)
		r.With(deps.Auth.RequireAPIKey).Get("/health/providers", healthHandler.HandleProviderStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "not_found_error", "the requested resource was not found", nil)
	})

	return r
}

// bodyLimit caps every request body at MaxBodyBytes (spec §6).
func bodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
