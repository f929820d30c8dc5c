// Package api provides the HTTP API for CleanCommute.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/api/handler"
	"github.com/cleancommute/cleancommute/internal/api/middleware"
	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/commute"
	"github.com/cleancommute/cleancommute/internal/featureflags"
	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/internal/routing/resilience"
	"github.com/cleancommute/cleancommute/internal/sample"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	APIKey             string
	CORSAllowedOrigins []string
	DB                 handler.Pinger
	Registry           *resilience.Registry
	CommuteService     *commute.Service
	SampleService      *sample.Service
	FeatureFlagService *featureflags.Service
	RoutingService     *routing.Service
	RouteComparison    *routing.Comparison
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "cleancommute-api"
	}

	allowedOrigins := cfg.CORSAllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.RequestLogger(cfg.Logger)) // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))      // Panic recovery
	r.Use(chimiddleware.RealIP)                 // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Location"},
		MaxAge:         300,
	}))
	r.Use(middleware.SecurityHeaders) // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)      // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON) // JSON content type
	r.Use(middleware.RequireJSON)     // Reject non-JSON request bodies

	// Unknown routes and methods get RFC7807 problems like everything else
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		traceID := middleware.GetRequestID(req.Context())
		problem := models.NewNotFound(traceID, "resource not found")
		problem.Instance = req.URL.Path
		problem.Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		traceID := middleware.GetRequestID(req.Context())
		problem := models.NewProblem(
			"https://api.cleancommute.dev/problems/method-not-allowed",
			"Method not allowed",
			http.StatusMethodNotAllowed,
			traceID,
		)
		problem.Instance = req.URL.Path
		problem.Write(w)
	})

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Registry:  cfg.Registry,
		Routes:    cfg.RoutingService,
	})
	emissionsHandler := handler.NewEmissionsHandler()
	metadataHandler := handler.NewMetadataHandler()
	commuteHandler := handler.NewCommuteHandler(cfg.CommuteService)
	sampleHandler := handler.NewSampleHandler(cfg.SampleService)
	routeHandler := handler.NewRouteHandler(cfg.RouteComparison)
	adminHandler := handler.NewAdminHandler(cfg.CommuteService, cfg.SampleService, cfg.FeatureFlagService)

	// Create auth middleware
	apiKeyAuth := middleware.APIKey(cfg.APIKey, cfg.Logger)

	// Create rate limit middleware for different endpoint categories
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min
	writeRateLimit := middleware.RateLimitByIP(middleware.WriteRateLimit)         // 20 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min

	// Liveness and readiness (public, unversioned)
	r.Get("/healthz", opsHandler.HealthCheck)
	r.Get("/readyz", opsHandler.ReadinessCheck)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops and metadata endpoints (public) - standard rate limiting
		r.With(standardRateLimit).Get("/ops/status", opsHandler.SystemStatus)
		r.With(standardRateLimit).Get("/metadata/modes", metadataHandler.ListModes)

		// Everything else requires the API key
		r.Group(func(r chi.Router) {
			r.Use(apiKeyAuth)

			// Emission estimates (pure compute)
			r.Route("/emissions", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Post("/estimate", emissionsHandler.Estimate)
				r.Post("/compare", emissionsHandler.Compare)
			})

			// Route comparison calls the routing provider - strict rate limiting
			r.With(expensiveRateLimit).Post("/routes/compare", routeHandler.CompareRoutes)

			// Commute records
			r.Route("/commutes", func(r chi.Router) {
				r.With(writeRateLimit).Post("/", commuteHandler.CreateCommute)
				r.With(standardRateLimit).Get("/", commuteHandler.ListCommutes)
				r.Route("/{commuteId}", func(r chi.Router) {
					r.Use(standardRateLimit)
					r.Get("/", commuteHandler.GetCommute)
					r.Delete("/", commuteHandler.DeleteCommute)
				})
			})

			// Sample records
			r.Route("/samples", func(r chi.Router) {
				r.With(writeRateLimit).Post("/", sampleHandler.CreateSample)
				r.With(standardRateLimit).Get("/", sampleHandler.ListSamples)
				r.With(standardRateLimit).Get("/{sampleId}", sampleHandler.GetSample)
			})

			// Admin endpoints - destructive ops gated by the allow_clear flag
			r.Route("/admin", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Post("/commutes:clear", adminHandler.ClearCommutes)
				r.Post("/samples:clear", adminHandler.ClearSamples)
				r.Route("/feature-flags", func(r chi.Router) {
					r.Get("/", adminHandler.ListFeatureFlags)
					r.Put("/{key}", adminHandler.UpdateFeatureFlag)
				})
			})
		})
	})

	return r
}
