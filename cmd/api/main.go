// Package main provides the entrypoint for the CleanCommute API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/api"
	"github.com/cleancommute/cleancommute/internal/api/middleware"
	"github.com/cleancommute/cleancommute/internal/commute"
	"github.com/cleancommute/cleancommute/internal/database"
	"github.com/cleancommute/cleancommute/internal/featureflags"
	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/internal/routing/openrouteservice"
	"github.com/cleancommute/cleancommute/internal/routing/resilience"
	"github.com/cleancommute/cleancommute/internal/sample"
	"github.com/cleancommute/cleancommute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "cleancommute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CleanCommute API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize commute repository and service
	commuteRepo := commute.NewPostgresRepository(pool)
	commuteService := commute.NewService(commuteRepo)
	log.Info().Msg("commute service initialized")

	// Initialize sample repository and service
	sampleRepo := sample.NewPostgresRepository(pool)
	sampleService := sample.NewService(sampleRepo)
	log.Info().Msg("sample service initialized")

	// Initialize feature flags repository and service
	allowClear := os.Getenv("ALLOW_CLEAR") == "true"
	ffRepo := featureflags.NewPostgresRepository(pool)
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository:   ffRepo,
		Logger:       log,
		CacheTTL:     1 * time.Minute,
		DefaultFlags: featureflags.DefaultFlags(allowClear),
	})
	if err := ffService.SeedDefaults(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to seed feature flag defaults")
	}
	log.Info().Bool("allow_clear", allowClear).Msg("feature flags service initialized")

	// Initialize routing provider (may be nil if not configured)
	var routingService *routing.Service
	orsAPIKey := os.Getenv("ORS_API_KEY")
	if orsAPIKey != "" {
		orsClient := openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   orsAPIKey,
			BaseURL:  os.Getenv("ORS_BASE_URL"),
			Registry: resilience.DefaultRegistry,
			Logger:   log,
		})
		routingMetrics, err := routing.NewProviderMetrics(orsClient.Name())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize routing metrics")
		}
		routingService = routing.NewService(routing.ServiceConfig{
			Provider: orsClient,
			Logger:   log,
			Metrics:  routingMetrics,
		})
		log.Info().Str("provider", orsClient.Name()).Msg("routing provider initialized")
	} else {
		log.Warn().Msg("ORS_API_KEY not set - route comparisons fall back to estimates")
	}

	comparison := routing.NewComparison(routing.ComparisonConfig{
		Legs:   legSourceOrNil(routingService),
		Flags:  ffService,
		Logger: log,
	})

	// API key for write and compute endpoints
	apiKey := os.Getenv("API_KEY")

	var corsOrigins []string
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
		for i := range corsOrigins {
			corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
		}
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		APIKey:             apiKey,
		CORSAllowedOrigins: corsOrigins,
		DB:                 pool,
		Registry:           resilience.DefaultRegistry,
		CommuteService:     commuteService,
		SampleService:      sampleService,
		FeatureFlagService: ffService,
		RoutingService:     routingService,
		RouteComparison:    comparison,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// legSourceOrNil avoids handing the comparison a typed nil interface.
func legSourceOrNil(s *routing.Service) routing.LegSource {
	if s == nil {
		return nil
	}
	return s
}
