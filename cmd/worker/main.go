// Package main provides the entrypoint for the CleanCommute warmup worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/database"
	"github.com/cleancommute/cleancommute/internal/featureflags"
	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/internal/routing/openrouteservice"
	"github.com/cleancommute/cleancommute/internal/routing/resilience"
	"github.com/cleancommute/cleancommute/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// defaultWarmupInterval is used when Pub/Sub is not configured and
// WARMUP_INTERVAL is unset.
const defaultWarmupInterval = 6 * time.Hour

func main() {
	const serviceName = "cleancommute-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CleanCommute worker")

	// Worker also exposes health endpoints for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize routing provider (may be nil if not configured)
	var routes *routing.Service
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
		routes = routing.NewService(routing.ServiceConfig{
			Provider: orsClient,
			Logger:   log,
			Metrics:  routingMetrics,
		})
		log.Info().Str("provider", orsClient.Name()).Msg("routing provider initialized")
	} else {
		log.Warn().Msg("ORS_API_KEY not set - warmup runs will be skipped")
	}

	// Feature flags gate warmup when a database is configured.
	var flags routing.FlagChecker
	if os.Getenv("DB_HOST") != "" {
		pool, err := database.Connect(ctx, database.ConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		flags = featureflags.NewService(featureflags.ServiceConfig{
			Repository: featureflags.NewPostgresRepository(pool),
			Logger:     log,
		})
		log.Info().Msg("feature flags service initialized")
	}

	// Warmup configuration from environment
	warmupCfg := worker.DefaultWarmupConfig()
	if v := os.Getenv("WARMUP_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			warmupCfg.Concurrency = n
		}
	}
	if v := os.Getenv("WARMUP_PROFILES"); v != "" {
		profiles := strings.Split(v, ",")
		for i := range profiles {
			profiles[i] = strings.TrimSpace(profiles[i])
		}
		warmupCfg.Profiles = profiles
	}

	warmupJob := worker.NewWarmupJob(worker.WarmupJobConfig{
		Config: warmupCfg,
		Logger: log,
		Routes: routes,
		Flags:  flags,
	})

	// Prefer Pub/Sub triggered runs; fall back to an interval scheduler.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")

	if projectID != "" && subscription != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			WarmupJob:        warmupJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer handler.Close()

		go func() {
			if err := handler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		interval := defaultWarmupInterval
		if v := os.Getenv("WARMUP_INTERVAL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				interval = d
			}
		}

		log.Info().Dur("interval", interval).Msg("pubsub not configured, using interval scheduler")

		go func() {
			// Warm once at startup, then on the interval.
			warmupJob.Run(ctx)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					warmupJob.Run(ctx)
				}
			}
		}()
	}

	// HTTP server for health checks and metrics
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "OK",
			"version": Version,
		})
	})

	mux.HandleFunc("/metrics-summary", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(warmupJob.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("worker http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("worker http server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("worker http server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
