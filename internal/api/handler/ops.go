// Package handler provides HTTP handlers for the CleanCommute API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/internal/routing/resilience"
)

// readinessTimeout bounds the database ping on readiness checks.
const readinessTimeout = 2 * time.Second

// Pinger verifies connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandlerConfig holds dependencies for the operational endpoints.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string

	// DB is pinged by readiness and status checks. Optional; when nil the
	// service reports the database subsystem as degraded.
	DB Pinger

	// Registry exposes routing provider circuit state. Optional.
	Registry *resilience.Registry

	// Routes exposes routing cache statistics. Optional.
	Routes *routing.Service
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	registry  *resilience.Registry
	routes    *routing.Service
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		db:        cfg.DB,
		registry:  cfg.Registry,
		routes:    cfg.Routes,
	}
}

// HealthCheck handles GET /healthz - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /readyz - readiness check.
// Pings the database with a short timeout; failure returns 503.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{
				"database": err.Error(),
			}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: []models.SubsystemStatus{h.databaseStatus(r.Context())},
		Providers:  h.providerStatuses(),
	}

	for _, sub := range status.Subsystems {
		switch sub.Status {
		case models.HealthStatusFail:
			status.Status = models.HealthStatusFail
		case models.HealthStatusDegraded:
			if status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
		}
	}
	if status.Status == models.HealthStatusOK {
		for _, p := range status.Providers {
			if p.Status != models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
				break
			}
		}
	}

	if h.routes != nil {
		stats := h.routes.CacheStats()
		status.RouteCache = &models.RouteCacheStatus{
			Provider:     stats.Provider,
			TotalEntries: stats.TotalEntries,
			FreshEntries: stats.FreshEntries,
			StaleEntries: stats.StaleEntries,
			Hits:         stats.Hits,
			Misses:       stats.Misses,
			Errors:       stats.Errors,
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

// databaseStatus pings Postgres and reports the result as a subsystem.
func (h *OpsHandler) databaseStatus(ctx context.Context) models.SubsystemStatus {
	sub := models.SubsystemStatus{
		Name:   "postgres",
		Status: models.HealthStatusOK,
	}

	if h.db == nil {
		sub.Status = models.HealthStatusDegraded
		detail := "not configured"
		sub.Detail = &detail
		return sub
	}

	pingCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	if err := h.db.Ping(pingCtx); err != nil {
		sub.Status = models.HealthStatusFail
		detail := err.Error()
		sub.Detail = &detail
	}

	return sub
}

// providerStatuses maps resilience registry health to the wire form.
func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	healthList := h.registry.Snapshot()
	statuses := make([]models.ProviderStatus, 0, len(healthList))
	for _, health := range healthList {
		ps := models.ProviderStatus{
			Provider:     health.Name,
			CircuitState: health.CircuitState.String(),
		}

		switch {
		case health.IsUnhealthy():
			ps.Status = models.HealthStatusFail
		case health.IsDegraded():
			ps.Status = models.HealthStatusDegraded
		default:
			ps.Status = models.HealthStatusOK
		}

		if health.LastSuccessAt != nil {
			ts := models.Timestamp(*health.LastSuccessAt)
			ps.LastSuccessAt = &ts
		}
		if health.LastFailureAt != nil {
			ts := models.Timestamp(*health.LastFailureAt)
			ps.LastFailureAt = &ts
		}
		if health.LastError != "" {
			msg := health.LastError
			ps.Message = &msg
		}

		statuses = append(statuses, ps)
	}

	return statuses
}
