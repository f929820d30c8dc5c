package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied by NewService for zero config fields.
const (
	defaultCacheTTL        = 5 * time.Minute
	defaultStaleIfErrorTTL = 15 * time.Minute
	defaultSweepInterval   = 5 * time.Minute
	defaultGridSize        = 0.01 // ~1.1km cells at the equator
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long a cached leg stays fresh (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the cache cell size in degrees (default: 0.01,
	// about 1.1km). Endpoints within the same cell share an entry.
	CacheGridSize float64

	// StaleIfErrorTTL is how long an expired leg may still be served
	// when the provider fails (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often expired entries are swept
	// (default: 5 minutes).
	CleanupInterval time.Duration

	// Metrics records provider calls and cache activity (optional).
	Metrics *ProviderMetrics
}

// Service answers leg requests from a grid-quantized in-memory cache,
// falling through to the provider on miss.
type Service struct {
	provider   Provider
	logger     zerolog.Logger
	metrics    *ProviderMetrics
	cacheTTL   time.Duration
	staleTTL   time.Duration
	sweepEvery time.Duration
	gridSize   float64

	stats counters

	mu        sync.RWMutex
	entries   map[string]legEntry
	lastSweep time.Time
}

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// legEntry is a cached provider response. Entries are values; the
// response pointer inside is shared but never mutated after store.
type legEntry struct {
	resp    *LegResponse
	fetched time.Time
	expires time.Time
}

func (e legEntry) fresh(now time.Time) bool {
	return now.Before(e.expires)
}

func (e legEntry) servableOnError(now time.Time, staleTTL time.Duration) bool {
	return now.Before(e.fetched.Add(staleTTL))
}

// NewService creates a routing service around the given provider.
func NewService(cfg ServiceConfig) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheGridSize <= 0 {
		cfg.CacheGridSize = defaultGridSize
	}
	if cfg.StaleIfErrorTTL <= 0 {
		cfg.StaleIfErrorTTL = defaultStaleIfErrorTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultSweepInterval
	}

	return &Service{
		provider:   cfg.Provider,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		cacheTTL:   cfg.CacheTTL,
		staleTTL:   cfg.StaleIfErrorTTL,
		sweepEvery: cfg.CleanupInterval,
		gridSize:   cfg.CacheGridSize,
		entries:    make(map[string]legEntry),
	}
}

// GetLeg returns the route leg between two points, served from cache
// when a fresh entry exists.
func (s *Service) GetLeg(ctx context.Context, req LegRequest) (*LegResponse, error) {
	if s.provider == nil {
		return nil, ErrProviderDisabled
	}

	if err := validateCoordinates(req.Origin); err != nil {
		return nil, s.coordError("INVALID_ORIGIN", "origin")
	}
	if err := validateCoordinates(req.Destination); err != nil {
		return nil, s.coordError("INVALID_DESTINATION", "destination")
	}

	key := s.cacheKey(req)

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && entry.fresh(time.Now()) {
		s.stats.hits.Add(1)
		s.metrics.RecordCacheHit(ctx, req.Profile)
		s.logger.Debug().Str("cache_key", key).Msg("route leg served from cache")
		return entry.resp, nil
	}

	return s.refresh(ctx, req, key)
}

// refresh fetches a leg from the provider and stores it. The write
// lock is held across the provider call so concurrent requests for the
// same cell wait for one fetch instead of stampeding the provider.
func (s *Service) refresh(ctx context.Context, req LegRequest, key string) (*LegResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have refreshed the entry while we waited on
	// the lock.
	if entry, ok := s.entries[key]; ok && entry.fresh(time.Now()) {
		s.stats.hits.Add(1)
		s.metrics.RecordCacheHit(ctx, req.Profile)
		return entry.resp, nil
	}

	s.stats.misses.Add(1)
	s.metrics.RecordCacheMiss(ctx, req.Profile)
	s.logger.Debug().
		Str("profile", string(req.Profile)).
		Str("provider", s.provider.Name()).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("fetching route leg from provider")

	start := time.Now()
	resp, err := s.provider.GetLeg(ctx, req)
	s.metrics.RecordRequest(ctx, req.Profile, time.Since(start), err)
	if err != nil {
		s.stats.errors.Add(1)
		s.logger.Error().Err(err).
			Str("profile", string(req.Profile)).
			Str("cache_key", key).
			Msg("route leg fetch failed")

		if entry, ok := s.entries[key]; ok && entry.servableOnError(time.Now(), s.staleTTL) {
			s.logger.Warn().
				Str("cache_key", key).
				Time("fetched_at", entry.fetched).
				Msg("serving stale route leg after provider error")
			return entry.resp, nil
		}
		return nil, err
	}

	now := time.Now()
	s.entries[key] = legEntry{
		resp:    resp,
		fetched: now,
		expires: now.Add(s.cacheTTL),
	}
	s.logger.Debug().
		Str("cache_key", key).
		Int("distance_meters", resp.DistanceMeters).
		Msg("cached route leg")

	s.sweep(now)

	return resp, nil
}

// cacheKey quantizes both endpoints onto the cache grid so nearby
// requests share an entry. Keys look like
// "driving-car:52.37,4.90:52.09,5.12".
func (s *Service) cacheKey(req LegRequest) string {
	return fmt.Sprintf("%s:%s:%s", req.Profile, s.gridCell(req.Origin), s.gridCell(req.Destination))
}

// gridCell snaps a coordinate to the south-west corner of its cell.
func (s *Service) gridCell(c Coordinate) string {
	lat := math.Floor(c.Lat/s.gridSize) * s.gridSize
	lon := math.Floor(c.Lon/s.gridSize) * s.gridSize
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// sweep drops entries past the stale window. Runs at most once per
// sweep interval. Callers must hold the write lock.
func (s *Service) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.sweepEvery {
		return
	}
	s.lastSweep = now

	before := len(s.entries)
	for key, entry := range s.entries {
		if !entry.servableOnError(now, s.staleTTL) {
			delete(s.entries, key)
		}
	}
	if dropped := before - len(s.entries); dropped > 0 {
		s.logger.Debug().Int("dropped", dropped).Msg("swept expired route cache entries")
	}
}

// InvalidateCache clears all cached legs.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]legEntry)
}

// CacheStats contains cache and provider counters.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Hits         int64
	Misses       int64
	Errors       int64
	Provider     string
}

// CacheStats reports a snapshot of cache state and counters.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{
		TotalEntries: len(s.entries),
		Hits:         s.stats.hits.Load(),
		Misses:       s.stats.misses.Load(),
		Errors:       s.stats.errors.Load(),
		Provider:     s.ProviderName(),
	}
	for _, entry := range s.entries {
		switch {
		case entry.fresh(now):
			stats.FreshEntries++
		case entry.servableOnError(now, s.staleTTL):
			stats.StaleEntries++
		}
	}
	return stats
}

// ProviderName returns the name of the underlying provider, or "none"
// when the service runs without one.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

// coordError builds the validation error returned before the provider
// is consulted.
func (s *Service) coordError(code, side string) *Error {
	return &Error{
		Provider: s.provider.Name(),
		Code:     code,
		Message:  "invalid " + side + " coordinates",
		Err:      ErrInvalidCoordinates,
	}
}

// validateCoordinates checks latitude and longitude ranges.
func validateCoordinates(c Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}
