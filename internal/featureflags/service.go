package featureflags

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// defaultCacheTTL is how long reads are served from memory before the store
// is consulted again.
const defaultCacheTTL = time.Minute

// ServiceConfig configures the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration
	DefaultFlags map[string]*Flag
}

// Service evaluates feature flags with a short-lived in-memory cache. When
// the store is unreachable it falls back to the compiled-in defaults, so a
// database outage never flips a flag.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration
	defaults map[string]*Flag

	mu      sync.RWMutex
	cache   map[string]*Flag
	staleAt time.Time
}

// NewService creates a feature flag service.
func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	defaults := cfg.DefaultFlags
	if defaults == nil {
		defaults = DefaultFlags(false)
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: ttl,
		defaults: defaults,
		cache:    make(map[string]*Flag),
	}
}

// SeedDefaults inserts the compiled-in defaults into the store so operators
// can edit them, without overriding values they already changed. Called once
// at boot.
func (s *Service) SeedDefaults(ctx context.Context) error {
	seed := make([]*Flag, 0, len(s.defaults))
	for _, flag := range s.defaults {
		seed = append(seed, flag.clone())
	}
	return s.repo.SeedFlags(ctx, seed)
}

// GetFlag returns the flag under key, trying the cache, then the store,
// then the compiled-in defaults. Unknown keys return nil.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.cached(key); flag != nil {
		return flag
	}

	flag, err := s.repo.GetFlag(ctx, key)
	switch {
	case err == nil:
		s.cacheOne(key, flag)
		return flag
	case !errors.Is(err, ErrFlagNotFound):
		s.logger.Warn().Err(err).Str("flag", key).Msg("feature flag store unavailable")
	}

	return s.defaults[key]
}

// IsEnabled reports whether the flag under key evaluates to enabled.
// Unknown flags are disabled.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	flag := s.GetFlag(ctx, key)
	return flag != nil && flag.Enabled
}

// GetAllFlags returns stored values merged over the compiled-in defaults,
// refreshing the cache as a side effect.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	merged := make(map[string]*Flag, len(s.defaults))
	for k, v := range s.defaults {
		merged[k] = v
	}

	stored, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("feature flag store unavailable, serving defaults")
		return merged
	}

	for k, v := range stored {
		merged[k] = v
	}

	s.mu.Lock()
	s.cache = stored
	s.staleAt = time.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return merged
}

// SetFlag writes a flag through to the store and the cache.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	flag.UpdatedAt = time.Now()
	if err := s.repo.SetFlag(ctx, flag); err != nil {
		return err
	}

	s.cacheOne(flag.Key, flag)
	return nil
}

// InvalidateCache drops cached flags so the next read hits the store.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.staleAt = time.Time{}
}

// AllowClear reports whether the destructive admin clear endpoints are
// permitted.
func (s *Service) AllowClear(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagAllowClear)
}

// RoutingDisabled reports whether route comparisons must skip the provider.
func (s *Service) RoutingDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisableRouting)
}

func (s *Service) cached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if time.Now().After(s.staleAt) {
		return nil
	}
	return s.cache[key]
}

func (s *Service) cacheOne(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.staleAt.Before(now) {
		// The rest of the cache is stale; don't revive it.
		s.cache = make(map[string]*Flag)
		s.staleAt = now.Add(s.cacheTTL)
	}
	s.cache[key] = flag
}
