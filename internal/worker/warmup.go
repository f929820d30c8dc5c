package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/pkg/polyline"
)

// WarmupJob pre-resolves route legs for busy commuter corridors so
// comparison requests hit a warm routing cache.
type WarmupJob struct {
	config WarmupConfig
	logger zerolog.Logger

	// Routing service (optional, nil if not configured)
	routes *routing.Service

	// Flags gates warmup at runtime (optional).
	flags routing.FlagChecker

	metrics *WarmupMetrics
}

// WarmupMetrics tracks warmup job statistics.
type WarmupMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns      int64
	SuccessfulLegs int64
	FailedLegs     int64
	SkippedLegs    int64
	GeometryPoints int64
	GeometryKm     float64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmupJobConfig holds configuration for creating a WarmupJob.
type WarmupJobConfig struct {
	Config WarmupConfig
	Logger zerolog.Logger
	Routes *routing.Service
	Flags  routing.FlagChecker
}

// NewWarmupJob creates a new warmup job processor.
func NewWarmupJob(cfg WarmupJobConfig) *WarmupJob {
	config := cfg.Config
	if len(config.Corridors) == 0 {
		config.Corridors = DefaultCorridors()
	}
	if len(config.Profiles) == 0 {
		config.Profiles = DefaultProfiles()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &WarmupJob{
		config:  config,
		logger:  cfg.Logger,
		routes:  cfg.Routes,
		flags:   cfg.Flags,
		metrics: &WarmupMetrics{},
	}
}

// withProfiles derives a job limited to the given profiles, sharing
// the routing service and flag checker of the receiver.
func (j *WarmupJob) withProfiles(profiles []string) *WarmupJob {
	config := j.config
	config.Profiles = profiles
	return NewWarmupJob(WarmupJobConfig{
		Config: config,
		Logger: j.logger,
		Routes: j.routes,
		Flags:  j.flags,
	})
}

// WarmupResult contains the result of a warmup run.
type WarmupResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalTasks     int
	Successful     int
	Failed         int
	Skipped        int
	GeometryPoints int
	GeometryKm     float64
	Errors         []WarmupError
}

// WarmupError represents a failed leg fetch.
type WarmupError struct {
	Corridor string
	Profile  string
	Error    string
}

// Run executes the warmup job for all configured corridors.
func (j *WarmupJob) Run(ctx context.Context) *WarmupResult {
	startTime := time.Now()
	result := &WarmupResult{
		StartTime:  startTime,
		TotalTasks: j.config.TotalTasks(),
	}

	if j.flags != nil && j.flags.RoutingDisabled(ctx) {
		j.logger.Info().Msg("routing disabled by feature flag, skipping warmup")
		result.Skipped = result.TotalTasks
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		j.updateMetrics(result)
		return result
	}

	j.logger.Info().
		Int("total_tasks", result.TotalTasks).
		Int("concurrency", j.config.Concurrency).
		Msg("starting route cache warmup")

	tasks := j.config.AllTasks()

	// Create work channels
	tasksChan := make(chan WarmupTask, len(tasks))
	resultsChan := make(chan taskResult, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmupWorker(ctx, tasksChan, resultsChan)
		}()
	}

	// Send tasks to workers
	for _, task := range tasks {
		tasksChan <- task
	}
	close(tasksChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for tr := range resultsChan {
		switch {
		case tr.skipped:
			result.Skipped++
		case tr.err == nil:
			result.Successful++
			result.GeometryPoints += tr.geometryPoints
			result.GeometryKm += tr.geometryKm
		default:
			result.Failed++
			result.Errors = append(result.Errors, WarmupError{
				Corridor: tr.task.Corridor.Name,
				Profile:  tr.task.Profile,
				Error:    tr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("geometry_points", result.GeometryPoints).
		Float64("geometry_km", result.GeometryKm).
		Msg("route cache warmup completed")

	return result
}

type taskResult struct {
	task           WarmupTask
	skipped        bool
	geometryPoints int
	geometryKm     float64
	err            error
}

func (j *WarmupJob) warmupWorker(ctx context.Context, tasks <-chan WarmupTask, results chan<- taskResult) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmTask(ctx, task)
		}
	}
}

// warmTask resolves one corridor leg through the routing service,
// which populates the shared cache as a side effect.
func (j *WarmupJob) warmTask(ctx context.Context, task WarmupTask) taskResult {
	result := taskResult{task: task}

	if j.routes == nil {
		result.skipped = true
		return result
	}

	taskCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	leg, err := j.routes.GetLeg(taskCtx, routing.LegRequest{
		Origin:      routing.Coordinate{Lat: task.Corridor.Origin.Lat, Lon: task.Corridor.Origin.Lon},
		Destination: routing.Coordinate{Lat: task.Corridor.Destination.Lat, Lon: task.Corridor.Destination.Lon},
		Profile:     routing.RouteProfile(task.Profile),
	})
	if err != nil {
		if errors.Is(err, routing.ErrProviderDisabled) {
			result.skipped = true
			return result
		}
		result.err = err
		return result
	}

	if leg.GeometryPolyline != "" {
		points := polyline.Decode(leg.GeometryPolyline)
		result.geometryPoints = len(points)
		result.geometryKm = polyline.LengthKm(points)
	}

	return result
}

func (j *WarmupJob) updateMetrics(result *WarmupResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulLegs += int64(result.Successful)
	j.metrics.FailedLegs += int64(result.Failed)
	j.metrics.SkippedLegs += int64(result.Skipped)
	j.metrics.GeometryPoints += int64(result.GeometryPoints)
	j.metrics.GeometryKm += result.GeometryKm
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmupJob) GetMetrics() WarmupMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmupMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulLegs:  j.metrics.SuccessfulLegs,
		FailedLegs:      j.metrics.FailedLegs,
		SkippedLegs:     j.metrics.SkippedLegs,
		GeometryPoints:  j.metrics.GeometryPoints,
		GeometryKm:      j.metrics.GeometryKm,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *WarmupJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	snapshot := map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_legs":   m.SuccessfulLegs,
		"failed_legs":       m.FailedLegs,
		"skipped_legs":      m.SkippedLegs,
		"geometry_points":   m.GeometryPoints,
		"geometry_km":       m.GeometryKm,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}

	if j.routes != nil {
		stats := j.routes.CacheStats()
		snapshot["cache_entries"] = stats.TotalEntries
		snapshot["cache_hits"] = stats.Hits
		snapshot["cache_misses"] = stats.Misses
	}

	return snapshot
}
