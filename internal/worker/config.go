// Package worker provides background job processing for CleanCommute.
package worker

import (
	"time"
)

// Corridor represents a commuter origin/destination pair whose route
// legs the warmup job keeps resolved in the routing cache.
type Corridor struct {
	// Name is the human-readable name of the corridor.
	Name string

	// Origin and Destination are the corridor endpoints.
	Origin      Point
	Destination Point

	// Priority determines warmup order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// WarmupTask is a single leg fetch: one corridor resolved under one
// routing profile.
type WarmupTask struct {
	Corridor Corridor
	Profile  string
}

// WarmupConfig holds configuration for the route cache warmup job.
type WarmupConfig struct {
	// Corridors are the origin/destination pairs to warm.
	// If empty, uses DefaultCorridors.
	Corridors []Corridor

	// Profiles are the routing profiles resolved per corridor.
	// If empty, uses DefaultProfiles.
	Profiles []string

	// Concurrency is the number of concurrent leg fetches.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each leg fetch.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultWarmupConfig returns the default warmup configuration.
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Corridors:   DefaultCorridors(),
		Profiles:    DefaultProfiles(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// DefaultProfiles returns the routing profiles warmed for every
// corridor: one per provider profile the comparison endpoint uses.
func DefaultProfiles() []string {
	return []string{"driving-car", "cycling-regular", "foot-walking"}
}

// DefaultCorridors returns the default warmup corridors for the
// Netherlands. Focuses on the Randstad metropolitan area and the
// busiest commuter connections.
func DefaultCorridors() []Corridor {
	return []Corridor{
		{
			Name:        "Amsterdam - Utrecht",
			Priority:    1,
			Origin:      Point{Lat: 52.3676, Lon: 4.9041}, // Amsterdam Centraal
			Destination: Point{Lat: 52.0907, Lon: 5.1214}, // Utrecht Centraal
		},
		{
			Name:        "Schiphol - Amsterdam",
			Priority:    1,
			Origin:      Point{Lat: 52.3105, Lon: 4.7683}, // Schiphol Airport
			Destination: Point{Lat: 52.3676, Lon: 4.9041}, // Amsterdam Centraal
		},
		{
			Name:        "Den Haag - Rotterdam",
			Priority:    1,
			Origin:      Point{Lat: 52.0705, Lon: 4.3007}, // Den Haag Centraal
			Destination: Point{Lat: 51.9244, Lon: 4.4777}, // Rotterdam Centraal
		},
		{
			Name:        "Amsterdam - Haarlem",
			Priority:    2,
			Origin:      Point{Lat: 52.3676, Lon: 4.9041}, // Amsterdam Centraal
			Destination: Point{Lat: 52.3874, Lon: 4.6462}, // Haarlem
		},
		{
			Name:        "Utrecht - Amersfoort",
			Priority:    2,
			Origin:      Point{Lat: 52.0894, Lon: 5.1102}, // Utrecht Centraal
			Destination: Point{Lat: 52.1530, Lon: 5.3711}, // Amersfoort Centraal
		},
		{
			Name:        "Leiden - Den Haag",
			Priority:    3,
			Origin:      Point{Lat: 52.1664, Lon: 4.4819}, // Leiden Centraal
			Destination: Point{Lat: 52.0705, Lon: 4.3007}, // Den Haag Centraal
		},
		{
			Name:        "Delft - Rotterdam",
			Priority:    3,
			Origin:      Point{Lat: 52.0116, Lon: 4.3571}, // Delft
			Destination: Point{Lat: 51.9244, Lon: 4.4777}, // Rotterdam Centraal
		},
		{
			Name:        "Eindhoven - High Tech Campus",
			Priority:    3,
			Origin:      Point{Lat: 51.4416, Lon: 5.4697}, // Eindhoven Centraal
			Destination: Point{Lat: 51.4548, Lon: 5.4553}, // High Tech Campus
		},
	}
}

// AllTasks expands every corridor/profile combination, keeping the
// corridor order of the configuration.
func (c WarmupConfig) AllTasks() []WarmupTask {
	tasks := make([]WarmupTask, 0, c.TotalTasks())
	for _, corridor := range c.Corridors {
		for _, profile := range c.Profiles {
			tasks = append(tasks, WarmupTask{Corridor: corridor, Profile: profile})
		}
	}
	return tasks
}

// TotalTasks returns the total number of leg fetches per run.
func (c WarmupConfig) TotalTasks() int {
	return len(c.Corridors) * len(c.Profiles)
}
