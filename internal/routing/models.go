// Package routing resolves real-world route legs for travel mode
// comparisons, wrapping an external directions provider with caching
// and a distance-estimation fallback.
package routing

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrProviderDisabled indicates routing is switched off by configuration or feature flag.
	ErrProviderDisabled = errors.New("routing provider disabled")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetLeg retrieves a single route leg between two points.
	GetLeg(ctx context.Context, req LegRequest) (*LegResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the list of route profiles this provider supports.
	SupportedProfiles() []RouteProfile
}

// RouteProfile represents a routing profile (mode of transport).
type RouteProfile string

const (
	// ProfileDrive is the driving-car profile for road vehicle routing.
	ProfileDrive RouteProfile = "driving-car"
	// ProfileBike is the cycling-regular profile for bike routing.
	ProfileBike RouteProfile = "cycling-regular"
	// ProfileWalk is the foot-walking profile for pedestrian routing.
	ProfileWalk RouteProfile = "foot-walking"
)

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// LegRequest is the request for resolving a single route leg.
type LegRequest struct {
	Origin      Coordinate
	Destination Coordinate
	Profile     RouteProfile
}

// LegResponse describes the best route leg the provider found.
type LegResponse struct {
	DistanceMeters   int    // Total distance in meters
	DurationSeconds  int    // Total duration in seconds
	GeometryPolyline string // Encoded polyline (precision 5), empty when the provider omits geometry
	Provider         string
	FetchedAt        time.Time
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
