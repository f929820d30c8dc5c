package models

// RouteCompareRequest is the body for POST /v1/routes/compare.
type RouteCompareRequest struct {
	Origin      Point    `json:"origin"`
	Destination Point    `json:"destination"`
	Passengers  int      `json:"passengers"`
	Modes       []string `json:"modes,omitempty"`
}

// RouteCompareResponse ranks travel modes for a real origin/destination pair.
type RouteCompareResponse struct {
	GeneratedAt Timestamp     `json:"generated_at"`
	Options     []RouteOption `json:"options"`
	Skipped     []SkippedMode `json:"skipped,omitempty"`
}

// RouteOption is a single mode ranked within a route comparison.
type RouteOption struct {
	Mode            string           `json:"mode"`
	DistanceKm      float64          `json:"distance_km"`
	DurationSeconds int              `json:"duration_seconds"`
	DistanceSource  string           `json:"distance_source"`
	Geometry        *string          `json:"geometry,omitempty"`
	Estimate        EmissionEstimate `json:"estimate"`
}

// SkippedMode reports a mode excluded from a comparison and why.
type SkippedMode struct {
	Mode   string `json:"mode"`
	Reason string `json:"reason"`
}

// Distance sources for route comparison options.
const (
	DistanceSourceProvider  = "provider"
	DistanceSourceEstimated = "estimated"
)
