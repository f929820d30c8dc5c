package models

// Commute is the wire form of a recorded commute.
type Commute struct {
	ID          string           `json:"id"`
	DistanceKm  float64          `json:"distance_km"`
	Mode        string           `json:"mode"`
	Passengers  int              `json:"passengers"`
	Origin      *string          `json:"origin,omitempty"`
	Destination *string          `json:"destination,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	Estimate    EmissionEstimate `json:"estimate"`
	CreatedAt   Timestamp        `json:"created_at"`
}

// CommuteCreateRequest is the body for POST /v1/commutes.
type CommuteCreateRequest struct {
	DistanceKm  float64 `json:"distance_km"`
	Mode        string  `json:"mode"`
	Passengers  int     `json:"passengers"`
	Origin      *string `json:"origin,omitempty"`
	Destination *string `json:"destination,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

// PagedCommutes represents a paginated list of commutes, newest first.
type PagedCommutes struct {
	Items []Commute         `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// ClearResult reports how many records a destructive clear removed.
type ClearResult struct {
	Deleted int64 `json:"deleted"`
}
