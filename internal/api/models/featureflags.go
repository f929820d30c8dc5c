package models

// FeatureFlag is the wire form of a runtime feature flag.
type FeatureFlag struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   Timestamp `json:"updated_at"`
}

// FeatureFlagList represents all known feature flags.
type FeatureFlagList struct {
	Items []FeatureFlag `json:"items"`
}

// FeatureFlagUpdateRequest is the body for PUT /v1/admin/feature-flags/{key}.
type FeatureFlagUpdateRequest struct {
	Enabled bool `json:"enabled"`
}
