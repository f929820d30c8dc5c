package models

// EmissionEstimate is the wire form of a computed emission estimate.
type EmissionEstimate struct {
	Mode          string  `json:"mode"`
	DistanceKm    float64 `json:"distance_km"`
	Passengers    int     `json:"passengers"`
	FactorKgPerKm float64 `json:"factor_kg_per_km"`
	KgCO2e        float64 `json:"kg_co2e"`
}

// EstimateRequest is the body for POST /v1/emissions/estimate.
type EstimateRequest struct {
	DistanceKm float64 `json:"distance_km"`
	Mode       string  `json:"mode"`
	Passengers int     `json:"passengers"`
}

// CompareRequest is the body for POST /v1/emissions/compare.
type CompareRequest struct {
	DistanceKm float64 `json:"distance_km"`
	Passengers int     `json:"passengers"`
}

// CompareResponse contains every travel mode ranked by emissions, lowest first.
type CompareResponse struct {
	Options []EmissionEstimate `json:"options"`
}
