package models

// ModeInfo describes a single travel mode from the emission factor table.
type ModeInfo struct {
	Mode          string  `json:"mode"`
	FactorKgPerKm float64 `json:"factor_kg_per_km"`
	PerVehicle    bool    `json:"per_vehicle"`
}

// ModesResponse lists all travel modes in canonical table order.
type ModesResponse struct {
	Modes []ModeInfo `json:"modes"`
}
