// Package commute provides recording and retrieval of commute trips.
package commute

import (
	"errors"
	"time"

	"github.com/cleancommute/cleancommute/internal/emissions"
)

// Repository errors.
var (
	ErrCommuteNotFound = errors.New("commute not found")
)

// Commute represents a recorded commute trip with its emission estimate
// snapshotted at write time.
type Commute struct {
	ID            string
	DistanceKm    float64
	Mode          emissions.Mode
	Passengers    int
	Origin        *string
	Destination   *string
	Notes         *string
	FactorKgPerKm float64
	KgCO2e        float64
	CreatedAt     time.Time
}
