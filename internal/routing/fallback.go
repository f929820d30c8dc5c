package routing

import (
	"math"

	"github.com/cleancommute/cleancommute/internal/emissions"
)

// Detour factors approximate how much longer real-world legs run than
// the great-circle line between two points.
const (
	detourRoad = 1.3
	detourBike = 1.25
	detourFoot = 1.2
	detourRail = 1.15
)

// Average door-to-door speeds in km/h used for estimated durations.
const (
	speedRoadKmh   = 40.0
	speedBusKmh    = 25.0
	speedTrainKmh  = 65.0
	speedSubwayKmh = 32.0
	speedBikeKmh   = 16.0
	speedWalkKmh   = 5.0
)

// Realism thresholds: legs longer than these are not plausible for the
// mode and are excluded from comparisons.
const (
	MaxWalkKm = 50.0
	MaxBikeKm = 150.0
)

// ProfileForMode maps a travel mode to its routing profile. Rail modes
// have no road-network profile and return false; their legs are always
// estimated.
func ProfileForMode(mode emissions.Mode) (RouteProfile, bool) {
	switch mode {
	case emissions.ModeCar, emissions.ModeCarGas, emissions.ModeCarHybrid,
		emissions.ModeRideshare, emissions.ModeBus:
		return ProfileDrive, true
	case emissions.ModeBike:
		return ProfileBike, true
	case emissions.ModeWalk:
		return ProfileWalk, true
	default:
		return "", false
	}
}

// EstimateLeg computes a fallback leg for a mode without provider data:
// great-circle distance scaled by the mode's detour factor, duration
// from the mode's average speed.
func EstimateLeg(origin, destination Coordinate, mode emissions.Mode) (distanceKm float64, durationSeconds int) {
	straightKm := HaversineKm(origin, destination)
	distanceKm = straightKm * detourFactor(mode)
	durationSeconds = int(math.Round(distanceKm / averageSpeedKmh(mode) * 3600))
	return distanceKm, durationSeconds
}

func detourFactor(mode emissions.Mode) float64 {
	switch mode {
	case emissions.ModeBike:
		return detourBike
	case emissions.ModeWalk:
		return detourFoot
	case emissions.ModeTrain, emissions.ModeSubway:
		return detourRail
	default:
		return detourRoad
	}
}

func averageSpeedKmh(mode emissions.Mode) float64 {
	switch mode {
	case emissions.ModeBus:
		return speedBusKmh
	case emissions.ModeTrain:
		return speedTrainKmh
	case emissions.ModeSubway:
		return speedSubwayKmh
	case emissions.ModeBike:
		return speedBikeKmh
	case emissions.ModeWalk:
		return speedWalkKmh
	default:
		return speedRoadKmh
	}
}

// HaversineKm calculates the great-circle distance between two points
// in kilometers using the Haversine formula.
func HaversineKm(a, b Coordinate) float64 {
	const earthRadius = 6371000 // meters

	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c / 1000
}
