// Package emissions estimates commute CO2-equivalent emissions per travel mode.
//
// The factor table is a process-wide read-only mapping; estimates are pure
// computations with no I/O and are safe for concurrent use.
package emissions

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// ErrInvalidDistance indicates a distance that is NaN, zero, or negative.
var ErrInvalidDistance = errors.New("distance must be a positive number of kilometers")

// Mode identifies a travel mode with a known emission factor.
type Mode string

// Canonical travel modes, in factor-table order.
const (
	ModeCar       Mode = "car"
	ModeCarGas    Mode = "car_gas"
	ModeCarHybrid Mode = "car_hybrid"
	ModeRideshare Mode = "rideshare"
	ModeBus       Mode = "bus"
	ModeTrain     Mode = "train"
	ModeSubway    Mode = "subway"
	ModeBike      Mode = "bike"
	ModeWalk      Mode = "walk"
)

// canonicalOrder lists every mode in factor-table order. Ranking ties in
// CompareModes resolve to this ordering.
var canonicalOrder = [...]Mode{
	ModeCar,
	ModeCarGas,
	ModeCarHybrid,
	ModeRideshare,
	ModeBus,
	ModeTrain,
	ModeSubway,
	ModeBike,
	ModeWalk,
}

// factorInfo describes the emission profile of a single mode.
type factorInfo struct {
	kgPerKm    float64
	perVehicle bool // emissions are per vehicle and shared across passengers
}

// factorTable maps each mode to its factor in kg CO2e per km. Per-vehicle
// modes emit per vehicle-km; fixed-route modes emit per passenger-km and
// ignore occupancy.
var factorTable = map[Mode]factorInfo{
	ModeCar:       {kgPerKm: 0.192, perVehicle: true},
	ModeCarGas:    {kgPerKm: 0.192, perVehicle: true},
	ModeCarHybrid: {kgPerKm: 0.120, perVehicle: true},
	ModeRideshare: {kgPerKm: 0.212, perVehicle: true},
	ModeBus:       {kgPerKm: 0.082},
	ModeTrain:     {kgPerKm: 0.041},
	ModeSubway:    {kgPerKm: 0.045},
	ModeBike:      {kgPerKm: 0},
	ModeWalk:      {kgPerKm: 0},
}

// String returns the wire representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// FactorKgPerKm returns the emission factor for the mode in kg CO2e per km.
func (m Mode) FactorKgPerKm() float64 {
	return factorTable[m].kgPerKm
}

// PerVehicle reports whether the mode's emissions are per vehicle, meaning
// they are divided across the passengers sharing it.
func (m Mode) PerVehicle() bool {
	return factorTable[m].perVehicle
}

// Modes returns all modes in canonical factor-table order.
func Modes() []Mode {
	out := make([]Mode, len(canonicalOrder))
	copy(out, canonicalOrder[:])
	return out
}

// NormalizeMode maps free-form input to a canonical Mode. Matching is
// case-insensitive after trimming surrounding whitespace. Empty and
// unrecognized inputs fall back to ModeCar; normalization never fails.
func NormalizeMode(input string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(input))) {
	case ModeCar:
		return ModeCar
	case ModeCarGas:
		return ModeCarGas
	case ModeCarHybrid:
		return ModeCarHybrid
	case ModeRideshare:
		return ModeRideshare
	case ModeBus:
		return ModeBus
	case ModeTrain:
		return ModeTrain
	case ModeSubway:
		return ModeSubway
	case ModeBike:
		return ModeBike
	case ModeWalk:
		return ModeWalk
	default:
		return ModeCar
	}
}

// Estimate is the result of an emission calculation.
type Estimate struct {
	// Mode is the normalized mode the estimate was computed for.
	Mode Mode
	// DistanceKm is the distance the estimate covers.
	DistanceKm float64
	// Passengers is the effective divisor applied to per-vehicle modes.
	// Fixed-route modes always report 1.
	Passengers int
	// FactorKgPerKm is the emission factor used.
	FactorKgPerKm float64
	// KgCO2e is the estimated emissions, rounded to 4 decimal places.
	KgCO2e float64
}

// Calculate computes the emission estimate for a single trip.
//
// The mode string is normalized per NormalizeMode. Distances that are NaN,
// zero, or negative return ErrInvalidDistance. Passenger counts below 1 are
// clamped to 1; only per-vehicle modes divide by the passenger count.
func Calculate(distanceKm float64, mode string, passengers int) (Estimate, error) {
	normalized := NormalizeMode(mode)

	if math.IsNaN(distanceKm) || distanceKm <= 0 {
		return Estimate{}, ErrInvalidDistance
	}

	if passengers < 1 {
		passengers = 1
	}

	info := factorTable[normalized]
	effective := 1
	if info.perVehicle {
		effective = passengers
	}

	kg := round4(distanceKm * info.kgPerKm / float64(effective))

	return Estimate{
		Mode:          normalized,
		DistanceKm:    distanceKm,
		Passengers:    effective,
		FactorKgPerKm: info.kgPerKm,
		KgCO2e:        kg,
	}, nil
}

// CompareModes estimates the same trip across every mode and returns the
// options ranked ascending by KgCO2e. The sort is stable, so zero-emission
// ties keep factor-table order (bike before walk). Per-vehicle modes divide
// by the clamped passenger count; fixed-route modes ignore it.
func CompareModes(distanceKm float64, passengers int) ([]Estimate, error) {
	if math.IsNaN(distanceKm) || distanceKm <= 0 {
		return nil, ErrInvalidDistance
	}

	options := make([]Estimate, 0, len(canonicalOrder))
	for _, m := range canonicalOrder {
		est, err := Calculate(distanceKm, string(m), passengers)
		if err != nil {
			return nil, err
		}
		options = append(options, est)
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].KgCO2e < options[j].KgCO2e
	})

	return options, nil
}

// round4 rounds half away from zero to 4 decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
