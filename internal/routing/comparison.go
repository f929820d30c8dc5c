package routing

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/emissions"
)

// LegSource resolves route legs. Satisfied by *Service.
type LegSource interface {
	GetLeg(ctx context.Context, req LegRequest) (*LegResponse, error)
}

// FlagChecker reports whether provider routing is switched off.
// Satisfied by *featureflags.Service.
type FlagChecker interface {
	RoutingDisabled(ctx context.Context) bool
}

// ComparisonConfig holds configuration for the comparison service.
type ComparisonConfig struct {
	// Legs resolves provider route legs. May be nil when no provider
	// is configured; every option is then estimated.
	Legs LegSource

	// Flags gates provider routing at runtime. Optional.
	Flags FlagChecker

	// Logger for comparison operations.
	Logger zerolog.Logger
}

// Comparison ranks travel modes between two real coordinates. Provider
// legs are used where a road profile exists; everything else falls back
// to great-circle estimates. A provider failure never fails the
// comparison.
type Comparison struct {
	legs   LegSource
	flags  FlagChecker
	logger zerolog.Logger
}

// NewComparison creates a new route comparison service.
func NewComparison(cfg ComparisonConfig) *Comparison {
	return &Comparison{
		legs:   cfg.Legs,
		flags:  cfg.Flags,
		logger: cfg.Logger,
	}
}

// Compare resolves a leg per requested mode and ranks the plausible
// ones by emissions, lowest first.
func (c *Comparison) Compare(ctx context.Context, input *models.RouteCompareRequest) (*models.RouteCompareResponse, error) {
	if fieldErrors := c.validateCompareInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	origin := Coordinate{Lat: input.Origin.Lat, Lon: input.Origin.Lon}
	destination := Coordinate{Lat: input.Destination.Lat, Lon: input.Destination.Lon}

	useProvider := c.legs != nil
	if useProvider && c.flags != nil && c.flags.RoutingDisabled(ctx) {
		c.logger.Debug().Msg("provider routing disabled by feature flag, estimating all legs")
		useProvider = false
	}

	resp := &models.RouteCompareResponse{
		GeneratedAt: models.Timestamp(time.Now().UTC()),
		Options:     []models.RouteOption{},
	}

	for _, mode := range requestedModes(input.Modes) {
		option, skipped := c.resolveMode(ctx, origin, destination, mode, input.Passengers, useProvider)
		if skipped != nil {
			resp.Skipped = append(resp.Skipped, *skipped)
			continue
		}
		resp.Options = append(resp.Options, *option)
	}

	sort.SliceStable(resp.Options, func(i, j int) bool {
		return resp.Options[i].Estimate.KgCO2e < resp.Options[j].Estimate.KgCO2e
	})

	return resp, nil
}

// resolveMode produces either a ranked option or a skip entry for one mode.
func (c *Comparison) resolveMode(ctx context.Context, origin, destination Coordinate, mode emissions.Mode, passengers int, useProvider bool) (*models.RouteOption, *models.SkippedMode) {
	var (
		distanceKm      float64
		durationSeconds int
		source          = models.DistanceSourceEstimated
		geometry        *string
	)

	profile, routable := ProfileForMode(mode)
	if useProvider && routable {
		leg, err := c.legs.GetLeg(ctx, LegRequest{
			Origin:      origin,
			Destination: destination,
			Profile:     profile,
		})
		if err != nil {
			c.logger.Warn().Err(err).
				Str("mode", mode.String()).
				Str("profile", string(profile)).
				Msg("provider leg failed, falling back to estimated distance")
		} else {
			distanceKm = float64(leg.DistanceMeters) / 1000
			durationSeconds = leg.DurationSeconds
			source = models.DistanceSourceProvider
			if leg.GeometryPolyline != "" {
				g := leg.GeometryPolyline
				geometry = &g
			}
		}
	}

	if source == models.DistanceSourceEstimated {
		distanceKm, durationSeconds = EstimateLeg(origin, destination, mode)
	}

	distanceKm = math.Round(distanceKm*1000) / 1000

	if mode == emissions.ModeWalk && distanceKm > MaxWalkKm {
		return nil, &models.SkippedMode{
			Mode:   mode.String(),
			Reason: "distance exceeds walking range (50 km)",
		}
	}
	if mode == emissions.ModeBike && distanceKm > MaxBikeKm {
		return nil, &models.SkippedMode{
			Mode:   mode.String(),
			Reason: "distance exceeds cycling range (150 km)",
		}
	}

	est, err := emissions.Calculate(distanceKm, mode.String(), passengers)
	if err != nil {
		// Zero-length legs have no meaningful footprint to rank.
		return nil, &models.SkippedMode{
			Mode:   mode.String(),
			Reason: "no usable distance between the given points",
		}
	}

	return &models.RouteOption{
		Mode:            mode.String(),
		DistanceKm:      distanceKm,
		DurationSeconds: durationSeconds,
		DistanceSource:  source,
		Geometry:        geometry,
		Estimate: models.EmissionEstimate{
			Mode:          est.Mode.String(),
			DistanceKm:    est.DistanceKm,
			Passengers:    est.Passengers,
			FactorKgPerKm: est.FactorKgPerKm,
			KgCO2e:        est.KgCO2e,
		},
	}, nil
}

// requestedModes normalizes the requested mode list, deduplicating
// while preserving order. An empty request means every known mode.
func requestedModes(raw []string) []emissions.Mode {
	if len(raw) == 0 {
		return emissions.Modes()
	}

	seen := make(map[emissions.Mode]bool, len(raw))
	modes := make([]emissions.Mode, 0, len(raw))
	for _, entry := range raw {
		mode := emissions.NormalizeMode(entry)
		if seen[mode] {
			continue
		}
		seen[mode] = true
		modes = append(modes, mode)
	}
	return modes
}

// validateCompareInput validates the route comparison input.
func (c *Comparison) validateCompareInput(input *models.RouteCompareRequest) []models.FieldError {
	var errs []models.FieldError

	errs = append(errs, validatePoint(input.Origin, "origin")...)
	errs = append(errs, validatePoint(input.Destination, "destination")...)

	if len(errs) == 0 && input.Origin == input.Destination {
		errs = append(errs, models.FieldError{
			Field:   "destination",
			Message: "must differ from origin",
		})
	}

	return errs
}

// validatePoint validates a request coordinate.
func validatePoint(p models.Point, prefix string) []models.FieldError {
	var errs []models.FieldError

	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, models.FieldError{
			Field:   prefix + ".lat",
			Message: "must be between -90 and 90",
		})
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, models.FieldError{
			Field:   prefix + ".lon",
			Message: "must be between -180 and 180",
		})
	}

	return errs
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
