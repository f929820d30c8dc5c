package commute

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/emissions"
)

// Validation constants.
const (
	MaxLabelLength = 120
	MaxNotesLength = 500
)

// Pagination bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service provides commute operations.
type Service struct {
	repo Repository
}

// NewService creates a new commute service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves commutes newest first with cursor pagination.
func (s *Service) List(ctx context.Context, limit int, cursor string) (*models.PagedCommutes, error) {
	limit = clampLimit(limit)

	result, err := s.repo.List(ctx, ListOptions{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	items := make([]models.Commute, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, s.toAPICommute(c))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedCommutes{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a commute by ID.
func (s *Service) Get(ctx context.Context, commuteID string) (*models.Commute, error) {
	commute, err := s.repo.Get(ctx, commuteID)
	if err != nil {
		if errors.Is(err, ErrCommuteNotFound) {
			return nil, ErrCommuteNotFound
		}
		return nil, err
	}

	result := s.toAPICommute(commute)
	return &result, nil
}

// Create records a new commute together with its emission estimate.
// The stored record keeps the normalized mode and the effective
// passenger divisor, not the raw request values.
func (s *Service) Create(ctx context.Context, input *models.CommuteCreateRequest) (*models.Commute, error) {
	// Validate input
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	est, err := emissions.Calculate(input.DistanceKm, input.Mode, input.Passengers)
	if err != nil {
		if errors.Is(err, emissions.ErrInvalidDistance) {
			return nil, &ValidationError{Errors: []models.FieldError{
				{Field: "distance_km", Message: "must be a positive number"},
			}}
		}
		return nil, err
	}

	commute := &Commute{
		ID:            "cmt_" + uuid.New().String()[:22],
		DistanceKm:    est.DistanceKm,
		Mode:          est.Mode,
		Passengers:    est.Passengers,
		Origin:        input.Origin,
		Destination:   input.Destination,
		Notes:         input.Notes,
		FactorKgPerKm: est.FactorKgPerKm,
		KgCO2e:        est.KgCO2e,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, commute); err != nil {
		return nil, err
	}

	result := s.toAPICommute(commute)
	return &result, nil
}

// Delete deletes a commute by ID.
func (s *Service) Delete(ctx context.Context, commuteID string) error {
	return s.repo.Delete(ctx, commuteID)
}

// Clear deletes every stored commute and reports how many were removed.
func (s *Service) Clear(ctx context.Context) (*models.ClearResult, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ClearResult{Deleted: deleted}, nil
}

// validateCreateInput validates the create commute input.
func (s *Service) validateCreateInput(input *models.CommuteCreateRequest) []models.FieldError {
	var errs []models.FieldError

	// Distance is the only hard numeric requirement; unknown modes and
	// out-of-range passenger counts are normalized rather than rejected.
	if math.IsNaN(input.DistanceKm) || math.IsInf(input.DistanceKm, 0) || input.DistanceKm <= 0 {
		errs = append(errs, models.FieldError{Field: "distance_km", Message: "must be a positive number"})
	}

	// Validate origin label (optional)
	if input.Origin != nil && len(*input.Origin) > MaxLabelLength {
		errs = append(errs, models.FieldError{Field: "origin", Message: "must be at most 120 characters"})
	}

	// Validate destination label (optional)
	if input.Destination != nil && len(*input.Destination) > MaxLabelLength {
		errs = append(errs, models.FieldError{Field: "destination", Message: "must be at most 120 characters"})
	}

	// Validate notes (optional)
	if input.Notes != nil && len(*input.Notes) > MaxNotesLength {
		errs = append(errs, models.FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}

	return errs
}

// toAPICommute converts a domain Commute to an API Commute.
func (s *Service) toAPICommute(c *Commute) models.Commute {
	return models.Commute{
		ID:          c.ID,
		DistanceKm:  c.DistanceKm,
		Mode:        c.Mode.String(),
		Passengers:  c.Passengers,
		Origin:      c.Origin,
		Destination: c.Destination,
		Notes:       c.Notes,
		Estimate: models.EmissionEstimate{
			Mode:          c.Mode.String(),
			DistanceKm:    c.DistanceKm,
			Passengers:    c.Passengers,
			FactorKgPerKm: c.FactorKgPerKm,
			KgCO2e:        c.KgCO2e,
		},
		CreatedAt: models.Timestamp(c.CreatedAt),
	}
}

// clampLimit applies the default page size and the [1, MaxPageSize] bound.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
