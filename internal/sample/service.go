package sample

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleancommute/cleancommute/internal/api/models"
)

// Validation constants.
const (
	MaxNameLength   = 120
	MaxStatusLength = 40
)

// Pagination bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service provides sample operations.
type Service struct {
	repo Repository
}

// NewService creates a new sample service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves samples newest first with cursor pagination.
func (s *Service) List(ctx context.Context, limit int, cursor string) (*models.PagedSamples, error) {
	limit = clampLimit(limit)

	result, err := s.repo.List(ctx, ListOptions{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	items := make([]models.Sample, 0, len(result.Items))
	for _, sm := range result.Items {
		items = append(items, s.toAPISample(sm))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedSamples{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a sample by ID.
func (s *Service) Get(ctx context.Context, sampleID string) (*models.Sample, error) {
	sm, err := s.repo.Get(ctx, sampleID)
	if err != nil {
		if errors.Is(err, ErrSampleNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, err
	}

	result := s.toAPISample(sm)
	return &result, nil
}

// Create stores a new sample. A missing status defaults to "active".
func (s *Service) Create(ctx context.Context, input *models.SampleCreateRequest) (*models.Sample, error) {
	// Validate input
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	status := DefaultStatus
	if input.Status != nil {
		status = strings.TrimSpace(*input.Status)
	}

	sm := &Sample{
		ID:        "smp_" + uuid.New().String()[:22],
		Name:      strings.TrimSpace(input.Name),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, sm); err != nil {
		return nil, err
	}

	result := s.toAPISample(sm)
	return &result, nil
}

// Clear deletes every stored sample and reports how many were removed.
func (s *Service) Clear(ctx context.Context) (*models.ClearResult, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ClearResult{Deleted: deleted}, nil
}

// validateCreateInput validates the create sample input.
func (s *Service) validateCreateInput(input *models.SampleCreateRequest) []models.FieldError {
	var errs []models.FieldError

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
	}

	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			errs = append(errs, models.FieldError{Field: "status", Message: "cannot be empty"})
		} else if len(status) > MaxStatusLength {
			errs = append(errs, models.FieldError{Field: "status", Message: "must be at most 40 characters"})
		}
	}

	return errs
}

// toAPISample converts a domain Sample to an API Sample.
func (s *Service) toAPISample(sm *Sample) models.Sample {
	return models.Sample{
		ID:        sm.ID,
		Name:      sm.Name,
		Status:    sm.Status,
		CreatedAt: models.Timestamp(sm.CreatedAt),
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
