package sample

import "context"

// ListOptions controls pagination for List.
type ListOptions struct {
	// Limit is the maximum number of samples to return.
	Limit int
	// Cursor is the ID of the last sample from the previous page.
	Cursor string
}

// ListResult holds one page of samples.
type ListResult struct {
	Items      []*Sample
	NextCursor string
}

// Repository defines the interface for sample storage.
type Repository interface {
	// Get retrieves a sample by ID.
	// Returns ErrSampleNotFound if the sample doesn't exist.
	Get(ctx context.Context, id string) (*Sample, error)

	// List retrieves samples newest first with cursor pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create creates a new sample.
	Create(ctx context.Context, s *Sample) error

	// DeleteAll removes every sample and returns the number deleted.
	DeleteAll(ctx context.Context) (int64, error)
}
