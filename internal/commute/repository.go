package commute

import "context"

// ListOptions contains options for listing commutes.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing commutes.
type ListResult struct {
	Items      []*Commute
	NextCursor string
}

// Repository defines the interface for commute data persistence.
type Repository interface {
	// Get retrieves a commute by ID.
	// Returns ErrCommuteNotFound if the commute doesn't exist.
	Get(ctx context.Context, id string) (*Commute, error)

	// List retrieves commutes newest first with cursor pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create creates a new commute.
	Create(ctx context.Context, commute *Commute) error

	// Delete deletes a commute by ID.
	// Returns ErrCommuteNotFound if the commute doesn't exist.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every commute and returns the number deleted.
	DeleteAll(ctx context.Context) (int64, error)
}
