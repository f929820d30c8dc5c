package sample

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for tests and local development without Postgres.
type InMemoryRepository struct {
	mu      sync.RWMutex
	samples map[string]*Sample
}

// NewInMemoryRepository creates a new in-memory sample repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		samples: make(map[string]*Sample),
	}
}

// Get retrieves a sample by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.samples[id]
	if !ok {
		return nil, ErrSampleNotFound
	}

	cpy := *s
	return &cpy, nil
}

// List retrieves samples newest first with cursor pagination.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]*Sample, 0, len(r.samples))
	for _, s := range r.samples {
		cpy := *s
		ordered = append(ordered, &cpy)
	}

	// Same ordering as the Postgres repository: created_at DESC, id DESC.
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID > ordered[j].ID
	})

	if opts.Cursor != "" {
		start := -1
		for i, s := range ordered {
			if s.ID == opts.Cursor {
				start = i + 1
				break
			}
		}
		if start == -1 {
			// Cursor row no longer exists; serve an empty page.
			return &ListResult{}, nil
		}
		ordered = ordered[start:]
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}

	result := &ListResult{
		Items: ordered,
	}

	if len(ordered) > limit {
		result.Items = ordered[:limit]
		result.NextCursor = ordered[limit-1].ID
	}

	return result, nil
}

// Create creates a new sample.
func (r *InMemoryRepository) Create(_ context.Context, s *Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *s
	r.samples[s.ID] = &cpy
	return nil
}

// DeleteAll removes every sample and returns the number deleted.
func (r *InMemoryRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.samples))
	r.samples = make(map[string]*Sample)
	return n, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
