package commute

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for tests and local development without Postgres.
type InMemoryRepository struct {
	mu       sync.RWMutex
	commutes map[string]*Commute
}

// NewInMemoryRepository creates a new in-memory commute repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		commutes: make(map[string]*Commute),
	}
}

// Get retrieves a commute by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Commute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.commutes[id]
	if !ok {
		return nil, ErrCommuteNotFound
	}

	cpy := *c
	return &cpy, nil
}

// List retrieves commutes newest first with cursor pagination.
func (r *InMemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]*Commute, 0, len(r.commutes))
	for _, c := range r.commutes {
		cpy := *c
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
		for i, c := range ordered {
			if c.ID == opts.Cursor {
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

// Create creates a new commute.
func (r *InMemoryRepository) Create(_ context.Context, c *Commute) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *c
	r.commutes[c.ID] = &cpy
	return nil
}

// Delete deletes a commute by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commutes[id]; !ok {
		return ErrCommuteNotFound
	}

	delete(r.commutes, id)
	return nil
}

// DeleteAll removes every commute and returns the number deleted.
func (r *InMemoryRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.commutes))
	r.commutes = make(map[string]*Commute)
	return n, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
