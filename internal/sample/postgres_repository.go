package sample

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL sample repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const sampleColumns = `id, name, status, created_at`

// Get retrieves a sample by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples WHERE id = $1`

	var s Sample
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Status,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSampleNotFound
		}
		return nil, err
	}

	return &s, nil
}

// List retrieves samples newest first with cursor pagination.
// The cursor is the ID of the last item from the previous page.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	var (
		rows pgx.Rows
		err  error
	)
	if opts.Cursor != "" {
		// Row-value comparison keeps the created_at DESC, id DESC order
		// stable across identical timestamps. A deleted cursor row yields
		// an empty page rather than an error.
		query := `
			SELECT ` + sampleColumns + `
			FROM samples
			WHERE (created_at, id) < (SELECT created_at, id FROM samples WHERE id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		rows, err = r.pool.Query(ctx, query, opts.Cursor, fetchLimit)
	} else {
		query := `
			SELECT ` + sampleColumns + `
			FROM samples
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		rows, err = r.pool.Query(ctx, query, fetchLimit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		var s Sample
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Status,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		samples = append(samples, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: samples,
	}

	// If we got more results than the limit, there are more pages
	if len(samples) > limit {
		result.Items = samples[:limit]
		result.NextCursor = samples[limit-1].ID
	}

	return result, nil
}

// Create creates a new sample.
func (r *PostgresRepository) Create(ctx context.Context, s *Sample) error {
	query := `
		INSERT INTO samples (id, name, status, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Status,
		s.CreatedAt,
	)
	return err
}

// DeleteAll removes every sample and returns the number deleted.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM samples`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
