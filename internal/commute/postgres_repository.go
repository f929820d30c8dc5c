package commute

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

// NewPostgresRepository creates a new PostgreSQL commute repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const commuteColumns = `
	id, distance_km, mode, passengers,
	origin_label, destination_label, notes,
	factor_kg_per_km, kg_co2e, created_at
`

// Get retrieves a commute by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Commute, error) {
	query := `SELECT ` + commuteColumns + ` FROM commutes WHERE id = $1`

	var c Commute
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.DistanceKm,
		&c.Mode,
		&c.Passengers,
		&c.Origin,
		&c.Destination,
		&c.Notes,
		&c.FactorKgPerKm,
		&c.KgCO2e,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommuteNotFound
		}
		return nil, err
	}

	return &c, nil
}

// List retrieves commutes newest first with cursor pagination.
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
			SELECT ` + commuteColumns + `
			FROM commutes
			WHERE (created_at, id) < (SELECT created_at, id FROM commutes WHERE id = $1)
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		rows, err = r.pool.Query(ctx, query, opts.Cursor, fetchLimit)
	} else {
		query := `
			SELECT ` + commuteColumns + `
			FROM commutes
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		rows, err = r.pool.Query(ctx, query, fetchLimit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commutes []*Commute
	for rows.Next() {
		var c Commute
		err := rows.Scan(
			&c.ID,
			&c.DistanceKm,
			&c.Mode,
			&c.Passengers,
			&c.Origin,
			&c.Destination,
			&c.Notes,
			&c.FactorKgPerKm,
			&c.KgCO2e,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		commutes = append(commutes, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: commutes,
	}

	// If we got more results than the limit, there are more pages
	if len(commutes) > limit {
		result.Items = commutes[:limit]
		result.NextCursor = commutes[limit-1].ID
	}

	return result, nil
}

// Create creates a new commute.
func (r *PostgresRepository) Create(ctx context.Context, c *Commute) error {
	query := `
		INSERT INTO commutes (
			id, distance_km, mode, passengers,
			origin_label, destination_label, notes,
			factor_kg_per_km, kg_co2e, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.DistanceKm,
		c.Mode,
		c.Passengers,
		c.Origin,
		c.Destination,
		c.Notes,
		c.FactorKgPerKm,
		c.KgCO2e,
		c.CreatedAt,
	)
	return err
}

// Delete deletes a commute by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM commutes WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrCommuteNotFound
	}

	return nil
}

// DeleteAll removes every commute and returns the number deleted.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM commutes`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
