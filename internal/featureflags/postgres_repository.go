package featureflags

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores flags in the feature_flags table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL feature flags repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetFlag returns the flag stored under key, or ErrFlagNotFound.
func (r *PostgresRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	const query = `
		SELECT key, enabled, description, updated_at
		FROM feature_flags
		WHERE key = $1
	`

	var flag Flag
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&flag.Key,
		&flag.Enabled,
		&flag.Description,
		&flag.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// GetAllFlags returns every stored flag keyed by flag key.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	const query = `
		SELECT key, enabled, description, updated_at
		FROM feature_flags
		ORDER BY key
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make(map[string]*Flag)
	for rows.Next() {
		var flag Flag
		if err := rows.Scan(&flag.Key, &flag.Enabled, &flag.Description, &flag.UpdatedAt); err != nil {
			return nil, err
		}
		flags[flag.Key] = &flag
	}
	return flags, rows.Err()
}

// SetFlag creates or replaces a flag.
func (r *PostgresRepository) SetFlag(ctx context.Context, flag *Flag) error {
	const query = `
		INSERT INTO feature_flags (key, enabled, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, flag.Key, flag.Enabled, flag.Description, time.Now())
	return err
}

// SeedFlags batch-inserts flags, leaving existing rows untouched.
func (r *PostgresRepository) SeedFlags(ctx context.Context, flags []*Flag) error {
	if len(flags) == 0 {
		return nil
	}

	const query = `
		INSERT INTO feature_flags (key, enabled, description, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, flag := range flags {
		batch.Queue(query, flag.Key, flag.Enabled, flag.Description, time.Now())
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range flags {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFlag removes a flag.
func (r *PostgresRepository) DeleteFlag(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM feature_flags WHERE key = $1`, key)
	return err
}

var _ Repository = (*PostgresRepository)(nil)
