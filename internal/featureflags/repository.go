package featureflags

import (
	"context"
	"errors"
)

// ErrFlagNotFound is returned when no flag exists under a key.
var ErrFlagNotFound = errors.New("feature flag not found")

// Repository stores feature flags.
type Repository interface {
	// GetFlag returns the flag stored under key, or ErrFlagNotFound.
	GetFlag(ctx context.Context, key string) (*Flag, error)

	// GetAllFlags returns every stored flag keyed by flag key.
	GetAllFlags(ctx context.Context) (map[string]*Flag, error)

	// SetFlag creates or replaces a flag.
	SetFlag(ctx context.Context, flag *Flag) error

	// SeedFlags inserts flags that do not exist yet, leaving stored
	// values untouched. Boot uses it to make the compiled-in defaults
	// editable without overriding operator changes.
	SeedFlags(ctx context.Context, flags []*Flag) error

	// DeleteFlag removes a flag. Deleting an absent key is not an error.
	DeleteFlag(ctx context.Context, key string) error
}
