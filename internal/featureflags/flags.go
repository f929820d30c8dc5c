// Package featureflags provides runtime feature flag management.
package featureflags

import "time"

// Well-known feature flag keys.
const (
	// FlagAllowClear gates the destructive admin clear endpoints.
	FlagAllowClear = "allow_clear"

	// FlagDisableRouting forces route comparisons to use estimated
	// distances without calling the routing provider.
	FlagDisableRouting = "disable_routing"
)

// Flag represents a boolean feature flag.
type Flag struct {
	Key         string
	Enabled     bool
	Description string
	UpdatedAt   time.Time
}

func (f *Flag) clone() *Flag {
	cpy := *f
	return &cpy
}

// DefaultFlags returns the compiled-in flag defaults. The allow_clear
// default comes from the ALLOW_CLEAR environment variable read in main.
func DefaultFlags(allowClear bool) map[string]*Flag {
	now := time.Now()
	return map[string]*Flag{
		FlagAllowClear: {
			Key:         FlagAllowClear,
			Enabled:     allowClear,
			Description: "Permit the admin clear endpoints to delete all records",
			UpdatedAt:   now,
		},
		FlagDisableRouting: {
			Key:         FlagDisableRouting,
			Enabled:     false,
			Description: "Skip the routing provider and estimate all route distances",
			UpdatedAt:   now,
		},
	}
}
