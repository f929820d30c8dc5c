// Package sample stores free-form sample records, the service's
// original smoke-test collection kept for connectivity checks and
// client demos.
package sample

import (
	"errors"
	"time"
)

// ErrSampleNotFound is returned when a sample does not exist.
var ErrSampleNotFound = errors.New("sample not found")

// DefaultStatus is applied when a create request omits status.
const DefaultStatus = "active"

// Sample represents a stored sample record.
type Sample struct {
	ID        string
	Name      string
	Status    string
	CreatedAt time.Time
}
