package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ProviderHealth is a point-in-time view of one provider's circuit state
// and recent request outcomes.
type ProviderHealth struct {
	Name         string
	CircuitState gobreaker.State
	Counts       gobreaker.Counts

	// LastSuccessAt and LastFailureAt are nil until the first
	// corresponding outcome is recorded.
	LastSuccessAt *time.Time
	LastFailureAt *time.Time

	// LastError holds the most recent failure message.
	LastError string
}

// IsHealthy reports whether the circuit is closed.
func (h *ProviderHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded reports whether the circuit is half-open and probing.
func (h *ProviderHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy reports whether the circuit is open.
func (h *ProviderHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// DefaultRegistry is the process-wide provider registry.
var DefaultRegistry = NewRegistry()

// Registry tracks provider clients and the outcome of their requests.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*providerRecord
}

type providerRecord struct {
	client        *Client
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*providerRecord)}
}

// Register adds a provider client under name, replacing any previous
// registration.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[name] = &providerRecord{client: client}
}

// Unregister removes the named provider.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, name)
}

// RecordSuccess stamps a successful request for the named provider.
// Unknown names are ignored.
func (r *Registry) RecordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[name]; ok {
		now := time.Now()
		rec.lastSuccessAt = &now
	}
}

// RecordFailure stamps a failed request and its error for the named
// provider. Unknown names are ignored.
func (r *Registry) RecordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[name]; ok {
		now := time.Now()
		rec.lastFailureAt = &now
		if err != nil {
			rec.lastError = err.Error()
		}
	}
}

// Health returns the named provider's health, or nil if it is not
// registered.
func (r *Registry) Health(name string) *ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[name]
	if !ok {
		return nil
	}
	return rec.health(name)
}

// Snapshot returns the health of every registered provider, ordered by
// name so status payloads are stable.
func (r *Registry) Snapshot() []*ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*ProviderHealth, 0, len(r.records))
	for name, rec := range r.records {
		health = append(health, rec.health(name))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })

	return health
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// health builds the snapshot for one record. Callers hold r.mu.
func (rec *providerRecord) health(name string) *ProviderHealth {
	return &ProviderHealth{
		Name:          name,
		CircuitState:  rec.client.CircuitBreakerState(),
		Counts:        rec.client.CircuitBreakerCounts(),
		LastSuccessAt: rec.lastSuccessAt,
		LastFailureAt: rec.lastFailureAt,
		LastError:     rec.lastError,
	}
}
