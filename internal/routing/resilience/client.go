package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the provider's circuit breaker rejects
// the request without sending it.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ServerError marks a 5xx provider response so the breaker and retry
// policy treat it as a failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client in the registry and breaker.
	Name string

	// Timeout applies to each individual HTTP attempt.
	Timeout time.Duration

	// MaxRetries bounds retry attempts after the first request.
	MaxRetries uint64

	// InitialInterval and MaxInterval shape the exponential backoff
	// between attempts.
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// CircuitBreaker overrides DefaultCircuitBreakerConfig when set.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives this client for health tracking (optional).
	// When set, the client registers itself under Name and records
	// request outcomes.
	Registry *Registry
}

func (cfg ClientConfig) withDefaults() ClientConfig {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.CircuitBreaker == nil {
		cb := DefaultCircuitBreakerConfig(cfg.Name)
		cfg.CircuitBreaker = &cb
	}
	return cfg
}

// DefaultClientConfig returns the client settings used for routing
// providers: 10s per attempt, 3 retries, backoff from 100ms to 5s.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{Name: name}.withDefaults()
}

// Client is an HTTP client that wraps every request in a circuit breaker
// and retries transient failures with exponential backoff.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	registry   *Registry
	config     ClientConfig
}

// NewClient creates a resilient HTTP client and, when a registry is
// configured, registers it for health tracking.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.withDefaults()

	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    NewCircuitBreaker[*http.Response](*cfg.CircuitBreaker), //nolint:bodyclose // type param, not a response
		registry:   cfg.Registry,
		config:     cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, client)
	}

	return client
}

// Name returns the client identifier.
func (c *Client) Name() string {
	return c.config.Name
}

// Do executes the request with circuit breaker protection. Transient
// failures (network errors, 5xx) are retried with exponential backoff;
// an open breaker fails fast with ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext is Do with an explicit context governing the retry loop.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.InitialInterval
	policy.MaxInterval = c.config.MaxInterval
	policy.MaxElapsedTime = 0 // retries are bounded by MaxRetries, not wall time

	var lastResp *http.Response

	err := backoff.Retry(func() error {
		resp, err := c.attempt(ctx, req)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			// Keep the 5xx response around in case retries run out.
			if resp != nil {
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, c.config.MaxRetries), ctx))

	if err != nil {
		c.recordFailure(err)
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	c.recordSuccess()
	return lastResp, nil
}

// attempt sends the request once through the circuit breaker. A 5xx
// status is returned as an error so it counts against the breaker, with
// the response preserved for the caller.
func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
		// Clone per attempt; the original request cannot be resent.
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, &ServerError{StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
}

// CircuitBreakerState reports the breaker's current state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

// CircuitBreakerCounts reports the breaker's request counters.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(c.config.Name)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(c.config.Name, err)
	}
}
