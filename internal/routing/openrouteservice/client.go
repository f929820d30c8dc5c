// Package openrouteservice provides a client for the OpenRouteService
// directions API.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/internal/routing/resilience"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the public ORS API endpoint.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout bounds a single directions request.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer executes HTTP requests. Satisfied by *http.Client and by the
// resilience client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a self-hosted ORS.
	BaseURL string

	// HTTPClient overrides the transport. When nil a resilient client
	// with circuit breaking and retries is used.
	HTTPClient HTTPDoer

	// Timeout bounds each request attempt. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Registry receives health reports when the default transport is in
	// use.
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client calls the ORS directions API and maps its responses onto the
// routing domain model.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates an OpenRouteService client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles lists the ORS profiles this service uses.
func (c *Client) SupportedProfiles() []routing.RouteProfile {
	return []routing.RouteProfile{
		routing.ProfileDrive,
		routing.ProfileBike,
		routing.ProfileWalk,
	}
}

// GetLeg retrieves the recommended route leg between two points.
func (c *Client) GetLeg(ctx context.Context, req routing.LegRequest) (*routing.LegResponse, error) {
	if err := validateCoordinates(req.Origin); err != nil {
		return nil, providerErr("INVALID_ORIGIN", "invalid origin coordinates", routing.ErrInvalidCoordinates)
	}
	if err := validateCoordinates(req.Destination); err != nil {
		return nil, providerErr("INVALID_DESTINATION", "invalid destination coordinates", routing.ErrInvalidCoordinates)
	}

	httpReq, err := c.newDirectionsRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting route leg from ORS")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, providerErr("REQUEST_FAILED", "failed to reach routing provider", routing.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp.StatusCode, body)
	}

	var orsResp orsResponse
	if err := json.Unmarshal(body, &orsResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	leg, err := toLeg(&orsResp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("distance_meters", leg.DistanceMeters).
		Int("duration_seconds", leg.DurationSeconds).
		Msg("received route leg from ORS")

	return leg, nil
}

// newDirectionsRequest builds the POST /v2/directions/{profile} request.
// ORS expects coordinates in GeoJSON [lon, lat] order.
func (c *Client) newDirectionsRequest(ctx context.Context, req routing.LegRequest) (*http.Request, error) {
	body, err := json.Marshal(orsRequest{
		Coordinates: [][]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Instructions: false,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, req.Profile)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json, application/geo+json")
	return httpReq, nil
}

// mapError translates ORS error responses into domain errors.
func mapError(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	if err := json.Unmarshal(body, &orsErr); err != nil {
		return providerErr(
			fmt.Sprintf("HTTP_%d", statusCode),
			fmt.Sprintf("routing provider returned status %d", statusCode),
			routing.ErrProviderUnavailable,
		)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return providerErr("RATE_LIMIT", "API rate limit exceeded, please try again later", routing.ErrRateLimitExceeded)
	case statusCode == http.StatusForbidden:
		return providerErr("FORBIDDEN", "API access denied - check API key configuration", routing.ErrProviderUnavailable)
	case statusCode == http.StatusNotFound:
		return providerErr("NO_ROUTE", "no route found between the given points", routing.ErrNoRouteFound)
	case statusCode == http.StatusBadRequest && orsErr.Error.Code == orsErrorCodeNotFound:
		return providerErr("NO_ROUTE", orsErr.Error.Message, routing.ErrNoRouteFound)
	case statusCode == http.StatusBadRequest:
		return providerErr("BAD_REQUEST", orsErr.Error.Message, routing.ErrInvalidCoordinates)
	case statusCode >= 500:
		return providerErr(fmt.Sprintf("SERVER_%d", statusCode), "routing provider is temporarily unavailable", routing.ErrProviderUnavailable)
	default:
		return providerErr(fmt.Sprintf("HTTP_%d", statusCode), orsErr.Error.Message, routing.ErrProviderUnavailable)
	}
}

// toLeg takes the first (recommended) route from an ORS response.
func toLeg(resp *orsResponse) (*routing.LegResponse, error) {
	if len(resp.Routes) == 0 {
		return nil, providerErr("NO_ROUTE", "no route found between the given points", routing.ErrNoRouteFound)
	}

	best := &resp.Routes[0]
	return &routing.LegResponse{
		DistanceMeters:   int(best.Summary.Distance),
		DurationSeconds:  int(best.Summary.Duration),
		GeometryPolyline: best.Geometry,
		Provider:         ProviderName,
		FetchedAt:        time.Now(),
	}, nil
}

// providerErr builds a routing.Error tagged with this provider's name.
func providerErr(code, message string, sentinel error) *routing.Error {
	return &routing.Error{
		Provider: ProviderName,
		Code:     code,
		Message:  message,
		Err:      sentinel,
	}
}

// validateCoordinates rejects out-of-range latitude or longitude.
func validateCoordinates(c routing.Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}
