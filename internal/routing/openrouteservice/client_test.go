package openrouteservice

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/routing"
	"github.com/cleancommute/cleancommute/pkg/polyline"
)

// testLegRequest is the Amsterdam -> Utrecht drive used across tests.
var testLegRequest = routing.LegRequest{
	Origin:      routing.Coordinate{Lat: 52.3676, Lon: 4.9041},
	Destination: routing.Coordinate{Lat: 52.0907, Lon: 5.1214},
	Profile:     routing.ProfileDrive,
}

// newTestClient starts a server for the handler and points a client at
// it. The server is torn down with the test.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

// assertSentinel unwraps a routing.Error and checks its sentinel.
func assertSentinel(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var provErr *routing.Error
	if !errors.As(err, &provErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(provErr.Err, want) {
		t.Errorf("expected sentinel %v, got %v", want, provErr.Err)
	}
}

func TestClient_GetLeg_Success(t *testing.T) {
	fixture, err := os.ReadFile("testdata/directions_response.json")
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	var gotReq orsRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "mock123" {
			t.Errorf("expected Authorization 'mock123', got %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		if r.URL.Path != "/v2/directions/driving-car" {
			t.Errorf("expected the profile in the path, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(fixture)
	})

	resp, err := client.GetLeg(context.Background(), testLegRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ORS wants GeoJSON [lon, lat] pairs.
	if len(gotReq.Coordinates) != 2 {
		t.Fatalf("expected 2 coordinate pairs, got %d", len(gotReq.Coordinates))
	}
	if gotReq.Coordinates[0][0] != 4.9041 || gotReq.Coordinates[0][1] != 52.3676 {
		t.Errorf("expected origin sent as [4.9041 52.3676], got %v", gotReq.Coordinates[0])
	}

	if resp.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, resp.Provider)
	}
	if resp.DistanceMeters != 41923 || resp.DurationSeconds != 2456 {
		t.Errorf("expected 41923m / 2456s, got %dm / %ds", resp.DistanceMeters, resp.DurationSeconds)
	}
	if resp.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}

	points := polyline.Decode(resp.GeometryPolyline)
	if len(points) != 2 {
		t.Fatalf("expected 2 geometry points, got %d", len(points))
	}
	if math.Abs(points[0].Lat-52.3676) > 1e-6 || math.Abs(points[0].Lon-4.9041) > 1e-6 {
		t.Errorf("expected geometry to start at the origin, got %+v", points[0])
	}
	if math.Abs(points[1].Lat-52.0907) > 1e-6 || math.Abs(points[1].Lon-5.1214) > 1e-6 {
		t.Errorf("expected geometry to end at the destination, got %+v", points[1])
	}
}

func TestClient_GetLeg_ErrorMapping(t *testing.T) {
	noRouteBody, err := os.ReadFile("testdata/error_response.json")
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "no route between points",
			status: http.StatusBadRequest,
			body:   string(noRouteBody),
			want:   routing.ErrNoRouteFound,
		},
		{
			name:   "empty route list",
			status: http.StatusOK,
			body:   `{"routes":[]}`,
			want:   routing.ErrNoRouteFound,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":4003,"message":"Quota exceeded"}}`,
			want:   routing.ErrRateLimitExceeded,
		},
		{
			name:   "key rejected",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"Access to this API has been disallowed"}}`,
			want:   routing.ErrProviderUnavailable,
		},
		{
			name:   "invalid parameter",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":2003,"message":"Parameter 'radiuses' has incorrect value"}}`,
			want:   routing.ErrInvalidCoordinates,
		},
		{
			name:   "upstream outage",
			status: http.StatusInternalServerError,
			body:   `{"error":{"code":500,"message":"Internal server error"}}`,
			want:   routing.ErrProviderUnavailable,
		},
		{
			name:   "unparseable error body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			want:   routing.ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.GetLeg(context.Background(), testLegRequest)
			assertSentinel(t, err, tt.want)
		})
	}
}

func TestClient_GetLeg_RejectsInvalidCoordinates(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "mock123", Logger: zerolog.Nop()})

	tests := []struct {
		name        string
		origin      routing.Coordinate
		destination routing.Coordinate
	}{
		{
			name:        "origin latitude out of range",
			origin:      routing.Coordinate{Lat: 91.0, Lon: 4.9},
			destination: routing.Coordinate{Lat: 52.0, Lon: 5.1},
		},
		{
			name:        "destination longitude out of range",
			origin:      routing.Coordinate{Lat: 52.0, Lon: 4.9},
			destination: routing.Coordinate{Lat: 52.0, Lon: 181.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetLeg(context.Background(), routing.LegRequest{
				Origin:      tt.origin,
				Destination: tt.destination,
				Profile:     routing.ProfileDrive,
			})
			assertSentinel(t, err, routing.ErrInvalidCoordinates)
		})
	}
}

// failingDoer simulates a transport that never reaches the provider.
type failingDoer struct{}

func (failingDoer) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestClient_GetLeg_TransportError(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		HTTPClient: failingDoer{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.GetLeg(context.Background(), testLegRequest)
	assertSentinel(t, err, routing.ErrProviderUnavailable)
}

func TestClient_NameAndProfiles(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "test", Logger: zerolog.Nop()})

	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}

	want := []routing.RouteProfile{routing.ProfileDrive, routing.ProfileBike, routing.ProfileWalk}
	profiles := client.SupportedProfiles()
	if len(profiles) != len(want) {
		t.Fatalf("expected %d profiles, got %d", len(want), len(profiles))
	}
	for i := range want {
		if profiles[i] != want[i] {
			t.Errorf("profile %d: expected %s, got %s", i, want[i], profiles[i])
		}
	}
}

func TestValidateCoordinates(t *testing.T) {
	valid := []routing.Coordinate{
		{Lat: 52.3676, Lon: 4.9041},
		{Lat: 0, Lon: 0},
		{Lat: 90, Lon: 180},
		{Lat: -90, Lon: -180},
	}
	for _, c := range valid {
		if err := validateCoordinates(c); err != nil {
			t.Errorf("expected %+v to validate, got %v", c, err)
		}
	}

	invalid := []routing.Coordinate{
		{Lat: 90.1, Lon: 0},
		{Lat: -90.1, Lon: 0},
		{Lat: 0, Lon: 180.1},
		{Lat: 0, Lon: -180.1},
	}
	for _, c := range invalid {
		if err := validateCoordinates(c); err == nil {
			t.Errorf("expected %+v to be rejected", c)
		}
	}
}

func TestError_IsRetryable(t *testing.T) {
	tests := []struct {
		sentinel  error
		retryable bool
	}{
		{routing.ErrProviderUnavailable, true},
		{routing.ErrRateLimitExceeded, true},
		{routing.ErrNoRouteFound, false},
		{routing.ErrInvalidCoordinates, false},
	}

	for _, tt := range tests {
		err := &routing.Error{Err: tt.sentinel}
		if got := err.IsRetryable(); got != tt.retryable {
			t.Errorf("IsRetryable() with %v = %v, expected %v", tt.sentinel, got, tt.retryable)
		}
	}
}
