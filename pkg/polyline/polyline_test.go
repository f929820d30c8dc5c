package polyline

import (
	"math"
	"testing"
)

const coordEpsilon = 1e-7

func coordsEqual(a, b []Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Lat-b[i].Lat) > coordEpsilon || math.Abs(a[i].Lon-b[i].Lon) > coordEpsilon {
			return false
		}
	}
	return true
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected []Coordinate
	}{
		{
			name:     "empty string",
			encoded:  "",
			expected: nil,
		},
		{
			name:    "single point",
			encoded: "sb|{HyyiZ",
			expected: []Coordinate{
				{Lat: 51.9225, Lon: 4.47917},
			},
		},
		{
			name:    "amsterdam to utrecht",
			encoded: "o`s~Hsy|\\rau@cmi@",
			expected: []Coordinate{
				{Lat: 52.3676, Lon: 4.9041},
				{Lat: 52.0907, Lon: 5.1214},
			},
		},
		{
			name:    "reference vector",
			encoded: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			expected: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			},
		},
		{
			name:    "southern hemisphere",
			encoded: "~~umEca|y[~maWv}be@",
			expected: []Coordinate{
				{Lat: -33.8688, Lon: 151.2093},
				{Lat: -37.8136, Lon: 144.9631},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.encoded)
			if !coordsEqual(got, tt.expected) {
				t.Errorf("Decode(%q) = %v, want %v", tt.encoded, got, tt.expected)
			}
		})
	}
}

func TestDecode_TruncatedInput(t *testing.T) {
	// A polyline cut off mid-pair still decodes without panicking; the
	// dangling latitude pairs with a zero longitude delta.
	got := Decode("o`s~H")

	if len(got) != 1 {
		t.Fatalf("Decode truncated = %d points, want 1", len(got))
	}
	if math.Abs(got[0].Lat-52.3676) > coordEpsilon {
		t.Errorf("Lat = %v, want 52.3676", got[0].Lat)
	}
	if got[0].Lon != 0 {
		t.Errorf("Lon = %v, want 0", got[0].Lon)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		coords   []Coordinate
		expected string
	}{
		{
			name:     "nil slice",
			coords:   nil,
			expected: "",
		},
		{
			name:     "empty slice",
			coords:   []Coordinate{},
			expected: "",
		},
		{
			name: "single point",
			coords: []Coordinate{
				{Lat: 51.9225, Lon: 4.47917},
			},
			expected: "sb|{HyyiZ",
		},
		{
			name: "amsterdam to utrecht",
			coords: []Coordinate{
				{Lat: 52.3676, Lon: 4.9041},
				{Lat: 52.0907, Lon: 5.1214},
			},
			expected: "o`s~Hsy|\\rau@cmi@",
		},
		{
			name: "reference vector",
			coords: []Coordinate{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			},
			expected: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.coords)
			if got != tt.expected {
				t.Errorf("Encode(%v) = %q, want %q", tt.coords, got, tt.expected)
			}
		})
	}
}

func TestEncode_Roundtrip(t *testing.T) {
	routes := map[string][]Coordinate{
		"city loop": {
			{Lat: 52.3676, Lon: 4.9041},
			{Lat: 52.3702, Lon: 4.8952},
			{Lat: 52.3731, Lon: 4.8926},
			{Lat: 52.3676, Lon: 4.9041},
		},
		"cross equator": {
			{Lat: 1.3521, Lon: 103.8198},
			{Lat: -6.2088, Lon: 106.8456},
		},
		"meridian crossing": {
			{Lat: 51.4779, Lon: -0.0015},
			{Lat: 51.4779, Lon: 0.0015},
		},
	}

	for name, route := range routes {
		t.Run(name, func(t *testing.T) {
			got := Decode(Encode(route))
			if !coordsEqual(got, route) {
				t.Errorf("roundtrip = %v, want %v", got, route)
			}
		})
	}
}

func TestLengthKm(t *testing.T) {
	tests := []struct {
		name     string
		coords   []Coordinate
		expected float64
		delta    float64
	}{
		{
			name:     "empty",
			coords:   nil,
			expected: 0,
			delta:    0,
		},
		{
			name:     "single point",
			coords:   []Coordinate{{Lat: 52.3676, Lon: 4.9041}},
			expected: 0,
			delta:    0,
		},
		{
			name: "amsterdam to utrecht",
			coords: []Coordinate{
				{Lat: 52.3676, Lon: 4.9041},
				{Lat: 52.0907, Lon: 5.1214},
			},
			expected: 34.16,
			delta:    0.05,
		},
		{
			name: "sydney to melbourne",
			coords: []Coordinate{
				{Lat: -33.8688, Lon: 151.2093},
				{Lat: -37.8136, Lon: 144.9631},
			},
			expected: 713.4,
			delta:    0.5,
		},
		{
			name: "city loop",
			coords: []Coordinate{
				{Lat: 52.3676, Lon: 4.9041},
				{Lat: 52.3702, Lon: 4.8952},
				{Lat: 52.3731, Lon: 4.8926},
				{Lat: 52.3676, Lon: 4.9041},
			},
			expected: 2.03,
			delta:    0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LengthKm(tt.coords)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("LengthKm = %v, want %v ± %v", got, tt.expected, tt.delta)
			}
		})
	}
}

func TestLengthKm_MatchesDecodedGeometry(t *testing.T) {
	direct := LengthKm([]Coordinate{
		{Lat: 52.3676, Lon: 4.9041},
		{Lat: 52.0907, Lon: 5.1214},
	})
	decoded := LengthKm(Decode("o`s~Hsy|\\rau@cmi@"))

	if math.Abs(direct-decoded) > 0.001 {
		t.Errorf("decoded length %v differs from direct length %v", decoded, direct)
	}
}
