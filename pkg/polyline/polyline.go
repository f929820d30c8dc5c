// Package polyline encodes and decodes polyline5 geometry, the
// compressed point format routing providers return for route legs.
// Algorithm reference:
// https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"math"
)

// precision is the polyline5 scale factor shared by Google and ORS.
const precision = 1e5

// Coordinate represents a geographic point with latitude and longitude.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Decode expands an encoded polyline into its coordinates. Truncated
// input yields the points decoded so far; it never panics.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	coords := make([]Coordinate, 0, len(encoded)/4)
	var lat, lon int64
	pos := 0

	for pos < len(encoded) {
		dLat, n := decodeDelta(encoded[pos:])
		pos += n
		dLon, n := decodeDelta(encoded[pos:])
		pos += n

		lat += dLat
		lon += dLon
		coords = append(coords, Coordinate{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}

	return coords
}

// decodeDelta reads one zigzag-encoded varint, returning the delta and
// the number of bytes consumed.
func decodeDelta(s string) (int64, int) {
	var result int64
	var shift uint
	n := 0

	for n < len(s) {
		b := int64(s[n]) - 63
		n++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), n
	}
	return result >> 1, n
}

// Encode renders coordinates as an encoded polyline.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	// Most deltas fit in 2-3 bytes per axis.
	buf := make([]byte, 0, len(coords)*6)
	var prevLat, prevLon int64

	for _, c := range coords {
		lat := int64(math.Round(c.Lat * precision))
		lon := int64(math.Round(c.Lon * precision))

		buf = appendDelta(buf, lat-prevLat)
		buf = appendDelta(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// appendDelta writes one delta as a zigzag varint in 5-bit groups.
func appendDelta(buf []byte, delta int64) []byte {
	value := delta << 1
	if delta < 0 {
		value = ^value
	}

	for value >= 0x20 {
		buf = append(buf, byte(value&0x1f|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// LengthKm returns the great-circle length of the geometry in
// kilometers.
func LengthKm(coords []Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += haversineKm(coords[i-1], coords[i])
	}
	return total
}

func haversineKm(a, b Coordinate) float64 {
	const earthRadiusKm = 6371.0

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
