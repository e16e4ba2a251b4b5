package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the Haversine formula.
const EarthRadiusMeters = 6371000.0

// Location is a geographic coordinate captured from a client device.
// A new reading replaces the old one; values are never mutated in place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is within the WGS84 bounds.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Locatable is anything that can appear in a proximity-filtered listing:
// a post, a profile, or any other entity carrying an optional location.
type Locatable interface {
	// Coordinate returns the entity's location, or nil when none was
	// captured (legacy/global content).
	Coordinate() *Location

	// OwnerID identifies the user the entity belongs to.
	OwnerID() string
}

// DistanceMeters returns the great-circle distance between two coordinates
// using the Haversine formula. Symmetric in its arguments and ~0 for
// identical points.
func DistanceMeters(a, b Location) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(lat1)*math.Cos(lat2)*vSin

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// FormatDistance renders a distance in meters for display:
// below 1 km it hides the exact value, up to 10 km it keeps one decimal,
// beyond that whole kilometers are enough.
func FormatDistance(meters float64) string {
	switch {
	case meters < 1000:
		return "< 1 km"
	case meters < 10000:
		return fmt.Sprintf("%.1f km", meters/1000)
	default:
		return fmt.Sprintf("%d km", int(math.Round(meters/1000)))
	}
}
