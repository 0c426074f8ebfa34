package utils

import (
	"math"

	"github.com/mmcloughlin/geohash"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

// EncodeLocation converts a coordinate to a geohash string.
func EncodeLocation(loc models.LatLng, precision uint) string {
	return geohash.EncodeWithPrecision(loc.Lat, loc.Lng, precision)
}

// DecodeGeohash converts a geohash string back to a coordinate.
func DecodeGeohash(hash string) models.LatLng {
	lat, lng := geohash.Decode(hash)
	return models.LatLng{Lat: lat, Lng: lng}
}

// HaversineKm calculates the great-circle distance between two points in
// kilometers using the Haversine formula.
func HaversineKm(a, b models.LatLng) float64 {
	// Earth's radius in kilometers
	const earthRadius = 6371.0

	lat1 := a.Lat * math.Pi / 180.0
	lon1 := a.Lng * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	lon2 := b.Lng * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}

// DegreeDistance returns the straight-line distance between two points in
// degree space. The simulation engine interpolates entirely in this space.
func DegreeDistance(a, b models.LatLng) float64 {
	return math.Hypot(b.Lat-a.Lat, b.Lng-a.Lng)
}

// StepToward advances from current toward target by step degrees along the
// unit vector between them. When the remaining distance is not larger than
// the step, the target itself is returned.
func StepToward(current, target models.LatLng, step float64) models.LatLng {
	dist := DegreeDistance(current, target)
	if dist <= step {
		return target
	}
	return models.LatLng{
		Lat: current.Lat + (target.Lat-current.Lat)/dist*step,
		Lng: current.Lng + (target.Lng-current.Lng)/dist*step,
	}
}
