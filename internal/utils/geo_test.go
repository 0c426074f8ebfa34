package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmsflow/fleettrack/internal/pkg/models"
)

func TestHaversineKm(t *testing.T) {
	saoPaulo := models.LatLng{Lat: -23.5505, Lng: -46.6333}
	rio := models.LatLng{Lat: -22.9068, Lng: -43.1729}

	dist := HaversineKm(saoPaulo, rio)
	// Road-atlas figure is roughly 360 km great-circle
	assert.InDelta(t, 360.0, dist, 10.0)

	assert.Zero(t, HaversineKm(saoPaulo, saoPaulo))
}

func TestDegreeDistance(t *testing.T) {
	a := models.LatLng{Lat: 0, Lng: 0}
	b := models.LatLng{Lat: 0.0009, Lng: 0}

	assert.InDelta(t, 0.0009, DegreeDistance(a, b), 1e-12)
	assert.Equal(t, DegreeDistance(a, b), DegreeDistance(b, a))
}

func TestStepToward(t *testing.T) {
	current := models.LatLng{Lat: 0, Lng: 0}
	target := models.LatLng{Lat: 0.003, Lng: 0.004} // distance 0.005

	next := StepToward(current, target, 0.001)
	assert.InDelta(t, 0.0006, next.Lat, 1e-12)
	assert.InDelta(t, 0.0008, next.Lng, 1e-12)

	// Step is applied along the unit vector, so each step strictly shrinks
	// the remaining distance by the step magnitude.
	assert.InDelta(t, 0.004, DegreeDistance(next, target), 1e-12)
}

func TestStepTowardClampsToTarget(t *testing.T) {
	current := models.LatLng{Lat: 0, Lng: 0}
	target := models.LatLng{Lat: 0.0001, Lng: 0}

	assert.Equal(t, target, StepToward(current, target, 0.0005))
}

func TestEncodeLocation(t *testing.T) {
	loc := models.LatLng{Lat: -23.5505, Lng: -46.6333}
	hash := EncodeLocation(loc, 7)

	assert.Len(t, hash, 7)

	decoded := DecodeGeohash(hash)
	assert.InDelta(t, loc.Lat, decoded.Lat, 0.01)
	assert.InDelta(t, loc.Lng, decoded.Lng, 0.01)
}
