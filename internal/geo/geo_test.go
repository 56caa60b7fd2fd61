package geo

import (
	"testing"

	"github.com/fuelroute/fuelroute/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHaversineZeroDistance(t *testing.T) {
	t.Parallel()

	p := models.Point{Lat: 34.0522, Lon: -118.2437}
	assert.Zero(t, Haversine(p, p))
}

func TestHaversineSymmetry(t *testing.T) {
	t.Parallel()

	a := models.Point{Lat: 34.0522, Lon: -118.2437} // Los Angeles
	b := models.Point{Lat: 37.7749, Lon: -122.4194} // San Francisco

	assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
}

func TestHaversineKnownDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		a, b      models.Point
		wantMiles float64
		tolerance float64
	}{
		{
			name:      "Los Angeles to San Francisco",
			a:         models.Point{Lat: 34.0522, Lon: -118.2437},
			b:         models.Point{Lat: 37.7749, Lon: -122.4194},
			wantMiles: 347,
			tolerance: 10,
		},
		{
			name:      "New York to Chicago",
			a:         models.Point{Lat: 40.7128, Lon: -74.0060},
			b:         models.Point{Lat: 41.8781, Lon: -87.6298},
			wantMiles: 712,
			tolerance: 15,
		},
		{
			name:      "one degree of latitude",
			a:         models.Point{Lat: 40, Lon: -100},
			b:         models.Point{Lat: 41, Lon: -100},
			wantMiles: 69,
			tolerance: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Haversine(tt.a, tt.b)
			assert.InDelta(t, tt.wantMiles, got, tt.tolerance)
		})
	}
}

func TestHaversineNonNegative(t *testing.T) {
	t.Parallel()

	points := []models.Point{
		{Lat: 0, Lon: 0},
		{Lat: 89.9, Lon: 179.9},
		{Lat: -89.9, Lon: -179.9},
		{Lat: 45.5, Lon: -122.6},
	}
	for _, a := range points {
		for _, b := range points {
			assert.GreaterOrEqual(t, Haversine(a, b), 0.0)
		}
	}
}

func TestMilesToDegrees(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, MilesToDegrees(69), 1e-9)
	assert.InDelta(t, 0.5, MilesToDegrees(34.5), 1e-9)
	assert.Zero(t, MilesToDegrees(0))
}
