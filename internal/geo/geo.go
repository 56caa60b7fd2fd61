// Package geo holds the distance math shared by the spatial index and
// the route optimizer. Haversine miles is the single source of truth for
// every reported or threshold-compared distance; the per-degree
// approximation exists only to widen coarse tree searches.
package geo

import (
	"math"

	"github.com/fuelroute/fuelroute/internal/models"
)

const (
	// EarthRadiusMiles is the sphere radius used by Haversine.
	EarthRadiusMiles = 3959.0

	// MilesPerDegree is the approximate ground distance of one degree
	// of latitude. It is latitude-independent and therefore only good
	// enough for widening search boxes, never for reported distances.
	MilesPerDegree = 69.0
)

// Haversine returns the great-circle distance between two points in
// miles. Symmetric, and zero for identical points.
func Haversine(a, b models.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)

	return EarthRadiusMiles * 2 * math.Asin(math.Sqrt(h))
}

// MilesToDegrees converts a mile radius to the degree radius used for
// coarse tree queries.
func MilesToDegrees(miles float64) float64 {
	return miles / MilesPerDegree
}
