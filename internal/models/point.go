package models

// Point is a geographic coordinate in decimal degrees, latitude first.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside the lat/lon domain.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// IsZero reports whether both coordinates are exactly zero. Rows with
// zeroed coordinates come from failed geocoding and are never real
// stations in this dataset.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}
