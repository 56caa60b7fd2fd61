package models

// Station is one fuel-sellable location. Stations are immutable once
// loaded; a feed refresh produces a new slice rather than mutating the
// one an index was built from.
type Station struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Price    float64 `json:"price"`
	Location Point   `json:"location"`
}

// StationDistance pairs a station with its exact haversine distance in
// miles from a query point.
type StationDistance struct {
	Station       Station `json:"station"`
	DistanceMiles float64 `json:"distanceMiles"`
}
