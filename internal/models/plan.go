package models

// FuelStop is a single refuel decision along a planned route.
type FuelStop struct {
	Name           string  `json:"name"`
	Location       Point   `json:"location"`
	PricePerGallon float64 `json:"pricePerGallon"`
	Gallons        float64 `json:"gallons"`
	Cost           float64 `json:"cost"`
	MilesFromStart float64 `json:"milesFromStart"`
}

// OptimizationResult is the complete plan for one route. Stops are in
// route order, not price order.
type OptimizationResult struct {
	Stops         []FuelStop `json:"stops"`
	TotalCost     float64    `json:"totalCost"`
	TotalGallons  float64    `json:"totalGallons"`
	TotalDistance float64    `json:"totalDistance"`
	ComputationMS float64    `json:"computationMs"`
}

// IndexStats describes a spatial index for health reporting.
type IndexStats struct {
	StationCount int   `json:"stationCount"`
	MemoryBytes  int64 `json:"memoryBytes"`
	IsLoaded     bool  `json:"isLoaded"`
}
