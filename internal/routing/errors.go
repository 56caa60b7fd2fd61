package routing

import "fmt"

// APIError represents a non-success response from OpenRouteService.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouteservice: status %d: %s", e.Status, e.Body)
}

// GeocodeError is returned when an address resolves to no features.
type GeocodeError struct {
	Address string
}

func (e *GeocodeError) Error() string {
	return fmt.Sprintf("could not geocode address: %s", e.Address)
}
