package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fuelroute/fuelroute/internal/models"
)

// Google Maps caps directions links at 25 total points.
const maxMapWaypoints = 23

// mapURL builds a Google Maps directions link from origin to destination
// with the fuel stops as intermediate waypoints.
func mapURL(start, end string, stops []models.FuelStop) string {
	params := url.Values{}
	params.Set("api", "1")
	params.Set("origin", start)
	params.Set("destination", end)
	params.Set("travelmode", "driving")

	if len(stops) > 0 {
		limit := len(stops)
		if limit > maxMapWaypoints {
			limit = maxMapWaypoints
		}
		waypoints := make([]string, 0, limit)
		for _, stop := range stops[:limit] {
			waypoints = append(waypoints,
				fmt.Sprintf("%.6f,%.6f", stop.Location.Lat, stop.Location.Lon))
		}
		params.Set("waypoints", strings.Join(waypoints, "|"))
	}

	return "https://www.google.com/maps/dir/?" + params.Encode()
}
