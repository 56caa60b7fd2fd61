package optimize

import "fmt"

// ShortfallError reports that a required refuel could not be satisfied:
// no station was reachable even after the expanded search. The plan up
// to the failing waypoint is still returned alongside the error so
// callers can show the user how far the route is serviceable.
type ShortfallError struct {
	WaypointIndex     int
	MilesFromStart    float64
	SearchRadiusMiles float64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf(
		"fuel shortfall at waypoint %d (%.1f miles from start): no station within %.1f miles",
		e.WaypointIndex, e.MilesFromStart, e.SearchRadiusMiles,
	)
}
