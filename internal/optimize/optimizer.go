// Package optimize turns a route polyline into a minimal-cost sequence
// of refuel decisions under a hard range constraint.
//
// The algorithm is greedy with a short lookahead: the route is sampled
// into waypoints, refueling triggers before range would drop below the
// safety buffer, and candidates are scored by price with a light detour
// penalty. Near-optimal in practice, O(n log n) overall.
package optimize

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fuelroute/fuelroute/internal/geo"
	"github.com/fuelroute/fuelroute/internal/models"
	"github.com/fuelroute/fuelroute/internal/spatial"
)

const (
	// sampleIntervalMiles is the spacing of waypoints along the route.
	sampleIntervalMiles = 50.0

	// fillFraction refuels to 80% of max range rather than 100%,
	// leaving slack for later greedy decisions.
	fillFraction = 0.8

	// candidateLimit bounds how many nearest-by-distance candidates are
	// scored per refuel.
	candidateLimit = 30

	// detourWeight converts candidate distance to score units. Price
	// dominates: a dollar per gallon outweighs 100 miles of detour.
	detourWeight = 0.01

	// expandedRadiusCapMiles caps the fallback search radius when the
	// primary search finds nothing.
	expandedRadiusCapMiles = 50.0
)

// Config holds the vehicle parameters for one optimizer. Supplied at
// construction and never changed mid-optimization.
type Config struct {
	MaxRangeMiles     float64
	MPG               float64
	SafetyBufferMiles float64
	MaxDetourMiles    float64
}

// DefaultConfig matches a long-haul truck: 500-mile range, 10 mpg,
// 30 miles kept in reserve, at most 20 miles off route.
func DefaultConfig() Config {
	return Config{
		MaxRangeMiles:     500,
		MPG:               10,
		SafetyBufferMiles: 30,
		MaxDetourMiles:    20,
	}
}

// Optimizer plans fuel stops. It carries no state between calls;
// distinct Optimizer values sharing one read-only index may run
// concurrently.
type Optimizer struct {
	cfg Config
}

func New(cfg Config) *Optimizer {
	def := DefaultConfig()
	if cfg.MaxRangeMiles <= 0 {
		cfg.MaxRangeMiles = def.MaxRangeMiles
	}
	if cfg.MPG <= 0 {
		cfg.MPG = def.MPG
	}
	if cfg.SafetyBufferMiles <= 0 {
		cfg.SafetyBufferMiles = def.SafetyBufferMiles
	}
	if cfg.MaxDetourMiles <= 0 {
		cfg.MaxDetourMiles = def.MaxDetourMiles
	}
	return &Optimizer{cfg: cfg}
}

// Optimize walks the sampled route and decides when and where to refuel.
//
// When a required refuel cannot be satisfied even after the expanded
// search, Optimize stops planning and returns the partial result
// together with a *ShortfallError; it never silently under-fuels the
// plan. All other degenerate inputs (empty route, single point, empty
// index with no refuel needed) are valid and produce an empty plan.
func (o *Optimizer) Optimize(routePoints []models.Point, totalDistance float64, ix *spatial.Index) (models.OptimizationResult, error) {
	start := time.Now()

	result := models.OptimizationResult{
		Stops:         []models.FuelStop{},
		TotalDistance: round2(totalDistance),
	}

	if len(routePoints) < 2 {
		result.ComputationMS = elapsedMS(start)
		return result, nil
	}

	waypoints := sampleRoute(routePoints, sampleIntervalMiles)
	log.Debug().
		Int("route_points", len(routePoints)).
		Int("waypoints", len(waypoints)).
		Msg("Route sampled")

	remainingRange := o.cfg.MaxRangeMiles
	distanceTraveled := 0.0
	lastStop := waypoints[0]

	for i := 1; i < len(waypoints); i++ {
		segment := geo.Haversine(lastStop, waypoints[i])

		if segment > remainingRange-o.cfg.SafetyBufferMiles {
			station, radius, ok := o.findBestStation(lastStop, remainingRange, ix)
			if !ok {
				result.TotalCost = round2(result.TotalCost)
				result.TotalGallons = round2(result.TotalGallons)
				result.ComputationMS = elapsedMS(start)
				return result, &ShortfallError{
					WaypointIndex:     i,
					MilesFromStart:    round2(distanceTraveled),
					SearchRadiusMiles: radius,
				}
			}

			gallons := fillFraction * o.cfg.MaxRangeMiles / o.cfg.MPG
			cost := gallons * station.Station.Price

			result.Stops = append(result.Stops, models.FuelStop{
				Name:           station.Station.Name,
				Location:       station.Station.Location,
				PricePerGallon: station.Station.Price,
				Gallons:        round2(gallons),
				Cost:           round2(cost),
				MilesFromStart: round2(distanceTraveled),
			})
			result.TotalCost += cost
			result.TotalGallons += gallons

			remainingRange = fillFraction * o.cfg.MaxRangeMiles
			lastStop = station.Station.Location

			log.Debug().
				Str("station", station.Station.Name).
				Float64("cost", round2(cost)).
				Float64("miles_from_start", round2(distanceTraveled)).
				Msg("Fuel stop selected")
		}

		remainingRange -= segment
		distanceTraveled += segment
	}

	result.TotalCost = round2(result.TotalCost)
	result.TotalGallons = round2(result.TotalGallons)
	result.ComputationMS = elapsedMS(start)

	log.Info().
		Int("stops", len(result.Stops)).
		Float64("total_cost", result.TotalCost).
		Float64("computation_ms", result.ComputationMS).
		Msg("Optimization complete")

	return result, nil
}

// findBestStation searches near the last refuel location and scores the
// closest candidates by price plus a light detour penalty. Candidates
// arrive sorted ascending by exact distance (ties broken by station ID
// inside the index), and the strict comparison keeps the first-found
// candidate on equal scores, so selection is deterministic.
func (o *Optimizer) findBestStation(from models.Point, remainingRange float64, ix *spatial.Index) (models.StationDistance, float64, bool) {
	radius := math.Min(remainingRange*0.9, o.cfg.MaxDetourMiles)
	candidates := ix.WithinRadius(from, radius)

	if len(candidates) == 0 {
		expanded := math.Min(remainingRange, expandedRadiusCapMiles)
		log.Warn().
			Float64("radius", radius).
			Float64("expanded", expanded).
			Msg("No stations in primary radius, expanding search")
		radius = expanded
		candidates = ix.WithinRadius(from, radius)
	}

	if len(candidates) == 0 {
		return models.StationDistance{}, radius, false
	}

	if len(candidates) > candidateLimit {
		candidates = candidates[:candidateLimit]
	}

	best := candidates[0]
	bestScore := score(best)
	for _, c := range candidates[1:] {
		if s := score(c); s < bestScore {
			bestScore = s
			best = c
		}
	}
	return best, radius, true
}

func score(c models.StationDistance) float64 {
	return c.Station.Price + c.DistanceMiles*detourWeight
}

// sampleRoute reduces a dense polyline to waypoints spaced roughly
// interval miles apart, by accumulating haversine distance between
// consecutive input points. The first point is always emitted and the
// last is always appended, so the destination is never skipped.
func sampleRoute(points []models.Point, interval float64) []models.Point {
	if len(points) < 2 {
		return points
	}

	sampled := []models.Point{points[0]}
	cumulative := 0.0

	for i := 1; i < len(points); i++ {
		cumulative += geo.Haversine(points[i-1], points[i])
		if cumulative >= interval {
			sampled = append(sampled, points[i])
			cumulative = 0
		}
	}

	if sampled[len(sampled)-1] != points[len(points)-1] {
		sampled = append(sampled, points[len(points)-1])
	}

	return sampled
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func elapsedMS(start time.Time) float64 {
	return round2(float64(time.Since(start).Microseconds()) / 1000)
}
