// Package spatial provides an immutable in-memory index over station
// coordinates supporting k-nearest and radius queries.
//
// The index keeps a contiguous coordinate slice parallel to the station
// slice and an R-tree built once over it. Nearest-neighbor searches walk
// the tree with a haversine-mile lower bound per subtree; radius queries
// use a widened degree box as a coarse pre-filter. Either way, every
// result the index reports has been re-measured with exact haversine
// miles before inclusion or ordering.
package spatial

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/rtree"

	"github.com/fuelroute/fuelroute/internal/geo"
	"github.com/fuelroute/fuelroute/internal/models"
)

// coordBytes is the storage cost of one entry in the parallel
// coordinate slice, used for the Stats memory estimate.
const coordBytes = 16

// Index answers proximity queries over a static station set. It is
// read-only after Build: concurrent readers need no locking, and a
// refresh means building a new Index and swapping the reference.
type Index struct {
	stations []models.Station
	coords   [][2]float64
	tree     *rtree.RTree
}

// Build constructs an index from a station list. Stations with zeroed or
// out-of-range coordinates are dropped row by row; a feed made entirely
// of bad rows yields a valid, empty index whose queries return nothing.
func Build(stations []models.Station) *Index {
	ix := &Index{
		stations: make([]models.Station, 0, len(stations)),
		coords:   make([][2]float64, 0, len(stations)),
		tree:     &rtree.RTree{},
	}

	dropped := 0
	for _, s := range stations {
		if s.Location.IsZero() || !s.Location.Valid() {
			dropped++
			continue
		}
		pt := [2]float64{s.Location.Lat, s.Location.Lon}
		ix.coords = append(ix.coords, pt)
		ix.stations = append(ix.stations, s)
		ix.tree.Insert(pt, pt, len(ix.stations)-1)
	}

	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("indexed", len(ix.stations)).
			Msg("Skipped stations with invalid coordinates")
	}
	log.Info().Int("station_count", len(ix.stations)).Msg("Spatial index built")

	return ix
}

// distSlack absorbs float noise between the tree's mile bound and the
// exact recomputation so equal-distance candidates are never cut before
// the ID tie-break.
const distSlack = 1e-9

// Nearest returns up to n stations ordered by ascending exact haversine
// distance to p. n is clamped to the station count. The priority search
// is driven by a mile lower bound on each subtree, so candidates surface
// in true haversine order regardless of latitude; the scan stops once
// the bound for the next candidate exceeds the n-th best exact distance.
func (ix *Index) Nearest(p models.Point, n int) []models.StationDistance {
	if ix == nil || ix.tree == nil || len(ix.stations) == 0 || n <= 0 {
		return nil
	}
	if n > len(ix.stations) {
		n = len(ix.stations)
	}

	candidates := make([]models.StationDistance, 0, n)
	ix.tree.Nearby(
		func(min, max [2]float64, _ interface{}, _ bool) float64 {
			return boxDistMiles(p, min, max)
		},
		func(_, _ [2]float64, data interface{}, dist float64) bool {
			if len(candidates) >= n && dist > candidates[n-1].DistanceMiles+distSlack {
				return false
			}
			i := data.(int)
			candidates = append(candidates, models.StationDistance{
				Station:       ix.stations[i],
				DistanceMiles: geo.Haversine(p, ix.stations[i].Location),
			})
			return true
		},
	)

	sortByDistance(candidates)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// boxDistMiles lower-bounds the haversine distance in miles from p to
// any point inside the lat/lon box. Each haversine term is minimized
// independently over the box, so the bound never overestimates; for a
// point box it equals the exact distance.
func boxDistMiles(p models.Point, min, max [2]float64) float64 {
	dLat := axisGap(p.Lat, min[0], max[0]) * math.Pi / 180
	dLon := axisGap(p.Lon, min[1], max[1]) * math.Pi / 180

	// cos is concave on [-90, 90], so its minimum over the box's
	// latitude range sits at an endpoint.
	cosBox := math.Min(math.Cos(min[0]*math.Pi/180), math.Cos(max[0]*math.Pi/180))

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(p.Lat*math.Pi/180)*cosBox*sinLon*sinLon
	return geo.EarthRadiusMiles * 2 * math.Asin(math.Sqrt(math.Min(1, h)))
}

// axisGap is the distance from v to the interval [lo, hi], zero inside.
func axisGap(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}

// WithinRadius returns every station whose exact haversine distance to p
// is at most radiusMiles, sorted ascending by that distance. The tree is
// queried with a widened degree box as a coarse pre-filter; inclusion is
// decided only by the exact re-measurement.
func (ix *Index) WithinRadius(p models.Point, radiusMiles float64) []models.StationDistance {
	if ix == nil || ix.tree == nil || len(ix.stations) == 0 || radiusMiles <= 0 {
		return nil
	}

	// Widen the box: a latitude degree is ~69 miles everywhere but a
	// longitude degree shrinks with cos(lat), so the east-west span
	// must grow with latitude or the coarse filter would drop hits.
	latSpan := geo.MilesToDegrees(radiusMiles) * 1.05
	cosLat := math.Cos(p.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonSpan := latSpan / cosLat
	if lonSpan > 180 {
		lonSpan = 180
	}

	var out []models.StationDistance
	ix.tree.Search(
		[2]float64{p.Lat - latSpan, p.Lon - lonSpan},
		[2]float64{p.Lat + latSpan, p.Lon + lonSpan},
		func(min, max [2]float64, data interface{}) bool {
			i := data.(int)
			d := geo.Haversine(p, ix.stations[i].Location)
			if d <= radiusMiles {
				out = append(out, models.StationDistance{
					Station:       ix.stations[i],
					DistanceMiles: d,
				})
			}
			return true
		},
	)

	sortByDistance(out)
	return out
}

// Stats reports the index size. IsLoaded is true for any built index,
// including one built from zero valid rows; only a nil Index (never
// built) reports false.
func (ix *Index) Stats() models.IndexStats {
	if ix == nil || ix.tree == nil {
		return models.IndexStats{}
	}
	return models.IndexStats{
		StationCount: len(ix.stations),
		MemoryBytes:  int64(len(ix.coords)) * coordBytes,
		IsLoaded:     true,
	}
}

// sortByDistance orders ascending by exact distance, breaking exact ties
// by station ID so query results are stable across runs.
func sortByDistance(s []models.StationDistance) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].DistanceMiles != s[j].DistanceMiles {
			return s[i].DistanceMiles < s[j].DistanceMiles
		}
		return s[i].Station.ID < s[j].Station.ID
	})
}
