package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/fuelroute/fuelroute/internal/cache"
	"github.com/fuelroute/fuelroute/internal/metrics"
	"github.com/fuelroute/fuelroute/internal/models"
	"github.com/fuelroute/fuelroute/internal/optimize"
	"github.com/fuelroute/fuelroute/internal/routing"
	"github.com/fuelroute/fuelroute/internal/spatial"
	"github.com/rs/zerolog/log"
)

const (
	defaultNearLimit = 10
	maxNearLimit     = 100
)

// Handler serves the JSON API. All dependencies are provided at
// construction and shared across requests.
type Handler struct {
	Index   *spatial.Index
	Routing *routing.Client
	Cache   *cache.Service
	Metrics *metrics.Provider
}

func NewHandler(index *spatial.Index, rc *routing.Client, cacheSvc *cache.Service, provider *metrics.Provider) *Handler {
	return &Handler{
		Index:   index,
		Routing: rc,
		Cache:   cacheSvc,
		Metrics: provider,
	}
}

// Optimize handles POST /api/optimize.
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("invalid request body"))
		return
	}

	body, status := h.OptimizePlan(r.Context(), &req)
	writeJSON(w, status, body)
}

// OptimizePlan runs the full optimize flow: cache lookup, geocoding,
// routing, stop selection and cache write-back. It is transport agnostic
// so the HTTP and Lambda entrypoints share it. The returned body is
// either an *OptimizeResponse or an *ErrorResponse.
func (h *Handler) OptimizePlan(ctx context.Context, req *OptimizeRequest) (interface{}, int) {
	started := time.Now()

	if req.Start == "" || req.End == "" {
		return NewErrorResponse("start and end are required"), http.StatusBadRequest
	}
	if req.MaxRangeMiles == 0 {
		req.MaxRangeMiles = optimize.DefaultConfig().MaxRangeMiles
	}
	if req.MPG == 0 {
		req.MPG = optimize.DefaultConfig().MPG
	}
	if req.MaxRangeMiles < 0 || req.MPG < 0 {
		return NewErrorResponse("maxRangeMiles and mpg must be positive"), http.StatusBadRequest
	}

	key := cache.Key(req.Start, req.End, req.MaxRangeMiles, req.MPG)
	if record := h.Cache.GetPlan(ctx, key); record != nil {
		h.Metrics.CacheLookups.WithLabelValues("hit").Inc()
		return h.buildResponse(req, record, true, started), http.StatusOK
	}
	h.Metrics.CacheLookups.WithLabelValues("miss").Inc()

	startPoint, err := h.Routing.ParseLocation(ctx, req.Start)
	if err != nil {
		return geocodeErrorBody("start", err)
	}
	endPoint, err := h.Routing.ParseLocation(ctx, req.End)
	if err != nil {
		return geocodeErrorBody("end", err)
	}

	route, err := h.Routing.GetRoute(ctx, startPoint, endPoint)
	if err != nil {
		log.Error().Err(err).Msg("routing request failed")
		return NewErrorResponse("routing service unavailable"), http.StatusBadGateway
	}

	optimizer := optimize.New(optimize.Config{
		MaxRangeMiles: req.MaxRangeMiles,
		MPG:           req.MPG,
	})
	result, optErr := optimizer.Optimize(route.Polyline, route.DistanceMiles, h.Index)
	h.Metrics.OptimizeDuration.Observe(result.ComputationMS / 1000.0)

	record := &cache.PlanRecord{
		CacheKey:        key,
		Start:           req.Start,
		End:             req.End,
		MaxRangeMiles:   req.MaxRangeMiles,
		MPG:             req.MPG,
		DistanceMiles:   route.DistanceMiles,
		DurationHours:   route.DurationHours,
		EncodedPolyline: route.EncodedPolyline,
		Result:          result,
	}

	if optErr != nil {
		var shortfall *optimize.ShortfallError
		if !errors.As(optErr, &shortfall) {
			log.Error().Err(optErr).Msg("optimization failed")
			return NewErrorResponse("optimization failed"), http.StatusInternalServerError
		}
		resp := h.buildResponse(req, record, false, started)
		resp.Success = false
		resp.Error = shortfall.Error()
		return resp, http.StatusUnprocessableEntity
	}

	if err := h.Cache.SavePlan(ctx, *record); err != nil {
		log.Warn().Err(err).Msg("saving plan to cache failed")
	}

	return h.buildResponse(req, record, false, started), http.StatusOK
}

func (h *Handler) buildResponse(req *OptimizeRequest, record *cache.PlanRecord, cacheHit bool, started time.Time) *OptimizeResponse {
	stats := h.Index.Stats()
	fuel := FuelInfo{
		TotalCost:    record.Result.TotalCost,
		TotalGallons: record.Result.TotalGallons,
		Stops:        record.Result.Stops,
		NumStops:     len(record.Result.Stops),
	}
	if fuel.Stops == nil {
		fuel.Stops = []models.FuelStop{}
	}
	if record.Result.TotalGallons > 0 {
		fuel.AvgCostPerGallon = round2(record.Result.TotalCost / record.Result.TotalGallons)
	}
	return &OptimizeResponse{
		APIResponse: APIResponse{ResponseType: "optimize"},
		Success:     true,
		CacheHit:    cacheHit,
		Route: RouteInfo{
			Start:           req.Start,
			End:             req.End,
			DistanceMiles:   record.DistanceMiles,
			DurationHours:   record.DurationHours,
			EncodedPolyline: record.EncodedPolyline,
		},
		Fuel: fuel,
		Performance: PerformanceInfo{
			OptimizationMS:  record.Result.ComputationMS,
			TotalResponseMS: time.Since(started).Milliseconds(),
			StationCount:    stats.StationCount,
		},
		MapURL: mapURL(req.Start, req.End, record.Result.Stops),
	}
}

// StationsNear handles GET /api/stations/near.
func (h *Handler) StationsNear(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params := map[string]string{}
	if query.Has("lat") {
		params["lat"] = query.Get("lat")
	}
	if query.Has("lon") {
		params["lon"] = query.Get("lon")
	}

	lat, lon, err := ParseCoordinates(params)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse(err.Error()))
		return
	}

	limit := defaultNearLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, NewErrorResponse("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	if limit > maxNearLimit {
		limit = maxNearLimit
	}

	stations := h.Index.Nearest(models.Point{Lat: lat, Lon: lon}, limit)
	writeJSON(w, http.StatusOK, NewStationsResponse(stations))
}

// Health handles GET /health. Reports 503 until the station index is
// loaded so orchestrators hold traffic during startup.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.Index.Stats()
	resp := &HealthResponse{
		APIResponse:  APIResponse{ResponseType: "health"},
		Status:       "healthy",
		StationCount: stats.StationCount,
		IndexLoaded:  stats.IsLoaded,
		ORSReady:     h.Routing != nil,
	}

	status := http.StatusOK
	if !stats.IsLoaded || h.Routing == nil {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func geocodeErrorBody(which string, err error) (interface{}, int) {
	var geocodeErr *routing.GeocodeError
	if errors.As(err, &geocodeErr) {
		return NewErrorResponse("could not geocode " + which + " location"), http.StatusBadRequest
	}
	log.Error().Err(err).Str("location", which).Msg("geocoding request failed")
	return NewErrorResponse("geocoding service unavailable"), http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encoding response failed")
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
