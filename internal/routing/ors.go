// Package routing is the boundary to OpenRouteService: turn-by-turn
// driving routes and geocoding. It owns the coordinate-order conversion:
// ORS speaks [lon, lat] on the wire, everything inside this module is
// (lat, lon) Points.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-polyline"

	"github.com/fuelroute/fuelroute/internal/models"
	"github.com/fuelroute/fuelroute/pkg/http/client"
)

const (
	defaultBaseURL = "https://api.openrouteservice.org"
	metersPerMile  = 1609.34
)

// Route is a driving route between two points.
type Route struct {
	Polyline        []models.Point
	EncodedPolyline string
	DistanceMiles   float64
	DurationHours   float64
}

// Client calls the OpenRouteService directions and geocoding APIs.
type Client struct {
	httpClient client.Interface
	apiKey     string
}

type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openrouteservice API key is empty")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}

	return &Client{
		httpClient: client.New(client.Options{
			BaseURL: opts.BaseURL,
			Timeout: opts.Timeout,
			Headers: map[string]string{
				"Authorization": opts.APIKey,
				"Accept":        "application/json",
			},
		}),
		apiKey: opts.APIKey,
	}, nil
}

// NewClientWith wraps an existing HTTP client; used by tests.
func NewClientWith(httpClient client.Interface) *Client {
	return &Client{httpClient: httpClient}
}

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// GetRoute fetches a driving route between two points, decoded to a
// (lat, lon) polyline with miles and hours.
func (c *Client) GetRoute(ctx context.Context, start, end models.Point) (*Route, error) {
	// ORS expects [lon, lat], not [lat, lon].
	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{
			{start.Lon, start.Lat},
			{end.Lon, end.Lat},
		},
		Instructions: false,
		Geometry:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding directions request: %w", err)
	}

	resp, err := c.httpClient.Post(ctx, "/v2/directions/driving-car", payload)
	if err != nil {
		return nil, fmt.Errorf("fetching route: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
	}

	var decoded directionsResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding directions response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("no route between %v and %v", start, end)
	}

	r := decoded.Routes[0]
	points, err := decodePolyline(r.Geometry)
	if err != nil {
		return nil, fmt.Errorf("decoding route geometry: %w", err)
	}

	route := &Route{
		Polyline:        points,
		EncodedPolyline: r.Geometry,
		DistanceMiles:   r.Summary.Distance / metersPerMile,
		DurationHours:   r.Summary.Duration / 3600,
	}

	log.Debug().
		Float64("distance_miles", route.DistanceMiles).
		Int("polyline_points", len(route.Polyline)).
		Msg("Route fetched")

	return route, nil
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves a free-form US address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (models.Point, error) {
	q := url.Values{}
	q.Set("text", address)
	q.Set("boundary.country", "US")
	q.Set("size", "1")

	resp, err := c.httpClient.Get(ctx, "/geocode/search?"+q.Encode())
	if err != nil {
		return models.Point{}, fmt.Errorf("geocoding %q: %w", address, err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Point{}, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
	}

	var decoded geocodeResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return models.Point{}, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return models.Point{}, &GeocodeError{Address: address}
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return models.Point{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	// Geocode responses are GeoJSON, so [lon, lat] again.
	return models.Point{Lat: coords[1], Lon: coords[0]}, nil
}

// ParseLocation accepts either a "lat,lon" pair or a free-form address.
// Coordinate pairs never hit the network.
func (c *Client) ParseLocation(ctx context.Context, location string) (models.Point, error) {
	if parts := strings.Split(location, ","); len(parts) == 2 {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if latErr == nil && lonErr == nil {
			p := models.Point{Lat: lat, Lon: lon}
			if p.Valid() {
				return p, nil
			}
		}
	}

	return c.Geocode(ctx, location)
}

func decodePolyline(encoded string) ([]models.Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}

	points := make([]models.Point, len(coords))
	for i, c := range coords {
		points[i] = models.Point{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}
