package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/fuelroute/fuelroute/internal/models"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

// OptimizeRequest is the body of POST /api/optimize. Start and end accept
// either "lat,lon" pairs or free-form addresses.
type OptimizeRequest struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	MaxRangeMiles float64 `json:"maxRangeMiles,omitempty"`
	MPG           float64 `json:"mpg,omitempty"`
}

type RouteInfo struct {
	Start           string  `json:"start"`
	End             string  `json:"end"`
	DistanceMiles   float64 `json:"distanceMiles"`
	DurationHours   float64 `json:"durationHours"`
	EncodedPolyline string  `json:"encodedPolyline"`
}

type FuelInfo struct {
	TotalCost        float64           `json:"totalCost"`
	TotalGallons     float64           `json:"totalGallons"`
	AvgCostPerGallon float64           `json:"avgCostPerGallon"`
	Stops            []models.FuelStop `json:"stops"`
	NumStops         int               `json:"numStops"`
}

type PerformanceInfo struct {
	OptimizationMS  float64 `json:"optimizationMs"`
	TotalResponseMS int64   `json:"totalResponseMs"`
	StationCount    int     `json:"stationCount"`
}

type OptimizeResponse struct {
	APIResponse
	Success     bool            `json:"success"`
	CacheHit    bool            `json:"cacheHit"`
	Route       RouteInfo       `json:"route"`
	Fuel        FuelInfo        `json:"fuel"`
	Performance PerformanceInfo `json:"performance"`
	MapURL      string          `json:"mapUrl,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type StationsResponse struct {
	APIResponse
	Stations []models.StationDistance `json:"stations"`
}

type HealthResponse struct {
	APIResponse
	Status       string `json:"status"`
	StationCount int    `json:"stationCount"`
	IndexLoaded  bool   `json:"indexLoaded"`
	ORSReady     bool   `json:"orsReady"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewStationsResponse(stations []models.StationDistance) *StationsResponse {
	return &StationsResponse{
		APIResponse: APIResponse{ResponseType: "stations"},
		Stations:    stations,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// Response helpers for the Lambda entrypoint
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// Parameter parsing helpers
func ParseCoordinates(params map[string]string) (float64, float64, error) {
	latStr, hasLat := params["lat"]
	lonStr, hasLon := params["lon"]

	if !hasLat || !hasLon {
		return 0, 0, MissingCoordinatesError{}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, err
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, err
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, InvalidCoordinatesError{}
	}

	return lat, lon, nil
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}

type MissingCoordinatesError struct{}

func (e MissingCoordinatesError) Error() string {
	return "Missing lat/lon parameters"
}
