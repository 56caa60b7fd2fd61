package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/fuelroute/fuelroute/internal/api"
	"github.com/fuelroute/fuelroute/internal/cache"
	"github.com/fuelroute/fuelroute/internal/config"
	"github.com/fuelroute/fuelroute/internal/metrics"
	"github.com/fuelroute/fuelroute/internal/models"
	"github.com/fuelroute/fuelroute/internal/routing"
	"github.com/fuelroute/fuelroute/internal/spatial"
	"github.com/fuelroute/fuelroute/internal/station"
	"github.com/rs/zerolog/log"
)

var (
	handler   *api.Handler
	initErr   error
	setupOnce sync.Once
)

// setup builds the long-lived dependencies once per Lambda container.
// The station feed comes from S3 and the shared plan cache from DynamoDB
// so concurrent containers see each other's results.
func setup(ctx context.Context) error {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()
		provider := metrics.Init()

		source, err := station.NewS3Source(ctx, cfg.StationsS3Bucket, cfg.StationsS3Key)
		if err != nil {
			initErr = err
			return
		}
		stations, err := source.Load(ctx)
		if err != nil {
			initErr = err
			return
		}
		index := spatial.Build(stations)
		log.Info().Int("stations", index.Stats().StationCount).Msg("station index built")

		cacheCfg := config.GetCacheConfig()
		var remotes []cache.PlanCache
		if cacheCfg.EnableDynamoCache {
			dynamoClient, err := cache.NewDynamoClient(ctx)
			if err != nil {
				initErr = err
				return
			}
			remotes = append(remotes, cache.NewDynamoPlanCache(dynamoClient, cacheCfg.GetDynamoPlanTTL()))
		}
		planCache, err := cache.NewService(cacheCfg, remotes...)
		if err != nil {
			initErr = err
			return
		}

		orsClient, err := routing.NewClient(routing.Options{
			APIKey:  cfg.ORSAPIKey,
			BaseURL: cfg.ORSBaseURL,
			Timeout: cfg.HTTPTimeout,
		})
		if err != nil {
			initErr = err
			return
		}

		handler = api.NewHandler(index, orsClient, planCache, provider)
	})
	return initErr
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if err := setup(ctx); err != nil {
		log.Error().Err(err).Msg("initialization failed")
		return api.Error("Service unavailable", http.StatusServiceUnavailable)
	}

	switch request.Path {
	case "/api/optimize":
		return handleOptimize(ctx, request)
	case "/api/stations/near":
		return handleStationsNear(request)
	case "/health":
		stats := handler.Index.Stats()
		if !stats.IsLoaded {
			return api.Error("unhealthy", http.StatusServiceUnavailable)
		}
		return api.Success(&api.HealthResponse{
			APIResponse:  api.APIResponse{ResponseType: "health"},
			Status:       "healthy",
			StationCount: stats.StationCount,
			IndexLoaded:  true,
			ORSReady:     true,
		})
	default:
		return api.Error("Not found", http.StatusNotFound)
	}
}

func handleOptimize(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod != http.MethodPost {
		return api.Error("Method not allowed", http.StatusMethodNotAllowed)
	}

	var req api.OptimizeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return api.Error("invalid request body", http.StatusBadRequest)
	}

	resp, status := handler.OptimizePlan(ctx, &req)
	if status != http.StatusOK {
		body, err := json.Marshal(resp)
		if err != nil {
			return api.Error("Internal Server Error", http.StatusInternalServerError)
		}
		return events.APIGatewayProxyResponse{
			StatusCode: status,
			Headers: map[string]string{
				"Content-Type":                "application/json",
				"Access-Control-Allow-Origin": "*",
			},
			Body: string(body),
		}, nil
	}
	return api.Success(resp)
}

func handleStationsNear(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	lat, lon, err := api.ParseCoordinates(request.QueryStringParameters)
	if err != nil {
		var invalid api.InvalidCoordinatesError
		var missing api.MissingCoordinatesError
		if errors.As(err, &invalid) || errors.As(err, &missing) {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		return api.Error("Invalid parameters", http.StatusBadRequest)
	}

	stations := handler.Index.Nearest(models.Point{Lat: lat, Lon: lon}, 5)
	return api.Success(api.NewStationsResponse(stations))
}

func main() {
	lambda.Start(handleRequest)
}
