package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fuelroute/fuelroute/internal/api"
	"github.com/fuelroute/fuelroute/internal/cache"
	"github.com/fuelroute/fuelroute/internal/config"
	"github.com/fuelroute/fuelroute/internal/metrics"
	"github.com/fuelroute/fuelroute/internal/routing"
	"github.com/fuelroute/fuelroute/internal/spatial"
	"github.com/fuelroute/fuelroute/internal/station"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := metrics.Init()

	index, err := loadIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("loading station index: %w", err)
	}
	stats := index.Stats()
	provider.StationCount.Set(float64(stats.StationCount))
	log.Info().
		Int("stations", stats.StationCount).
		Int64("memoryBytes", stats.MemoryBytes).
		Msg("station index built")

	cacheSvc, closeCaches, err := buildCacheService(ctx)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer closeCaches()

	routingClient, err := routing.NewClient(routing.Options{
		APIKey:  cfg.ORSAPIKey,
		BaseURL: cfg.ORSBaseURL,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return fmt.Errorf("initializing routing client: %w", err)
	}

	handler := api.NewHandler(index, routingClient, cacheSvc, provider)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadIndex reads the station feed and builds the spatial index. An S3
// bucket in the environment takes precedence over the local CSV path.
func loadIndex(ctx context.Context, cfg *config.Config) (*spatial.Index, error) {
	var source station.Source
	if cfg.StationsS3Bucket != "" {
		s3Source, err := station.NewS3Source(ctx, cfg.StationsS3Bucket, cfg.StationsS3Key)
		if err != nil {
			return nil, err
		}
		source = s3Source
		log.Info().
			Str("bucket", cfg.StationsS3Bucket).
			Str("key", cfg.StationsS3Key).
			Msg("loading stations from S3")
	} else {
		source = &station.FileSource{Path: cfg.StationsCSV}
		log.Info().Str("path", cfg.StationsCSV).Msg("loading stations from file")
	}

	stations, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return spatial.Build(stations), nil
}

// buildCacheService assembles the cache tiers enabled by the environment.
// Remote tier failures at startup are fatal so misconfiguration surfaces
// immediately rather than as silent cache misses.
func buildCacheService(ctx context.Context) (*cache.Service, func(), error) {
	cacheCfg := config.GetCacheConfig()

	var remotes []cache.PlanCache
	var closers []func()

	if cacheCfg.EnableRedisCache {
		redisCache, err := cache.NewRedisPlanCache(ctx, cacheCfg.RedisAddr, cacheCfg.GetRedisPlanTTL())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cacheCfg.RedisAddr, err)
		}
		remotes = append(remotes, redisCache)
		closers = append(closers, func() {
			if err := redisCache.Close(); err != nil {
				log.Warn().Err(err).Msg("closing redis client")
			}
		})
		log.Info().Str("addr", cacheCfg.RedisAddr).Msg("redis plan cache enabled")
	}

	if cacheCfg.EnableDynamoCache {
		dynamoClient, err := cache.NewDynamoClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("creating dynamodb client: %w", err)
		}
		remotes = append(remotes, cache.NewDynamoPlanCache(dynamoClient, cacheCfg.GetDynamoPlanTTL()))
		log.Info().Msg("dynamodb plan cache enabled")
	}

	svc, err := cache.NewService(cacheCfg, remotes...)
	if err != nil {
		return nil, nil, err
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return svc, closeAll, nil
}
