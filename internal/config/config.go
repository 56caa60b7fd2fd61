package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	MaxRetries  int
	Port        string

	// OpenRouteService
	ORSBaseURL string
	ORSAPIKey  string

	// Station feed: S3 wins when a bucket is configured, otherwise the
	// local CSV path is used.
	StationsCSV      string
	StationsS3Bucket string
	StationsS3Key    string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithORSAPIKey allows setting the OpenRouteService API key
func WithORSAPIKey(key string) Option {
	return func(c *Config) {
		c.ORSAPIKey = key
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:   "production",
		LogLevel:      zerolog.InfoLevel,
		HTTPTimeout:   15 * time.Second,
		MaxRetries:    3,
		Port:          "8080",
		ORSBaseURL:    "https://api.openrouteservice.org",
		StationsCSV:   "data/fuel_stations_geocoded.csv",
		StationsS3Key: "stations/fuel_stations_geocoded.csv",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 15*time.Second)),
		WithORSAPIKey(os.Getenv("ORS_API_KEY")),
	)

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.ORSBaseURL = getEnvOrDefault("ORS_BASE_URL", cfg.ORSBaseURL)
	cfg.StationsCSV = getEnvOrDefault("STATIONS_CSV", cfg.StationsCSV)
	cfg.StationsS3Bucket = os.Getenv("STATIONS_S3_BUCKET")
	cfg.StationsS3Key = getEnvOrDefault("STATIONS_S3_KEY", cfg.StationsS3Key)

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
