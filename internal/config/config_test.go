package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigWithDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://api.openrouteservice.org", cfg.ORSBaseURL)
	assert.Equal(t, "data/fuel_stations_geocoded.csv", cfg.StationsCSV)
	assert.Equal(t, "stations/fuel_stations_geocoded.csv", cfg.StationsS3Key)
	assert.Empty(t, cfg.StationsS3Bucket)
}

func TestWithEnvironment(t *testing.T) {
	cfg := New(WithEnvironment("development"))

	assert.Equal(t, "development", cfg.Environment)
}

func TestWithLogLevel(t *testing.T) {
	cfg := New(WithLogLevel("debug"))

	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestWithLogLevelInvalid(t *testing.T) {
	cfg := New(WithLogLevel("chatty"))

	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestWithHTTPTimeout(t *testing.T) {
	cfg := New(WithHTTPTimeout(30 * time.Second))

	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestWithORSAPIKey(t *testing.T) {
	cfg := New(WithORSAPIKey("test-key"))

	assert.Equal(t, "test-key", cfg.ORSAPIKey)
}

func TestInitializeLogging(t *testing.T) {
	cfg := New(WithEnvironment("local"), WithLogLevel("debug"))
	cfg.InitializeLogging()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("ORS_API_KEY", "env-key")
	t.Setenv("PORT", "9090")
	t.Setenv("ORS_BASE_URL", "http://localhost:8082")
	t.Setenv("STATIONS_CSV", "/tmp/stations.csv")
	t.Setenv("STATIONS_S3_BUCKET", "feeds")
	t.Setenv("STATIONS_S3_KEY", "latest.csv")

	cfg := LoadFromEnv()

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "env-key", cfg.ORSAPIKey)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:8082", cfg.ORSBaseURL)
	assert.Equal(t, "/tmp/stations.csv", cfg.StationsCSV)
	assert.Equal(t, "feeds", cfg.StationsS3Bucket)
	assert.Equal(t, "latest.csv", cfg.StationsS3Key)
}

func TestGetEnvOrDefault(t *testing.T) {
	err := os.Setenv("TEST_ENV_VAR", "value")
	if err != nil {
		return
	}
	defer func() {
		err := os.Unsetenv("TEST_ENV_VAR")
		if err != nil {
			return
		}
	}()

	assert.Equal(t, "value", getEnvOrDefault("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", getEnvOrDefault("NON_EXISTENT_ENV_VAR", "default"))
}

func TestGetDurationEnvOrDefault(t *testing.T) {
	err := os.Setenv("TEST_DURATION_ENV_VAR", "2s")
	if err != nil {
		return
	}
	defer func() {
		err := os.Unsetenv("TEST_DURATION_ENV_VAR")
		if err != nil {
			return
		}
	}()

	assert.Equal(t, 2*time.Second, getDurationEnvOrDefault("TEST_DURATION_ENV_VAR", 1*time.Second))
	assert.Equal(t, 1*time.Second, getDurationEnvOrDefault("NON_EXISTENT_DURATION_ENV_VAR", 1*time.Second))
}
