package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	// LRU cache settings
	PlanLRUSize       int
	PlanLRUTTLMinutes int

	// Redis cache settings
	RedisAddr           string
	RedisPlanTTLMinutes int

	// DynamoDB cache settings
	PlanDynamoTTLHours int

	// General settings
	EnableLRUCache    bool
	EnableRedisCache  bool
	EnableDynamoCache bool
}

const (
	// Default values
	defaultPlanLRUSize         = 1000
	defaultPlanLRUTTLMinutes   = 60
	defaultRedisPlanTTLMinutes = 60
	defaultPlanDynamoTTLHours  = 24
)

// GetCacheConfig returns the cache configuration from environment variables or defaults
func GetCacheConfig() *CacheConfig {
	config := &CacheConfig{
		// Set defaults
		PlanLRUSize:         getEnvInt("CACHE_PLAN_LRU_SIZE", defaultPlanLRUSize),
		PlanLRUTTLMinutes:   getEnvInt("CACHE_PLAN_LRU_TTL_MINUTES", defaultPlanLRUTTLMinutes),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPlanTTLMinutes: getEnvInt("CACHE_REDIS_PLAN_TTL_MINUTES", defaultRedisPlanTTLMinutes),
		PlanDynamoTTLHours:  getEnvInt("CACHE_DYNAMO_TTL_HOURS", defaultPlanDynamoTTLHours),
		EnableLRUCache:      getEnvBool("CACHE_ENABLE_LRU", true),
		EnableRedisCache:    getEnvBool("CACHE_ENABLE_REDIS", os.Getenv("REDIS_ADDR") != ""),
		EnableDynamoCache:   getEnvBool("CACHE_ENABLE_DYNAMO", false),
	}

	log.Debug().
		Int("PlanLRUSize", config.PlanLRUSize).
		Int("PlanLRUTTLMinutes", config.PlanLRUTTLMinutes).
		Str("RedisAddr", config.RedisAddr).
		Int("RedisPlanTTLMinutes", config.RedisPlanTTLMinutes).
		Int("PlanDynamoTTLHours", config.PlanDynamoTTLHours).
		Bool("EnableLRUCache", config.EnableLRUCache).
		Bool("EnableRedisCache", config.EnableRedisCache).
		Bool("EnableDynamoCache", config.EnableDynamoCache).
		Msg("Cache configuration loaded")

	return config
}

// Helper methods for the CacheConfig struct
func (c *CacheConfig) GetPlanLRUTTL() time.Duration {
	return time.Duration(c.PlanLRUTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetRedisPlanTTL() time.Duration {
	return time.Duration(c.RedisPlanTTLMinutes) * time.Minute
}

func (c *CacheConfig) GetDynamoPlanTTL() time.Duration {
	return time.Duration(c.PlanDynamoTTLHours) * time.Hour
}

// Helper functions to get environment variables with defaults
func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, exists := os.LookupEnv(key); exists {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
