// Package cache stores finished route plans so repeat requests skip the
// external routing call and the optimizer entirely. Tiers: an in-process
// LRU in front of optional Redis and DynamoDB backends; misses fall
// through, remote hits back-fill the LRU.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fuelroute/fuelroute/internal/config"
	"github.com/fuelroute/fuelroute/internal/models"
)

// PlanRecord is a cached optimization response: the plan itself plus the
// route summary the API layer needs to rebuild its response.
type PlanRecord struct {
	CacheKey        string                    `json:"cacheKey" dynamodbav:"cacheKey"`
	Start           string                    `json:"start" dynamodbav:"start"`
	End             string                    `json:"end" dynamodbav:"end"`
	MaxRangeMiles   float64                   `json:"maxRangeMiles" dynamodbav:"maxRangeMiles"`
	MPG             float64                   `json:"mpg" dynamodbav:"mpg"`
	DistanceMiles   float64                   `json:"distanceMiles" dynamodbav:"distanceMiles"`
	DurationHours   float64                   `json:"durationHours" dynamodbav:"durationHours"`
	EncodedPolyline string                    `json:"encodedPolyline" dynamodbav:"encodedPolyline"`
	Result          models.OptimizationResult `json:"result" dynamodbav:"result"`
	LastUpdated     int64                     `json:"lastUpdated" dynamodbav:"lastUpdated"`
	TTL             int64                     `json:"ttl" dynamodbav:"ttl"`
}

// Validate checks the fields a record must carry before being cached.
func (r *PlanRecord) Validate() error {
	if r.CacheKey == "" {
		return fmt.Errorf("cache key is required")
	}
	if r.Start == "" || r.End == "" {
		return fmt.Errorf("start and end are required")
	}
	return nil
}

// Key derives the cache key from the request parameters. Two requests
// share a plan iff start, end, range and mpg all match.
func Key(start, end string, maxRange, mpg float64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("route:%s:%s:%g:%g", start, end, maxRange, mpg)))
	return hex.EncodeToString(sum[:])
}

// PlanCache is one storage tier. A nil record with nil error is a miss.
type PlanCache interface {
	GetPlan(ctx context.Context, key string) (*PlanRecord, error)
	SavePlan(ctx context.Context, record PlanRecord) error
}

// Service front-ends the configured tiers.
type Service struct {
	lru    *PlanLRU
	remote []PlanCache

	lruHits      atomic.Uint64
	lruMisses    atomic.Uint64
	remoteHits   atomic.Uint64
	remoteMisses atomic.Uint64
}

// NewService wires the tiers enabled in cfg. remote tiers are consulted
// in the order given.
func NewService(cfg *config.CacheConfig, remote ...PlanCache) (*Service, error) {
	s := &Service{remote: remote}

	if cfg.EnableLRUCache {
		l, err := NewPlanLRU(cfg.PlanLRUSize, cfg.GetPlanLRUTTL())
		if err != nil {
			return nil, fmt.Errorf("creating LRU cache: %w", err)
		}
		s.lru = l
	}

	return s, nil
}

// GetPlan returns the cached plan for key, or nil on a full miss. Tier
// errors are logged and treated as misses; the cache must never fail a
// request that could be served by recomputation.
func (s *Service) GetPlan(ctx context.Context, key string) *PlanRecord {
	if s.lru != nil {
		if record := s.lru.Get(key); record != nil {
			s.lruHits.Add(1)
			return record
		}
		s.lruMisses.Add(1)
	}

	for _, tier := range s.remote {
		record, err := tier.GetPlan(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Plan cache tier read failed")
			continue
		}
		if record == nil {
			s.remoteMisses.Add(1)
			continue
		}
		s.remoteHits.Add(1)
		if s.lru != nil {
			s.lru.Add(*record)
		}
		return record
	}

	return nil
}

// SavePlan writes the record to every enabled tier. Remote write
// failures are logged, not propagated: losing a cache write costs a
// recomputation later, nothing more.
func (s *Service) SavePlan(ctx context.Context, record PlanRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid plan record: %w", err)
	}

	now := time.Now().Unix()
	record.LastUpdated = now

	if s.lru != nil {
		s.lru.Add(record)
	}
	for _, tier := range s.remote {
		if err := tier.SavePlan(ctx, record); err != nil {
			log.Warn().Err(err).Str("key", record.CacheKey).Msg("Plan cache tier write failed")
		}
	}
	return nil
}

// Stats returns hit/miss counts per tier group.
func (s *Service) Stats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":      s.lruHits.Load(),
		"lru_misses":    s.lruMisses.Load(),
		"remote_hits":   s.remoteHits.Load(),
		"remote_misses": s.remoteMisses.Load(),
	}
}
