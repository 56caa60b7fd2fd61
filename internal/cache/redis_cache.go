package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPlanCache is the shared tier: JSON records in Redis with a
// server-side TTL, so every instance behind a load balancer sees the
// same plans.
type RedisPlanCache struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisOption func(*redis.Options)

func WithPoolSize(n int) RedisOption {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func NewRedisPlanCache(ctx context.Context, addr string, ttl time.Duration, opts ...RedisOption) (*RedisPlanCache, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisPlanCache{rdb: rdb, ttl: ttl}, nil
}

func (c *RedisPlanCache) GetPlan(ctx context.Context, key string) (*PlanRecord, error) {
	raw, err := c.rdb.Get(ctx, planKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %q: %w", key, err)
	}

	var record PlanRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding cached plan %q: %w", key, err)
	}
	return &record, nil
}

func (c *RedisPlanCache) SavePlan(ctx context.Context, record PlanRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding plan %q: %w", record.CacheKey, err)
	}
	if err := c.rdb.Set(ctx, planKey(record.CacheKey), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %q: %w", record.CacheKey, err)
	}
	return nil
}

func (c *RedisPlanCache) Close() error {
	return c.rdb.Close()
}

func planKey(key string) string {
	return "plan:" + key
}
