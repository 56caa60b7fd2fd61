package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruEntry wraps the cached record with its expiry.
type lruEntry struct {
	Record    PlanRecord
	ExpiresAt time.Time
}

// PlanLRU is the in-process tier: a size-bounded LRU with per-entry TTL.
type PlanLRU struct {
	lru *lru.Cache[string, *lruEntry]
	ttl time.Duration
}

func NewPlanLRU(size int, ttl time.Duration) (*PlanLRU, error) {
	c, err := lru.New[string, *lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &PlanLRU{lru: c, ttl: ttl}, nil
}

// Get returns the record for key, or nil when absent or expired.
// Expired entries are evicted on read.
func (c *PlanLRU) Get(key string) *PlanRecord {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(entry.ExpiresAt) {
		c.lru.Remove(key)
		return nil
	}
	record := entry.Record
	return &record
}

func (c *PlanLRU) Add(record PlanRecord) {
	c.lru.Add(record.CacheKey, &lruEntry{
		Record:    record,
		ExpiresAt: time.Now().Add(c.ttl),
	})
}

// Purge removes all entries.
func (c *PlanLRU) Purge() {
	c.lru.Purge()
}
