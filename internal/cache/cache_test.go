package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fuelroute/fuelroute/internal/config"
	"github.com/fuelroute/fuelroute/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTier struct {
	records map[string]*PlanRecord
	getErr  error
	saveErr error
	gets    int
	saves   int
}

func newFakeTier() *fakeTier {
	return &fakeTier{records: map[string]*PlanRecord{}}
}

func (f *fakeTier) GetPlan(_ context.Context, key string) (*PlanRecord, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.records[key], nil
}

func (f *fakeTier) SavePlan(_ context.Context, record PlanRecord) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[record.CacheKey] = &record
	return nil
}

func testRecord(key string) PlanRecord {
	return PlanRecord{
		CacheKey:      key,
		Start:         "Los Angeles, CA",
		End:           "San Francisco, CA",
		MaxRangeMiles: 500,
		MPG:           10,
		DistanceMiles: 382.1,
		Result: models.OptimizationResult{
			Stops:         []models.FuelStop{},
			TotalDistance: 382.1,
		},
	}
}

func lruConfig() *config.CacheConfig {
	return &config.CacheConfig{
		EnableLRUCache:    true,
		PlanLRUSize:       16,
		PlanLRUTTLMinutes: 60,
	}
}

func TestKeyDeterministic(t *testing.T) {
	t.Parallel()

	a := Key("Los Angeles, CA", "San Francisco, CA", 500, 10)
	b := Key("Los Angeles, CA", "San Francisco, CA", 500, 10)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, Key("Los Angeles, CA", "San Francisco, CA", 400, 10))
	assert.NotEqual(t, a, Key("Los Angeles, CA", "San Francisco, CA", 500, 8))
	assert.NotEqual(t, a, Key("San Francisco, CA", "Los Angeles, CA", 500, 10))
}

func TestPlanRecordValidate(t *testing.T) {
	t.Parallel()

	record := testRecord("abc")
	require.NoError(t, record.Validate())

	missingKey := record
	missingKey.CacheKey = ""
	assert.Error(t, missingKey.Validate())

	missingStart := record
	missingStart.Start = ""
	assert.Error(t, missingStart.Validate())
}

func TestServiceLRUOnly(t *testing.T) {
	t.Parallel()

	svc, err := NewService(lruConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Nil(t, svc.GetPlan(ctx, "absent"))

	record := testRecord("k1")
	require.NoError(t, svc.SavePlan(ctx, record))

	got := svc.GetPlan(ctx, "k1")
	require.NotNil(t, got)
	assert.Equal(t, record.Start, got.Start)
	assert.NotZero(t, got.LastUpdated)

	stats := svc.Stats()
	assert.Equal(t, uint64(1), stats["lru_hits"])
	assert.Equal(t, uint64(1), stats["lru_misses"])
}

func TestServiceRemoteHitBackfillsLRU(t *testing.T) {
	t.Parallel()

	remote := newFakeTier()
	record := testRecord("k2")
	remote.records["k2"] = &record

	svc, err := NewService(lruConfig(), remote)
	require.NoError(t, err)
	ctx := context.Background()

	got := svc.GetPlan(ctx, "k2")
	require.NotNil(t, got)
	assert.Equal(t, 1, remote.gets)

	// Second read is served by the LRU, not the remote tier.
	got = svc.GetPlan(ctx, "k2")
	require.NotNil(t, got)
	assert.Equal(t, 1, remote.gets)

	stats := svc.Stats()
	assert.Equal(t, uint64(1), stats["remote_hits"])
	assert.Equal(t, uint64(1), stats["lru_hits"])
}

func TestServiceTierErrorIsMiss(t *testing.T) {
	t.Parallel()

	broken := newFakeTier()
	broken.getErr = errors.New("connection refused")
	healthy := newFakeTier()
	record := testRecord("k3")
	healthy.records["k3"] = &record

	svc, err := NewService(lruConfig(), broken, healthy)
	require.NoError(t, err)

	got := svc.GetPlan(context.Background(), "k3")
	require.NotNil(t, got)
	assert.Equal(t, "Los Angeles, CA", got.Start)
}

func TestServiceSaveWritesAllTiers(t *testing.T) {
	t.Parallel()

	first := newFakeTier()
	second := newFakeTier()
	svc, err := NewService(lruConfig(), first, second)
	require.NoError(t, err)

	require.NoError(t, svc.SavePlan(context.Background(), testRecord("k4")))
	assert.Equal(t, 1, first.saves)
	assert.Equal(t, 1, second.saves)
	assert.NotNil(t, first.records["k4"])
}

func TestServiceSaveRemoteFailureNotFatal(t *testing.T) {
	t.Parallel()

	broken := newFakeTier()
	broken.saveErr = errors.New("write timeout")
	svc, err := NewService(lruConfig(), broken)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.SavePlan(ctx, testRecord("k5")))

	// The LRU still has the record.
	assert.NotNil(t, svc.GetPlan(ctx, "k5"))
}

func TestServiceRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	svc, err := NewService(lruConfig())
	require.NoError(t, err)

	err = svc.SavePlan(context.Background(), PlanRecord{CacheKey: ""})
	require.Error(t, err)
}

func TestServiceDisabledLRU(t *testing.T) {
	t.Parallel()

	remote := newFakeTier()
	svc, err := NewService(&config.CacheConfig{EnableLRUCache: false}, remote)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.SavePlan(ctx, testRecord("k6")))
	require.NotNil(t, svc.GetPlan(ctx, "k6"))

	// Every read goes remote when the LRU is off.
	require.NotNil(t, svc.GetPlan(ctx, "k6"))
	assert.Equal(t, 2, remote.gets)
}

func TestServiceSaveSetsLastUpdated(t *testing.T) {
	t.Parallel()

	remote := newFakeTier()
	svc, err := NewService(lruConfig(), remote)
	require.NoError(t, err)

	before := time.Now().Unix()
	require.NoError(t, svc.SavePlan(context.Background(), testRecord("k7")))
	saved := remote.records["k7"]
	require.NotNil(t, saved)
	assert.GreaterOrEqual(t, saved.LastUpdated, before)
}
