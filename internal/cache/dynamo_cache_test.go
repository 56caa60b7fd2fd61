package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDynamoClient struct {
	items  map[string]map[string]types.AttributeValue
	getErr error
	putErr error
}

func newMockDynamoClient() *mockDynamoClient {
	return &mockDynamoClient{items: map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamoClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	key := params.Key["cacheKey"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.items[key]}, nil
}

func (m *mockDynamoClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	key := params.Item["cacheKey"].(*types.AttributeValueMemberS).Value
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoPlanCacheRoundTrip(t *testing.T) {
	t.Parallel()

	mock := newMockDynamoClient()
	c := NewDynamoPlanCache(mock, time.Hour)
	ctx := context.Background()

	record := testRecord("d1")
	require.NoError(t, c.SavePlan(ctx, record))

	got, err := c.GetPlan(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.Start, got.Start)
	assert.Equal(t, record.DistanceMiles, got.DistanceMiles)
	assert.NotZero(t, got.LastUpdated)
	assert.Greater(t, got.TTL, time.Now().Unix())
}

func TestDynamoPlanCacheMiss(t *testing.T) {
	t.Parallel()

	c := NewDynamoPlanCache(newMockDynamoClient(), time.Hour)

	got, err := c.GetPlan(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDynamoPlanCacheStaleRecordIsMiss(t *testing.T) {
	t.Parallel()

	mock := newMockDynamoClient()
	c := NewDynamoPlanCache(mock, time.Hour)
	ctx := context.Background()

	record := testRecord("d2")
	record.TTL = time.Now().Add(-time.Hour).Unix()
	item, err := attributevalue.MarshalMap(record)
	require.NoError(t, err)
	mock.items["d2"] = item

	got, err := c.GetPlan(ctx, "d2")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDynamoPlanCacheGetError(t *testing.T) {
	t.Parallel()

	mock := newMockDynamoClient()
	mock.getErr = errors.New("throttled")
	c := NewDynamoPlanCache(mock, time.Hour)

	_, err := c.GetPlan(context.Background(), "d3")
	require.Error(t, err)
}

func TestDynamoPlanCacheSaveValidates(t *testing.T) {
	t.Parallel()

	c := NewDynamoPlanCache(newMockDynamoClient(), time.Hour)
	err := c.SavePlan(context.Background(), PlanRecord{})
	require.Error(t, err)
}

func TestDynamoPlanCacheSaveError(t *testing.T) {
	t.Parallel()

	mock := newMockDynamoClient()
	mock.putErr = errors.New("table not found")
	c := NewDynamoPlanCache(mock, time.Hour)

	err := c.SavePlan(context.Background(), testRecord("d4"))
	require.Error(t, err)
}
