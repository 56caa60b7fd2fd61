package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

const planTableName = "route-plan-cache"

// DynamoDBClient defines the interface for the DynamoDB operations the
// plan cache needs; satisfied by *dynamodb.Client and by test mocks.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoPlanCache is the persistent tier for serverless deployments,
// where no long-lived process exists to keep an LRU warm. Records carry
// a TTL attribute so DynamoDB expires them server-side.
type DynamoPlanCache struct {
	client DynamoDBClient
	ttl    time.Duration
}

func NewDynamoPlanCache(client DynamoDBClient, ttl time.Duration) *DynamoPlanCache {
	return &DynamoPlanCache{client: client, ttl: ttl}
}

func (c *DynamoPlanCache) GetPlan(ctx context.Context, key string) (*PlanRecord, error) {
	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(planTableName),
		Key: map[string]types.AttributeValue{
			"cacheKey": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting plan from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var record PlanRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling plan record: %w", err)
	}

	// TTL expiry in DynamoDB is lazy; treat stale rows as misses.
	if time.Now().Unix() > record.TTL {
		log.Debug().Str("key", key).Msg("Cached plan expired")
		return nil, nil
	}

	return &record, nil
}

func (c *DynamoPlanCache) SavePlan(ctx context.Context, record PlanRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid plan record: %w", err)
	}

	now := time.Now()
	record.LastUpdated = now.Unix()
	record.TTL = now.Add(c.ttl).Unix()

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling plan record: %w", err)
	}

	if _, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(planTableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("putting plan in DynamoDB: %w", err)
	}

	log.Debug().Str("key", record.CacheKey).Msg("Saved plan to DynamoDB cache")
	return nil
}
