package cache

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"
)

// NewDynamoClient creates a DynamoDB client based on environment.
// DYNAMODB_ENDPOINT switches to a local instance with dummy
// credentials; otherwise the default AWS chain applies.
func NewDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	if endpoint := os.Getenv("DYNAMODB_ENDPOINT"); endpoint != "" {
		log.Debug().Str("endpoint", endpoint).Msg("Using local DynamoDB endpoint")

		cfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion("local"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("local", "local", ""),
			),
			config.WithClientLogMode(aws.LogRetries),
		)
		if err != nil {
			return nil, err
		}

		return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}
