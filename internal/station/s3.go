package station

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fuelroute/fuelroute/internal/models"
)

// S3Client defines the interface for the S3 operations we need.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the geocoded CSV from an S3 object. Same format as
// FileSource; used where the feed is published to a bucket instead of
// shipped with the binary.
type S3Source struct {
	Client S3Client
	Bucket string
	Key    string
}

// NewS3Source builds a source against the default AWS configuration.
func NewS3Source(ctx context.Context, bucket, key string) (*S3Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Source{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Key:    key,
	}, nil
}

func (s *S3Source) Load(ctx context.Context) ([]models.Station, error) {
	if s.Bucket == "" {
		return nil, fmt.Errorf("empty bucket name")
	}

	result, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching station feed s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer func() {
		if closeErr := result.Body.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Error closing S3 object body")
		}
	}()

	return ParseCSV(result.Body)
}
