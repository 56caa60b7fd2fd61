package station

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	body       string
	err        error
	lastBucket string
	lastKey    string
}

func (m *mockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.lastBucket = *params.Bucket
	m.lastKey = *params.Key
	if m.err != nil {
		return nil, m.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(m.body))}, nil
}

func TestS3SourceLoad(t *testing.T) {
	t.Parallel()

	mock := &mockS3Client{
		body: feedHeader + "1,STOP,ADDR,City,ST,1,3.50,40.0,-100.0\n",
	}
	source := &S3Source{Client: mock, Bucket: "feeds", Key: "stations/latest.csv"}

	stations, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stations, 1)
	assert.Equal(t, "feeds", mock.lastBucket)
	assert.Equal(t, "stations/latest.csv", mock.lastKey)
}

func TestS3SourceLoadErrors(t *testing.T) {
	t.Parallel()

	mock := &mockS3Client{err: errors.New("access denied")}
	source := &S3Source{Client: mock, Bucket: "feeds", Key: "stations/latest.csv"}

	_, err := source.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3SourceEmptyBucket(t *testing.T) {
	t.Parallel()

	source := &S3Source{Client: &mockS3Client{}, Bucket: "", Key: "x"}
	_, err := source.Load(context.Background())
	require.Error(t, err)
}
