package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDynamoClientLocalEndpoint(t *testing.T) {
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("AWS_REGION", "local")

	client, err := NewDynamoClient(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestNewDynamoClientDefaultChain(t *testing.T) {
	t.Setenv("DYNAMODB_ENDPOINT", "")
	t.Setenv("AWS_REGION", "us-east-1")

	client, err := NewDynamoClient(context.Background())
	require.NoError(t, err)
	require.NotNil(t, client)
}
