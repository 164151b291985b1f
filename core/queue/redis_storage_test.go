package queue_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/queue"
)

// Runs against a real server only when REDIS_URL is set.
func TestRedisStorage(t *testing.T) {
	t.Parallel()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	runStorageSuite(t, func(t *testing.T) queue.Storage {
		s, err := queue.NewRedisStorage(client, queue.WithRedisPrefix("fitqueue-test-"+uuid.NewString()))
		require.NoError(t, err)
		return s
	})
}

func TestNewRedisStorage_NilClient(t *testing.T) {
	t.Parallel()

	s, err := queue.NewRedisStorage(nil)
	assert.ErrorIs(t, err, queue.ErrStorageNil)
	assert.Nil(t, s)
}
