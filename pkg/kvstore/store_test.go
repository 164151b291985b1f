package kvstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
)

func runStoreSuite(t *testing.T, store kvstore.Store) {
	t.Helper()
	ctx := context.Background()
	key := func() string { return "kvtest:" + uuid.NewString() }

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		k := key()
		_, err := store.Get(ctx, k)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)

		require.NoError(t, store.SetWithExpiry(ctx, k, []byte("v1"), time.Minute))
		v, err := store.Get(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), v)

		require.NoError(t, store.Delete(ctx, k))
		_, err = store.Get(ctx, k)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("increment", func(t *testing.T) {
		t.Parallel()
		k := key()
		for want := int64(1); want <= 3; want++ {
			n, err := store.IncrementWithExpiry(ctx, k, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
		n, err := store.Increment(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("bounded list", func(t *testing.T) {
		t.Parallel()
		k := key()
		for i := range 5 {
			_, err := store.ListPush(ctx, k, []byte{byte('a' + i)})
			require.NoError(t, err)
		}
		require.NoError(t, store.ListTrim(ctx, k, 0, 2))

		items, err := store.ListRange(ctx, k, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("e"), []byte("d"), []byte("c")}, items)

		n, err := store.ListPush(ctx, k, []byte("x"), []byte("y"))
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)

		items, err = store.ListRange(ctx, k, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("y"), []byte("x")}, items)

		empty, err := store.ListRange(ctx, key(), 0, -1)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("publish reaches subscribers", func(t *testing.T) {
		t.Parallel()
		channel := key()

		sub, err := store.Subscribe(ctx, channel)
		require.NoError(t, err)
		defer sub.Close()

		require.NoError(t, store.Publish(ctx, channel, []byte("hello")))

		select {
		case msg := <-sub.Messages():
			assert.Equal(t, []byte("hello"), msg)
		case <-time.After(2 * time.Second):
			t.Fatal("message not delivered")
		}

		require.NoError(t, sub.Close())
		require.Eventually(t, func() bool {
			_, open := <-sub.Messages()
			return !open
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, kvstore.NewMemory())
}

func TestRedis(t *testing.T) {
	t.Parallel()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	runStoreSuite(t, kvstore.NewRedis(client))
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	store := kvstore.NewMemory(kvstore.WithClock(func() time.Time { return now }))

	require.NoError(t, store.SetWithExpiry(ctx, "cache", []byte("x"), time.Hour))
	n, err := store.IncrementWithExpiry(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	now = now.Add(2 * time.Minute)
	n, err = store.IncrementWithExpiry(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired counter restarts")

	_, err = store.Get(ctx, "cache")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, "cache")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestMemory_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kvstore.NewMemory()
	_, err := store.ListPush(ctx, "list", []byte("a"))
	require.NoError(t, err)

	_, err = store.Get(ctx, "list")
	assert.ErrorIs(t, err, kvstore.ErrWrongType)
	_, err = store.Increment(ctx, "list")
	assert.ErrorIs(t, err, kvstore.ErrWrongType)
}
