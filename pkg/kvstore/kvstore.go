package kvstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("key not found")
	ErrWrongType        = errors.New("operation against a key holding the wrong kind of value")
	ErrSubscriptionDone = errors.New("subscription closed")
)

// Store is the key-value and pub/sub surface the domain code relies on.
// Implementations must make Increment, IncrementWithExpiry and ListPush atomic.
type Store interface {
	SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error

	Increment(ctx context.Context, key string) (int64, error)
	// IncrementWithExpiry sets ttl when the increment creates the counter.
	IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// ListPush prepends values, newest first, and returns the new length.
	ListPush(ctx context.Context, key string, values ...[]byte) (int64, error)
	// ListTrim keeps the inclusive range [start, stop]; negative indexes count from the end.
	ListTrim(ctx context.Context, key string, start, stop int64) error
	ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	Publish(ctx context.Context, channel string, message []byte) error
	// Subscribe returns once the subscription is active.
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Subscription delivers messages published on one channel.
type Subscription interface {
	// Messages is closed when the subscription ends.
	Messages() <-chan []byte
	Close() error
}
