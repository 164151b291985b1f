// Package kvstore is a small key-value and pub/sub abstraction over Redis with
// an in-memory twin for tests.
//
// The domain code needs a handful of primitives: cached values with a TTL,
// atomic counters for rate limits, bounded lists for per-user notification feeds
// and channel publish/subscribe for realtime delivery:
//
//	kv := kvstore.NewRedis(redisClient)
//
//	// bounded feed, newest first
//	kv.ListPush(ctx, "notifications:"+userID, payload)
//	kv.ListTrim(ctx, "notifications:"+userID, 0, 99)
//	kv.Publish(ctx, "notifications:"+userID, payload)
//
//	sub, err := kv.Subscribe(ctx, "notifications:"+userID)
//	defer sub.Close()
//	for msg := range sub.Messages() {
//		...
//	}
//
// Subscribers that fall more than a small buffer behind lose messages, like
// Redis pub/sub clients that cannot keep up.
package kvstore
