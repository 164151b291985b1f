// Package redis provides Redis client initialization and health checking for the
// job queues and the key-value store.
//
// # Key Features
//
//   - Connect: creates a client, retries the first ping with exponential backoff
//   - Healthcheck: returns a probe for readiness endpoints
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		PoolSize       int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
//	}
//
// Both redis:// and rediss:// (TLS) URLs are accepted; other schemes are rejected.
//
// # Usage Example
//
//	client, err := redis.Connect(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	storage, err := queue.NewRedisStorage(client)
//	kv := kvstore.NewRedis(client)
//
//	health.Add("redis", redis.Healthcheck(client))
//
// # Error Handling
//
//   - ErrFailedToParseRedisConnString: the URL is malformed or uses another scheme
//   - ErrRedisNotReady: no successful ping within the retry budget
//   - ErrEmptyConnectionURL: no URL configured
//   - ErrHealthcheckFailed: the health probe ping failed
//
// Errors are joined with the underlying go-redis error, so errors.Is works on both.
package redis
