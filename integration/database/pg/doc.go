// Package pg provides PostgreSQL pool management, goose migrations and health
// checking on top of pgx.
//
// # Key Features
//
//   - Connect: creates a pgxpool.Pool, retrying the first ping with exponential backoff
//   - Migrate: applies goose migrations from an fs.FS (usually an embed.FS)
//   - Healthcheck: returns a probe for readiness endpoints
//   - InTx, WithTx and TxFromContext: carry a transaction through a context
//   - Error classification helpers for common SQLSTATE codes
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL"` // empty keeps the in-memory store
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		MigrationsPath    string        `env:"PG_MIGRATIONS_PATH" envDefault:"migrations"`
//		MigrationsTable   string        `env:"PG_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
//	}
//
// # Usage Example
//
//	pool, err := pg.Connect(ctx, cfg.Postgres)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, repository.Migrations, cfg.Postgres, log); err != nil {
//		return err
//	}
//
// Migrate wraps the pool in a database/sql handle through pgx's stdlib adapter,
// since goose works with database/sql only.
//
// # Error Handling
//
//	if pg.IsNotFoundError(err) {
//		return nil, repository.ErrNotFound
//	}
//	if pg.IsDuplicateKeyError(err) {
//		return nil, repository.ErrAlreadyExists
//	}
//
// # Transaction Management
//
//	err := pg.InTx(ctx, pool, func(ctx context.Context) error {
//		if err := store.CreateProgressLog(ctx, entry); err != nil {
//			return err
//		}
//		return store.UpdateWorkoutCalories(ctx, workoutID, calories)
//	})
//
// Repository calls made with the inner ctx use the transaction. Nested InTx calls
// join the outer transaction.
package pg
