// Package repository persists the records written and read by background jobs:
// workouts, nutrition plans, progress logs and AI chat exchanges.
//
// Postgres is backed by pgx and joins any transaction stored in the context with
// pg.WithTx. Its schema ships as embedded goose migrations:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, repository.Migrations, cfg, log); err != nil {
//		return err
//	}
//	store := repository.NewPostgres(pool)
//
// Memory implements the same Store in process for development and tests.
package repository
