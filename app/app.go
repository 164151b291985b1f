package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/core/server"
	"github.com/dmitrymomot/fitqueue/integration/database/pg"
	"github.com/dmitrymomot/fitqueue/integration/database/redis"
	"github.com/dmitrymomot/fitqueue/integration/email/postmark"
	"github.com/dmitrymomot/fitqueue/integration/email/smtp"
	"github.com/dmitrymomot/fitqueue/internal/admin"
	"github.com/dmitrymomot/fitqueue/internal/jobs"
	"github.com/dmitrymomot/fitqueue/internal/realtime"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

var ErrUnknownStorageDriver = errors.New("unknown storage driver")

// App owns the job registry, the ops HTTP server and their connections.
type App struct {
	config    Config
	logger    *slog.Logger
	registry  *jobs.Registry
	server    *server.Server
	handler   http.Handler
	storage   queue.Storage
	kv        kvstore.Store
	store     repository.Store
	generator textgen.Generator
	sender    email.EmailSender
	checks    []func(context.Context) error
	closers   []func()
}

type Option func(*App) error

// New connects the configured backends and builds the application.
// Dependencies set through options are used as is.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	a := &App{
		config: cfg,
		logger: logger.New(
			logger.WithEnvironment(cfg.AppName, cfg.Env),
			logger.WithLevelString(cfg.LogLevel),
		),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if err := a.initStorage(ctx); err != nil {
		return err
	}
	if err := a.initRepository(ctx); err != nil {
		return err
	}

	if a.generator == nil {
		gen, err := textgen.NewFromConfig(ctx, a.config.AI)
		if err != nil {
			return fmt.Errorf("text generator: %w", err)
		}
		a.generator = gen
	}

	if a.sender == nil {
		sender, err := a.newEmailSender(ctx)
		if err != nil {
			return err
		}
		a.sender = sender
	}

	reg, err := jobs.NewRegistry(jobs.Deps{
		Storage:   a.storage,
		Store:     a.store,
		KV:        a.kv,
		Generator: a.generator,
		Email:     a.sender,
	},
		jobs.WithConfig(a.config.Jobs),
		jobs.WithQueueConfig(a.config.Queue),
		jobs.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	a.registry = reg

	srv, err := server.New(a.config.Server, server.WithLogger(a.logger), server.WithAccessLog())
	if err != nil {
		return err
	}
	a.server = srv

	a.handler = admin.New(reg.Manager(),
		admin.WithLogger(a.logger),
		admin.WithScheduler(reg.Scheduler()),
		admin.WithReadinessChecks(append(a.checks, reg.Healthcheck)...),
		admin.WithRoute(http.MethodGet, "/ws/notifications", realtime.NewRelay(reg.Notifications(),
			realtime.WithLogger(a.logger))),
	)
	return nil
}

// newEmailSender prefers Postmark, then an SMTP relay, then the on-disk development sender.
func (a *App) newEmailSender(ctx context.Context) (email.EmailSender, error) {
	switch {
	case a.config.Postmark.Enabled():
		sender, err := postmark.New(a.config.Postmark)
		if err != nil {
			return nil, fmt.Errorf("postmark: %w", err)
		}
		return sender, nil
	case a.config.SMTP.Enabled():
		sender, err := smtp.New(a.config.SMTP)
		if err != nil {
			return nil, fmt.Errorf("smtp: %w", err)
		}
		return sender, nil
	}
	a.logger.WarnContext(ctx, "no email provider configured, emails are written to disk",
		slog.String("dir", a.config.DevMailDir))
	return email.NewDevSender(a.config.DevMailDir), nil
}

func (a *App) initStorage(ctx context.Context) error {
	if a.storage != nil && a.kv != nil {
		return nil
	}

	switch a.config.StorageDriver {
	case StorageMemory:
		a.logger.WarnContext(ctx, "using in-memory storage, jobs do not survive restarts")
		if a.storage == nil {
			a.storage = queue.NewMemoryStorage()
		}
		if a.kv == nil {
			a.kv = kvstore.NewMemory()
		}
		return nil

	case StorageRedis, "":
		client, err := redis.Connect(ctx, a.config.Redis)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.checks = append(a.checks, redis.Healthcheck(client))

		if a.storage == nil {
			storage, err := queue.NewRedisStorage(client)
			if err != nil {
				return err
			}
			a.storage = storage
		}
		if a.kv == nil {
			a.kv = kvstore.NewRedis(client)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStorageDriver, a.config.StorageDriver)
}

func (a *App) initRepository(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if a.config.DB.ConnectionString == "" {
		a.logger.WarnContext(ctx, "PG_CONN_URL is not set, using in-memory repository")
		a.store = repository.NewMemory()
		return nil
	}

	pool, err := pg.Connect(ctx, a.config.DB)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)
	a.checks = append(a.checks, pg.Healthcheck(pool))

	if err := pg.Migrate(ctx, pool, repository.Migrations, a.config.DB, a.logger); err != nil {
		return err
	}
	a.store = repository.NewPostgres(pool)
	return nil
}

// Run starts the queues and the HTTP server and blocks until ctx is cancelled
// or either of them fails. Running jobs are drained before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.registry.Run(ctx) })
	g.Go(a.server.Run(ctx, a.handler))

	a.logger.InfoContext(ctx, "application started", slog.String("addr", a.config.Server.Addr))
	return g.Wait()
}

// Close releases connections. Call it after Run returns.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Registry returns the job registry for enqueueing work.
func (a *App) Registry() *jobs.Registry { return a.registry }

// Handler returns the HTTP handler served by Run.
func (a *App) Handler() http.Handler { return a.handler }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }
