package jobs

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/core/email/templates"
	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/internal/notify"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
	"github.com/dmitrymomot/fitqueue/pkg/ratelimiter"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

//go:embed emails/*.html
var emailFS embed.FS

// Deps are the collaborators processors call into.
type Deps struct {
	Storage   queue.Storage
	Store     repository.Store
	KV        kvstore.Store
	Generator textgen.Generator
	Email     email.EmailSender
}

func (d Deps) validate() error {
	var missing []string
	if d.Storage == nil {
		missing = append(missing, "storage")
	}
	if d.Store == nil {
		missing = append(missing, "store")
	}
	if d.KV == nil {
		missing = append(missing, "kv")
	}
	if d.Generator == nil {
		missing = append(missing, "generator")
	}
	if d.Email == nil {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingDependency, missing)
	}
	return nil
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	cfg       Config
	queueCfg  queue.Config
	queueOpts []queue.Option
	logger    *slog.Logger
	now       func() time.Time
}

// WithConfig sets the domain config.
func WithConfig(cfg Config) Option {
	return func(o *registryOptions) {
		o.cfg = cfg
	}
}

// WithQueueConfig sets the defaults every queue is built with.
func WithQueueConfig(cfg queue.Config) Option {
	return func(o *registryOptions) {
		o.queueCfg = cfg
	}
}

// WithQueueOptions appends options applied to every queue after the queue config.
func WithQueueOptions(opts ...queue.Option) Option {
	return func(o *registryOptions) {
		o.queueOpts = append(o.queueOpts, opts...)
	}
}

// WithLogger sets the logger shared by the queues and processors.
func WithLogger(l *slog.Logger) Option {
	return func(o *registryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps written by processors.
func WithClock(now func() time.Time) Option {
	return func(o *registryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Registry owns the five domain queues and their processors.
// Create it once at startup, Run it, and Close it on shutdown.
type Registry struct {
	deps      Deps
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
	queues    map[string]*queue.Queue
	manager   *Manager
	scheduler *queue.Scheduler
	limiter   *ratelimiter.FixedWindow
	analytics *analytics.Service
	notify    *notify.Service
	emails    *templates.Renderer

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewRegistry builds every queue over deps.Storage and registers all processors.
func NewRegistry(deps Deps, opts ...Option) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	options := registryOptions{
		cfg:      DefaultConfig(),
		queueCfg: queue.DefaultConfig(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	renderer, err := templates.New(emailFS, "emails/*.html")
	if err != nil {
		return nil, err
	}

	r := &Registry{
		deps:   deps,
		cfg:    options.cfg,
		logger: options.logger.With(logger.Component("jobs")),
		now:    options.now,
		queues: make(map[string]*queue.Queue, 5),
		analytics: analytics.NewService(deps.Store, deps.KV,
			analytics.WithClock(options.now),
			analytics.WithLogger(options.logger)),
		notify: notify.NewService(deps.KV,
			notify.WithClock(options.now),
			notify.WithLogger(options.logger)),
		emails: renderer,
	}

	if r.cfg.AIRateLimit > 0 {
		r.limiter, err = ratelimiter.NewFixedWindow(deps.KV, ratelimiter.Config{
			Limit:  r.cfg.AIRateLimit,
			Window: r.cfg.AIRateWindow,
		}, ratelimiter.WithPrefix("ratelimit:ai"), ratelimiter.WithClock(options.now))
		if err != nil {
			return nil, err
		}
	}

	queueOpts := append([]queue.Option{queue.WithLogger(options.logger)}, options.queueOpts...)
	ordered := make([]*queue.Queue, 0, 5)
	for _, name := range QueueNames() {
		q, err := queue.NewFromConfig(options.queueCfg, name, deps.Storage, queueOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue %q: %w", name, err)
		}
		r.queues[name] = q
		ordered = append(ordered, q)
	}

	if err := r.register(); err != nil {
		return nil, err
	}

	r.scheduler = queue.NewSchedulerFromConfig(options.queueCfg,
		queue.WithSchedulerLogger(options.logger),
		queue.WithSchedulerClock(options.now))
	if err := r.schedule(); err != nil {
		return nil, err
	}

	r.manager = NewManager(ordered...)
	return r, nil
}

// schedule registers the periodic jobs enabled by the config.
func (r *Registry) schedule() error {
	refresh, err := r.cfg.refreshSchedule()
	if err != nil || refresh == nil {
		return err
	}
	return r.scheduler.Add("analytics-refresh", refresh, r.queues[QueueAnalytics],
		RefreshAnalytics{Timeframe: analytics.Weekly}, queue.WithPriority(queue.PriorityLow))
}

// register wires one processor per job type. Every payload type of a queue's
// union appears here exactly once.
func (r *Registry) register() error {
	regs := []struct {
		queue       string
		handler     queue.Handler
		concurrency int
	}{
		{QueueAI, queue.NewProcessor(r.generateWorkout), concurrencyGenerateWorkout},
		{QueueAI, queue.NewProcessor(r.generateNutrition), concurrencyGenerateNutrition},
		{QueueAI, queue.NewProcessor(r.chatResponse), concurrencyChatResponse},
		{QueueAI, queue.NewProcessor(r.analyzeProgress), concurrencyAnalyzeProgress},

		{QueueEmail, queue.NewProcessor(func(ctx context.Context, p WelcomeEmail) (EmailResult, error) {
			return r.sendEmail(ctx, p)
		}), concurrencyEmail},
		{QueueEmail, queue.NewProcessor(func(ctx context.Context, p WorkoutReminder) (EmailResult, error) {
			return r.sendEmail(ctx, p)
		}), concurrencyEmail},
		{QueueEmail, queue.NewProcessor(func(ctx context.Context, p ProgressReport) (EmailResult, error) {
			return r.sendEmail(ctx, p)
		}), concurrencyEmail},
		{QueueEmail, queue.NewProcessor(func(ctx context.Context, p Newsletter) (EmailResult, error) {
			return r.sendEmail(ctx, p)
		}), concurrencyEmail},

		{QueueAnalytics, queue.NewProcessor(r.userAnalytics), concurrencyUserAnalytics},
		{QueueAnalytics, queue.NewProcessor(r.refreshAnalytics), concurrencyRefreshAnalytics},

		{QueueNotification, queue.NewProcessor(r.inApp), concurrencyInApp},

		{QueueWorkout, queue.NewProcessor(r.completeWorkout), concurrencyWorkout},
		{QueueWorkout, queue.NewProcessor(r.calculateCalories), concurrencyWorkout},
		{QueueWorkout, queue.NewProcessor(r.updateProgress), concurrencyWorkout},
		{QueueWorkout, queue.NewProcessor(r.generateRecommendations), concurrencyWorkout},
	}

	for _, reg := range regs {
		if err := r.queues[reg.queue].Register(reg.handler, queue.WithConcurrency(reg.concurrency)); err != nil {
			return fmt.Errorf("failed to register %s on %s: %w", reg.handler.JobType(), reg.queue, err)
		}
	}
	return nil
}

// Queue returns a queue by name.
func (r *Registry) Queue(name string) (*queue.Queue, bool) {
	q, ok := r.queues[name]
	return q, ok
}

// Manager returns the cross-queue control surface.
func (r *Registry) Manager() *Manager {
	return r.manager
}

// Scheduler returns the scheduler of periodic jobs. It runs with the registry.
func (r *Registry) Scheduler() *queue.Scheduler {
	return r.scheduler
}

// Analytics returns the analytics service used by the processors.
func (r *Registry) Analytics() *analytics.Service {
	return r.analytics
}

// Notifications returns the notification service used by the processors.
func (r *Registry) Notifications() *notify.Service {
	return r.notify
}

// Enqueue is the string-tagged submission contract. The job type must be
// registered on the queue; the payload is validated only when processed,
// except that AI payloads need a string "userId" for the rate limit.
func (r *Registry) Enqueue(ctx context.Context, queueName, jobType string, payload any, opts ...queue.EnqueueOption) (*queue.Job, error) {
	q, ok := r.queues[queueName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, queueName)
	}
	if !slices.Contains(q.JobTypes(), jobType) {
		return nil, fmt.Errorf("%w: %q on %q", ErrUnknownJobType, jobType, queueName)
	}

	if queueName == QueueAI {
		owner, err := ownerOf(payload)
		switch {
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrMissingUserID, err)
		case owner == "":
			return nil, ErrMissingUserID
		}
		if err := r.checkAIRate(ctx, owner); err != nil {
			return nil, err
		}
	}
	return q.Enqueue(ctx, jobType, payload, opts...)
}

// EnqueueAI submits an AI job, subject to the per-user AI rate limit.
func (r *Registry) EnqueueAI(ctx context.Context, job AIJob, opts ...queue.EnqueueOption) (*queue.Job, error) {
	if err := r.checkAIRate(ctx, job.aiUserID()); err != nil {
		return nil, err
	}
	return queue.Add(ctx, r.queues[QueueAI], job, opts...)
}

// EnqueueEmail submits an email job.
func (r *Registry) EnqueueEmail(ctx context.Context, job EmailJob, opts ...queue.EnqueueOption) (*queue.Job, error) {
	return queue.Add(ctx, r.queues[QueueEmail], job, opts...)
}

// EnqueueAnalytics submits an analytics job.
func (r *Registry) EnqueueAnalytics(ctx context.Context, job AnalyticsJob, opts ...queue.EnqueueOption) (*queue.Job, error) {
	return queue.Add(ctx, r.queues[QueueAnalytics], job, opts...)
}

// EnqueueNotification submits a notification job.
func (r *Registry) EnqueueNotification(ctx context.Context, job NotificationJob, opts ...queue.EnqueueOption) (*queue.Job, error) {
	return queue.Add(ctx, r.queues[QueueNotification], job, opts...)
}

// EnqueueWorkout submits a workout job.
func (r *Registry) EnqueueWorkout(ctx context.Context, job WorkoutJob, opts ...queue.EnqueueOption) (*queue.Job, error) {
	return queue.Add(ctx, r.queues[QueueWorkout], job, opts...)
}

func (r *Registry) checkAIRate(ctx context.Context, userID string) error {
	if r.limiter == nil || userID == "" {
		return nil
	}
	if err := r.limiter.Check(ctx, userID); err != nil {
		r.logger.WarnContext(ctx, "ai job rejected by rate limit", logger.UserID(userID), logger.Error(err))
		return err
	}
	return nil
}

// ownerOf extracts the "userId" field of an arbitrary payload.
func ownerOf(payload any) (string, error) {
	if job, ok := payload.(AIJob); ok {
		return job.aiUserID(), nil
	}
	raw, ok := payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		raw = b
	}
	var owner struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(raw, &owner); err != nil {
		return "", err
	}
	return owner.UserID, nil
}

// chain enqueues a follow-up job. Failures are logged as a side-effect failure
// and reported, never returned: the primary effect is already committed.
func (r *Registry) chain(ctx context.Context, queueName string, job queue.Payload, userID string) Chained {
	j, err := queue.Add(ctx, r.queues[queueName], job)
	if err != nil {
		r.logger.ErrorContext(ctx, "chained job was not enqueued",
			logger.Event("side_effect_failed"),
			logger.Queue(queueName),
			logger.JobType(job.JobType()),
			logger.UserID(userID),
			logger.Error(err))
		return Chained{Error: err.Error()}
	}
	return Chained{Enqueued: true, JobID: j.ID.String()}
}

func (r *Registry) notifyUser(ctx context.Context, userID, title, message string, data map[string]any) Chained {
	return r.chain(ctx, QueueNotification, InApp{UserID: userID, Title: title, Message: message, Data: data}, userID)
}

// Run starts every queue and blocks until ctx is cancelled or Close is called.
// Queues drain running jobs before Run returns.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrRegistryRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})
	stopped := r.stopped
	r.mu.Unlock()

	defer func() {
		cancel()
		close(stopped)
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
	}()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range QueueNames() {
		g.Go(r.queues[name].Run(gctx))
	}
	if r.scheduler.Stats().Schedules > 0 {
		g.Go(r.scheduler.Run(gctx))
	}

	r.logger.InfoContext(ctx, "job queues started", logger.Count("queues", len(r.queues)))
	err := g.Wait()
	r.logger.InfoContext(context.Background(), "job queues stopped")
	return err
}

// Close stops a running registry and waits for queues to drain.
func (r *Registry) Close() error {
	r.mu.Lock()
	cancel, stopped := r.cancel, r.stopped
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-stopped
	return nil
}

// Healthcheck fails when any queue is unhealthy.
func (r *Registry) Healthcheck(ctx context.Context) error {
	var errs []error
	for _, name := range QueueNames() {
		if err := r.queues[name].Healthcheck(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
