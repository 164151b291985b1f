package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/logger"
)

// Queue is a named collection of jobs with registered processors.
// It is both the producer API (Enqueue) and the worker pool for its own job types.
type Queue struct {
	name     string
	storage  Storage
	opts     queueOptions
	logger   *slog.Logger
	workerID uuid.UUID

	mu         sync.RWMutex
	processors map[string]*processor
	listeners  map[EventType][]Listener
	cancel     context.CancelFunc
	running    bool

	dispatchWG sync.WaitGroup
	jobsWG     sync.WaitGroup

	// Observability metrics
	jobsCompleted atomic.Int64
	jobsFailed    atomic.Int64
	jobsRetried   atomic.Int64
}

type processor struct {
	handler     Handler
	concurrency int
	timeout     time.Duration
	sem         chan struct{}
	wake        chan struct{}
	active      atomic.Int32
}

// Stats provides in-process observability metrics.
type Stats struct {
	JobsCompleted int64            // Jobs this process completed
	JobsFailed    int64            // Jobs this process moved to failed
	JobsRetried   int64            // Failed attempts that were rescheduled
	Active        map[string]int32 // Running jobs per job type
	IsRunning     bool
}

// New creates a queue over storage. Processors are added with Register before Start.
func New(name string, storage Storage, opts ...Option) (*Queue, error) {
	if name == "" {
		return nil, ErrEmptyQueueName
	}
	if storage == nil {
		return nil, ErrStorageNil
	}

	options := queueOptions{
		attempts:        DefaultAttempts,
		backoff:         DefaultBackoff,
		keepCompleted:   DefaultKeepCompleted,
		keepFailed:      DefaultKeepFailed,
		pollInterval:    time.Second,
		stallInterval:   30 * time.Second,
		lockDuration:    30 * time.Second,
		defaultTimeout:  2 * time.Minute,
		maxStalledCount: 1,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)), // No-op logger by default
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Queue{
		name:       name,
		storage:    storage,
		opts:       options,
		logger:     options.logger.With(logger.Queue(name)),
		workerID:   uuid.New(),
		processors: make(map[string]*processor),
		listeners:  make(map[EventType][]Listener),
	}, nil
}

// NewFromConfig creates a queue from configuration. Additional options override config values.
func NewFromConfig(cfg Config, name string, storage Storage, opts ...Option) (*Queue, error) {
	return New(name, storage, append(cfg.Options(), opts...)...)
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Register adds the processor for handler.JobType(). Jobs of types without a
// processor are never claimed by this queue.
func (q *Queue) Register(handler Handler, opts ...ProcessorOption) error {
	if handler == nil {
		return ErrHandlerNil
	}
	if handler.JobType() == "" {
		return ErrEmptyJobType
	}

	options := processorOptions{
		concurrency: 1,
		timeout:     q.opts.defaultTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return ErrAlreadyRunning
	}
	if _, exists := q.processors[handler.JobType()]; exists {
		return fmt.Errorf("%w: %s", ErrHandlerExists, handler.JobType())
	}

	q.processors[handler.JobType()] = &processor{
		handler:     handler,
		concurrency: options.concurrency,
		timeout:     options.timeout,
		sem:         make(chan struct{}, options.concurrency),
		wake:        make(chan struct{}, 1),
	}
	return nil
}

// JobTypes returns the registered job types.
func (q *Queue) JobTypes() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	types := make([]string, 0, len(q.processors))
	for t := range q.processors {
		types = append(types, t)
	}
	return types
}

// Enqueue stores a job and returns without waiting for it to be processed.
// The payload is marshaled to JSON; json.RawMessage is stored as is.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any, opts ...EnqueueOption) (*Job, error) {
	if jobType == "" {
		return nil, ErrEmptyJobType
	}
	if payload == nil {
		return nil, ErrPayloadNil
	}

	options := enqueueOptions{
		priority: PriorityDefault,
		attempts: q.opts.attempts,
		backoff:  q.opts.backoff,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.priority.Valid() {
		return nil, ErrInvalidPriority
	}

	raw, ok := payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload of type %T: %w", payload, err)
		}
		raw = b
	}

	id := options.id
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := time.Now()
	job := &Job{
		ID:          id,
		Queue:       q.name,
		Type:        jobType,
		Payload:     raw,
		Priority:    options.priority,
		Status:      JobStatusWaiting,
		MaxAttempts: options.attempts,
		Backoff:     options.backoff,
		ScheduledAt: now.Add(options.delay),
		CreatedAt:   now,
	}
	if options.delay > 0 {
		job.Status = JobStatusDelayed
	}

	if err := q.storage.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job %q in queue %q: %w", jobType, q.name, err)
	}

	q.logger.DebugContext(ctx, "job enqueued",
		logger.JobID(job.ID.String()),
		logger.JobType(jobType),
		slog.Int("priority", int(job.Priority)))

	q.wakeProcessor(jobType)
	return job.clone(), nil
}

// Add enqueues a typed payload on q using the payload's job type.
func Add[T Payload](ctx context.Context, q *Queue, payload T, opts ...EnqueueOption) (*Job, error) {
	return q.Enqueue(ctx, payload.JobType(), payload, opts...)
}

// Pause stops dispatching new jobs. Jobs already running are allowed to finish.
func (q *Queue) Pause(ctx context.Context) error {
	if err := q.storage.SetPaused(ctx, q.name, true); err != nil {
		return fmt.Errorf("failed to pause queue %q: %w", q.name, err)
	}
	q.logger.InfoContext(ctx, "queue paused")
	return nil
}

// Resume restarts dispatching.
func (q *Queue) Resume(ctx context.Context) error {
	if err := q.storage.SetPaused(ctx, q.name, false); err != nil {
		return fmt.Errorf("failed to resume queue %q: %w", q.name, err)
	}
	q.logger.InfoContext(ctx, "queue resumed")
	q.wakeAll()
	return nil
}

// IsPaused reports the persisted pause flag.
func (q *Queue) IsPaused(ctx context.Context) (bool, error) {
	return q.storage.IsPaused(ctx, q.name)
}

// Counts returns job counts per state. It never mutates the queue.
func (q *Queue) Counts(ctx context.Context) (JobCounts, error) {
	counts, err := q.storage.Counts(ctx, q.name)
	if err != nil {
		return JobCounts{}, fmt.Errorf("failed to count jobs in queue %q: %w", q.name, err)
	}
	return counts, nil
}

// Clean removes completed and failed job records. Waiting and active jobs are untouched.
func (q *Queue) Clean(ctx context.Context) (int, error) {
	n, err := q.storage.Clean(ctx, q.name)
	if err != nil {
		return 0, fmt.Errorf("failed to clean queue %q: %w", q.name, err)
	}
	q.logger.InfoContext(ctx, "queue cleaned", logger.Count("removed", n))
	return n, nil
}

// GetJob returns a job by id, including its result once completed.
func (q *Queue) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return q.storage.GetJob(ctx, q.name, id)
}

// Jobs lists up to limit jobs in the given status.
func (q *Queue) Jobs(ctx context.Context, status JobStatus, limit int) ([]*Job, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatusFilter
	}
	if limit <= 0 {
		limit = 50
	}
	return q.storage.ListJobs(ctx, q.name, status, limit)
}

// RetryJob re-submits a failed job with a fresh attempt budget.
// Failed jobs are never re-submitted automatically.
func (q *Queue) RetryJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	job, err := q.storage.RequeueFailed(ctx, q.name, id)
	if err != nil {
		return nil, err
	}
	q.logger.InfoContext(ctx, "failed job requeued manually",
		logger.JobID(job.ID.String()),
		logger.JobType(job.Type))
	q.wakeProcessor(job.Type)
	return job, nil
}

// Stats returns in-process counters. Safe for concurrent use.
func (q *Queue) Stats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	active := make(map[string]int32, len(q.processors))
	for t, p := range q.processors {
		active[t] = p.active.Load()
	}

	return Stats{
		JobsCompleted: q.jobsCompleted.Load(),
		JobsFailed:    q.jobsFailed.Load(),
		JobsRetried:   q.jobsRetried.Load(),
		Active:        active,
		IsRunning:     q.running,
	}
}

// Healthcheck fails when the queue is not running or every processor slot is busy.
//
//	healthSrv.AddCheck("queue-ai", aiQueue.Healthcheck)
func (q *Queue) Healthcheck(ctx context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.running {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}

	busy := len(q.processors) > 0
	for _, p := range q.processors {
		if int(p.active.Load()) < p.concurrency {
			busy = false
			break
		}
	}
	if busy {
		return errors.Join(ErrHealthcheckFailed, ErrQueueOverloaded)
	}
	return nil
}

func (q *Queue) wakeProcessor(jobType string) {
	q.mu.RLock()
	p, ok := q.processors[jobType]
	q.mu.RUnlock()
	if ok {
		p.notify()
	}
}

func (q *Queue) wakeAll() {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, p := range q.processors {
		p.notify()
	}
}

func (p *processor) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
