package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/logger"
)

// scheduleNamespace seeds the deterministic ids of scheduled jobs.
var scheduleNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("fitqueue.queue.scheduler"))

// Scheduler enqueues jobs on a Schedule. Every fire time maps to a deterministic
// job id, so several processes running the same schedules enqueue each slot once
// as long as the earlier job is still retained by storage.
type Scheduler struct {
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	entries []*scheduleEntry
	running bool

	jobsEnqueued atomic.Int64
}

type scheduleEntry struct {
	name     string
	schedule Schedule
	queue    *Queue
	jobType  string
	payload  any
	opts     []EnqueueOption
	next     time.Time
}

// ScheduleInfo describes a registered periodic job.
type ScheduleInfo struct {
	Name     string    `json:"name"`
	Queue    string    `json:"queue"`
	JobType  string    `json:"job_type"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"next_run,omitzero"`
}

// SchedulerStats provides in-process observability metrics.
type SchedulerStats struct {
	Schedules    int
	JobsEnqueued int64
	IsRunning    bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithCheckInterval sets how often due schedules are checked.
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchedulerClock replaces time.Now.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates an empty scheduler. Add periodic jobs before Start.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		interval: 30 * time.Second,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("scheduler"))
	return s
}

// NewSchedulerFromConfig creates a scheduler checking every cfg.SchedulerInterval.
func NewSchedulerFromConfig(cfg Config, opts ...SchedulerOption) *Scheduler {
	return NewScheduler(append([]SchedulerOption{WithCheckInterval(cfg.SchedulerInterval)}, opts...)...)
}

// Add registers payload to be enqueued on q at every fire time of schedule.
// Names must be unique; they are part of the generated job ids.
func (s *Scheduler) Add(name string, schedule Schedule, q *Queue, payload Payload, opts ...EnqueueOption) error {
	switch {
	case name == "":
		return ErrEmptyScheduleName
	case schedule == nil:
		return ErrScheduleNil
	case q == nil:
		return ErrQueueNil
	case payload == nil:
		return ErrPayloadNil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if slices.ContainsFunc(s.entries, func(e *scheduleEntry) bool { return e.name == name }) {
		return fmt.Errorf("%w: %s", ErrScheduleExists, name)
	}

	s.entries = append(s.entries, &scheduleEntry{
		name:     name,
		schedule: schedule,
		queue:    q,
		jobType:  payload.JobType(),
		payload:  payload,
		opts:     opts,
	})
	return nil
}

// Schedules lists the registered periodic jobs. NextRun is set once started.
func (s *Scheduler) Schedules() []ScheduleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScheduleInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, ScheduleInfo{
			Name:     e.name,
			Queue:    e.queue.Name(),
			JobType:  e.jobType,
			Schedule: e.schedule.String(),
			NextRun:  e.next,
		})
	}
	return out
}

// Start checks schedules every interval until ctx is cancelled.
// The first job of each schedule is enqueued at its first fire time after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return ErrNoSchedules
	}
	s.running = true
	now := s.now()
	for _, e := range s.entries {
		e.next = e.schedule.Next(now)
	}
	count := len(s.entries)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.InfoContext(ctx, "scheduler started",
		logger.Count("schedules", count),
		slog.Duration("check_interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Run adapts Start to errgroup. Cancellation is a clean exit.
func (s *Scheduler) Run(ctx context.Context) func() error {
	return func() error {
		err := s.Start(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// Tick enqueues every schedule whose fire time has passed. Missed slots are
// collapsed into one job. A failed enqueue is retried on the next tick.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()

	type dueEntry struct {
		entry *scheduleEntry
		slot  time.Time
	}
	s.mu.Lock()
	var due []dueEntry
	for _, e := range s.entries {
		if !e.next.IsZero() && !now.Before(e.next) {
			due = append(due, dueEntry{entry: e, slot: e.next})
		}
	}
	s.mu.Unlock()

	for _, d := range due {
		if s.fire(ctx, d.entry, d.slot) {
			s.mu.Lock()
			d.entry.next = d.entry.schedule.Next(now)
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, e *scheduleEntry, slot time.Time) bool {
	slot = slot.UTC()
	id := SlotJobID(e.name, slot)
	opts := append(slices.Clone(e.opts), WithJobID(id))

	_, err := e.queue.Enqueue(ctx, e.jobType, e.payload, opts...)
	switch {
	case errors.Is(err, ErrJobExists):
		s.logger.DebugContext(ctx, "scheduled job already enqueued",
			slog.String("schedule", e.name),
			logger.JobID(id.String()))
		return true
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to enqueue scheduled job",
			slog.String("schedule", e.name),
			logger.Queue(e.queue.Name()),
			logger.JobType(e.jobType),
			logger.Error(err))
		return false
	}

	s.jobsEnqueued.Add(1)
	s.logger.InfoContext(ctx, "scheduled job enqueued",
		slog.String("schedule", e.name),
		logger.Queue(e.queue.Name()),
		logger.JobType(e.jobType),
		logger.JobID(id.String()),
		slog.Time("slot", slot))
	return true
}

// SlotJobID returns the id of the job a schedule enqueues for the fire time slot.
func SlotJobID(name string, slot time.Time) uuid.UUID {
	return uuid.NewSHA1(scheduleNamespace, []byte(name+"@"+slot.UTC().Format(time.RFC3339)))
}

// Stats returns in-process metrics.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStats{
		Schedules:    len(s.entries),
		JobsEnqueued: s.jobsEnqueued.Load(),
		IsRunning:    s.running,
	}
}
