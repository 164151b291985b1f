package queue

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in process memory for tests and local development.
// A single mutex serializes every operation, which makes claims atomic.
type MemoryStorage struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*Job
	queues map[string]*memoryQueue
	now    func() time.Time
}

type memoryQueue struct {
	waiting   map[string][]uuid.UUID // by job type
	delayed   map[string][]uuid.UUID // by job type
	active    map[uuid.UUID]struct{}
	completed []uuid.UUID // newest first
	failed    []uuid.UUID // newest first
	paused    bool
}

// MemoryStorageOption configures a MemoryStorage.
type MemoryStorageOption func(*MemoryStorage)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryStorageOption {
	return func(ms *MemoryStorage) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStorage creates a new in-memory storage implementation.
func NewMemoryStorage(opts ...MemoryStorageOption) *MemoryStorage {
	ms := &MemoryStorage{
		jobs:   make(map[uuid.UUID]*Job),
		queues: make(map[string]*memoryQueue),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

func (ms *MemoryStorage) queue(name string) *memoryQueue {
	mq, ok := ms.queues[name]
	if !ok {
		mq = &memoryQueue{
			waiting: make(map[string][]uuid.UUID),
			delayed: make(map[string][]uuid.UUID),
			active:  make(map[uuid.UUID]struct{}),
		}
		ms.queues[name] = mq
	}
	return mq
}

// CreateJob stores a new job in memory.
func (ms *MemoryStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return ErrPayloadNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}

	j := job.clone()
	mq := ms.queue(j.Queue)
	if j.ScheduledAt.After(ms.now()) {
		j.Status = JobStatusDelayed
		mq.delayed[j.Type] = append(mq.delayed[j.Type], j.ID)
	} else {
		j.Status = JobStatusWaiting
		mq.waiting[j.Type] = append(mq.waiting[j.Type], j.ID)
	}
	ms.jobs[j.ID] = j
	return nil
}

// ClaimJob atomically claims the next eligible job of jobType.
func (ms *MemoryStorage) ClaimJob(ctx context.Context, queue, jobType string, workerID uuid.UUID, lock time.Duration) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	mq := ms.queue(queue)
	if mq.paused {
		return nil, ErrNoJobToClaim
	}

	now := ms.now()
	ms.promoteDelayed(mq, jobType, now)

	// Selection: priority first, then earliest scheduled, then earliest created.
	var best *Job
	for _, id := range mq.waiting[jobType] {
		job := ms.jobs[id]
		if best == nil || compareWaiting(job, best) < 0 {
			best = job
		}
	}
	if best == nil {
		return nil, ErrNoJobToClaim
	}

	mq.waiting[jobType] = removeID(mq.waiting[jobType], best.ID)
	mq.active[best.ID] = struct{}{}

	lockUntil := now.Add(lock)
	best.Status = JobStatusActive
	best.LockedUntil = &lockUntil
	best.LockedBy = &workerID
	best.ProcessedAt = &now

	return best.clone(), nil
}

func (ms *MemoryStorage) promoteDelayed(mq *memoryQueue, jobType string, now time.Time) {
	ids := mq.delayed[jobType]
	if len(ids) == 0 {
		return
	}
	remaining := ids[:0]
	for _, id := range ids {
		job := ms.jobs[id]
		if job.ScheduledAt.After(now) {
			remaining = append(remaining, id)
			continue
		}
		job.Status = JobStatusWaiting
		mq.waiting[jobType] = append(mq.waiting[jobType], id)
	}
	mq.delayed[jobType] = remaining
}

// ExtendLock renews the lock of an active job.
func (ms *MemoryStorage) ExtendLock(ctx context.Context, queue string, jobID uuid.UUID, lock time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.activeJob(queue, jobID)
	if err != nil {
		return err
	}
	lockUntil := ms.now().Add(lock)
	job.LockedUntil = &lockUntil
	return nil
}

// CompleteJob marks a job as completed and trims the completed list.
func (ms *MemoryStorage) CompleteJob(ctx context.Context, queue string, jobID uuid.UUID, result json.RawMessage, keep int) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.activeJob(queue, jobID)
	if err != nil {
		return nil, err
	}

	mq := ms.queue(queue)
	delete(mq.active, jobID)

	now := ms.now()
	job.Status = JobStatusCompleted
	job.AttemptsMade++
	job.Result = append(json.RawMessage(nil), result...)
	job.FinishedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil

	out := job.clone()
	mq.completed = ms.pushCapped(mq.completed, jobID, keep)
	return out, nil
}

// RetryJob records a failed attempt and schedules the next one at retryAt.
func (ms *MemoryStorage) RetryJob(ctx context.Context, queue string, jobID uuid.UUID, errMsg string, retryAt time.Time) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.activeJob(queue, jobID)
	if err != nil {
		return nil, err
	}

	mq := ms.queue(queue)
	delete(mq.active, jobID)

	job.Status = JobStatusDelayed
	job.AttemptsMade++
	job.Error = errMsg
	job.ScheduledAt = retryAt
	job.LockedUntil = nil
	job.LockedBy = nil
	mq.delayed[job.Type] = append(mq.delayed[job.Type], jobID)

	return job.clone(), nil
}

// FailJob records the final attempt and trims the failed list.
func (ms *MemoryStorage) FailJob(ctx context.Context, queue string, jobID uuid.UUID, errMsg string, keep int) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.activeJob(queue, jobID)
	if err != nil {
		return nil, err
	}

	mq := ms.queue(queue)
	delete(mq.active, jobID)

	job.AttemptsMade++
	markFailed(job, errMsg, ms.now())
	out := job.clone()
	mq.failed = ms.pushCapped(mq.failed, jobID, keep)
	return out, nil
}

// RecoverStalled requeues active jobs whose lock expired.
func (ms *MemoryStorage) RecoverStalled(ctx context.Context, queue string, now time.Time, maxStalled, keepFailed int) (StalledJobs, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var res StalledJobs
	mq := ms.queue(queue)

	for id := range mq.active {
		job := ms.jobs[id]
		if job.LockedUntil == nil || job.LockedUntil.After(now) {
			continue
		}

		delete(mq.active, id)
		job.StalledCount++
		job.LockedUntil = nil
		job.LockedBy = nil

		if job.StalledCount > maxStalled {
			markFailed(job, ErrJobStalled.Error(), now)
			res.Failed = append(res.Failed, job.clone())
			mq.failed = ms.pushCapped(mq.failed, id, keepFailed)
			continue
		}

		job.Status = JobStatusWaiting
		mq.waiting[job.Type] = append(mq.waiting[job.Type], id)
		res.Requeued = append(res.Requeued, job.clone())
	}

	return res, nil
}

// RequeueFailed moves a failed job back to waiting.
func (ms *MemoryStorage) RequeueFailed(ctx context.Context, queue string, jobID uuid.UUID) (*Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[jobID]
	if !ok || job.Queue != queue {
		return nil, ErrJobNotFound
	}
	if job.Status != JobStatusFailed {
		return nil, ErrJobNotFailed
	}

	mq := ms.queue(queue)
	mq.failed = removeID(mq.failed, jobID)

	job.Status = JobStatusWaiting
	job.AttemptsMade = 0
	job.StalledCount = 0
	job.Error = ""
	job.ScheduledAt = ms.now()
	job.FinishedAt = nil
	mq.waiting[job.Type] = append(mq.waiting[job.Type], jobID)

	return job.clone(), nil
}

// GetJob returns a copy of the job.
func (ms *MemoryStorage) GetJob(ctx context.Context, queue string, jobID uuid.UUID) (*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	job, ok := ms.jobs[jobID]
	if !ok || job.Queue != queue {
		return nil, ErrJobNotFound
	}
	return job.clone(), nil
}

// ListJobs returns up to limit jobs in status.
func (ms *MemoryStorage) ListJobs(ctx context.Context, queue string, status JobStatus, limit int) ([]*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	mq, ok := ms.queues[queue]
	if !ok {
		return nil, nil
	}

	var ids []uuid.UUID
	switch status {
	case JobStatusWaiting:
		for _, list := range mq.waiting {
			ids = append(ids, list...)
		}
	case JobStatusDelayed:
		for _, list := range mq.delayed {
			ids = append(ids, list...)
		}
	case JobStatusActive:
		for id := range mq.active {
			ids = append(ids, id)
		}
	case JobStatusCompleted:
		ids = mq.completed
	case JobStatusFailed:
		ids = mq.failed
	default:
		return nil, ErrInvalidStatusFilter
	}

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, ms.jobs[id])
	}

	switch status {
	case JobStatusWaiting:
		slices.SortFunc(jobs, compareWaiting)
	case JobStatusDelayed, JobStatusActive:
		slices.SortFunc(jobs, func(a, b *Job) int { return a.ScheduledAt.Compare(b.ScheduledAt) })
	}

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	out := make([]*Job, len(jobs))
	for i, j := range jobs {
		out[i] = j.clone()
	}
	return out, nil
}

// Counts returns job counts per state.
func (ms *MemoryStorage) Counts(ctx context.Context, queue string) (JobCounts, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	mq, ok := ms.queues[queue]
	if !ok {
		return JobCounts{}, nil
	}

	var c JobCounts
	for _, list := range mq.waiting {
		c.Waiting += int64(len(list))
	}
	for _, list := range mq.delayed {
		c.Delayed += int64(len(list))
	}
	c.Active = int64(len(mq.active))
	c.Completed = int64(len(mq.completed))
	c.Failed = int64(len(mq.failed))
	c.Paused = mq.paused
	return c, nil
}

// Clean removes completed and failed jobs.
func (ms *MemoryStorage) Clean(ctx context.Context, queue string) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	mq, ok := ms.queues[queue]
	if !ok {
		return 0, nil
	}

	n := len(mq.completed) + len(mq.failed)
	for _, id := range mq.completed {
		delete(ms.jobs, id)
	}
	for _, id := range mq.failed {
		delete(ms.jobs, id)
	}
	mq.completed = nil
	mq.failed = nil
	return n, nil
}

// SetPaused sets the pause flag of a queue.
func (ms *MemoryStorage) SetPaused(ctx context.Context, queue string, paused bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.queue(queue).paused = paused
	return nil
}

// IsPaused reports the pause flag of a queue.
func (ms *MemoryStorage) IsPaused(ctx context.Context, queue string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	mq, ok := ms.queues[queue]
	return ok && mq.paused, nil
}

func (ms *MemoryStorage) activeJob(queue string, jobID uuid.UUID) (*Job, error) {
	job, ok := ms.jobs[jobID]
	if !ok || job.Queue != queue {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if _, active := ms.queue(queue).active[jobID]; !active {
		return nil, fmt.Errorf("%w: %s", ErrJobNotActive, jobID)
	}
	return job, nil
}

func markFailed(job *Job, errMsg string, now time.Time) {
	job.Status = JobStatusFailed
	job.Error = errMsg
	job.FinishedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil
}

// pushCapped prepends id and evicts the oldest entries beyond keep.
func (ms *MemoryStorage) pushCapped(list []uuid.UUID, id uuid.UUID, keep int) []uuid.UUID {
	list = append([]uuid.UUID{id}, list...)
	if keep < 0 || len(list) <= keep {
		return list
	}
	for _, evicted := range list[keep:] {
		delete(ms.jobs, evicted)
	}
	return slices.Clip(list[:keep])
}

func compareWaiting(a, b *Job) int {
	if a.Priority != b.Priority {
		return cmp.Compare(b.Priority, a.Priority)
	}
	if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	return slices.DeleteFunc(ids, func(v uuid.UUID) bool { return v == id })
}
