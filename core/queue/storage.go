package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Storage persists jobs for one or more named queues. Implementations must make
// ClaimJob atomic: a waiting job is handed to exactly one caller.
type Storage interface {
	// CreateJob stores a new job as waiting, or delayed when ScheduledAt is in the future.
	CreateJob(ctx context.Context, job *Job) error

	// ClaimJob moves the next eligible job of jobType to active and locks it.
	// Returns ErrNoJobToClaim when nothing is eligible or the queue is paused.
	ClaimJob(ctx context.Context, queue, jobType string, workerID uuid.UUID, lock time.Duration) (*Job, error)

	// ExtendLock renews the claim of an active job.
	ExtendLock(ctx context.Context, queue string, jobID uuid.UUID, lock time.Duration) error

	// CompleteJob stores the result and keeps at most keep completed jobs.
	CompleteJob(ctx context.Context, queue string, jobID uuid.UUID, result json.RawMessage, keep int) (*Job, error)

	// RetryJob records a failed attempt and schedules the job for retryAt.
	RetryJob(ctx context.Context, queue string, jobID uuid.UUID, errMsg string, retryAt time.Time) (*Job, error)

	// FailJob records the final failed attempt and keeps at most keep failed jobs.
	FailJob(ctx context.Context, queue string, jobID uuid.UUID, errMsg string, keep int) (*Job, error)

	// RecoverStalled requeues active jobs whose lock expired before now; jobs that
	// already stalled maxStalled times are failed instead.
	RecoverStalled(ctx context.Context, queue string, now time.Time, maxStalled, keepFailed int) (StalledJobs, error)

	// RequeueFailed moves a failed job back to waiting with a fresh attempt budget.
	RequeueFailed(ctx context.Context, queue string, jobID uuid.UUID) (*Job, error)

	GetJob(ctx context.Context, queue string, jobID uuid.UUID) (*Job, error)

	// ListJobs returns up to limit jobs in status, newest first for finished jobs.
	ListJobs(ctx context.Context, queue string, status JobStatus, limit int) ([]*Job, error)

	Counts(ctx context.Context, queue string) (JobCounts, error)

	// Clean removes completed and failed jobs and returns how many were removed.
	Clean(ctx context.Context, queue string) (int, error)

	SetPaused(ctx context.Context, queue string, paused bool) error
	IsPaused(ctx context.Context, queue string) (bool, error)
}
