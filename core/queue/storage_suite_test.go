package queue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/queue"
)

func testJob(queueName, jobType string, prio queue.Priority, at time.Time) *queue.Job {
	return &queue.Job{
		ID:          uuid.New(),
		Queue:       queueName,
		Type:        jobType,
		Payload:     json.RawMessage(`{"n":1}`),
		Priority:    prio,
		MaxAttempts: 3,
		Backoff:     time.Second,
		ScheduledAt: at,
		CreatedAt:   at,
	}
}

// runStorageSuite checks the behavior every Storage implementation must share.
func runStorageSuite(t *testing.T, newStorage func(t *testing.T) queue.Storage) {
	t.Helper()

	ctx := context.Background()
	worker := uuid.New()
	past := time.Now().Add(-time.Minute)

	claim := func(t *testing.T, s queue.Storage, q, jobType string) *queue.Job {
		t.Helper()
		job, err := s.ClaimJob(ctx, q, jobType, worker, time.Minute)
		require.NoError(t, err)
		require.NotNil(t, job)
		return job
	}

	t.Run("claims by priority then submission order", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		low := testJob(q, "t", 10, past)
		mid1 := testJob(q, "t", 50, past.Add(time.Millisecond))
		high := testJob(q, "t", 90, past.Add(2*time.Millisecond))
		mid2 := testJob(q, "t", 50, past.Add(3*time.Millisecond))
		for _, j := range []*queue.Job{low, mid1, high, mid2} {
			require.NoError(t, s.CreateJob(ctx, j))
		}

		for _, want := range []*queue.Job{high, mid1, mid2, low} {
			got := claim(t, s, q, "t")
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, queue.JobStatusActive, got.Status)
			require.NotNil(t, got.LockedBy)
			assert.Equal(t, worker, *got.LockedBy)
		}

		_, err := s.ClaimJob(ctx, q, "t", worker, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("claims only the requested type", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		require.NoError(t, s.CreateJob(ctx, testJob(q, "a", 50, past)))

		_, err := s.ClaimJob(ctx, q, "b", worker, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

		_, err = s.ClaimJob(ctx, uuid.NewString(), "a", worker, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		assert.ErrorIs(t, s.CreateJob(ctx, job), queue.ErrJobExists)
	})

	t.Run("future jobs are delayed", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, time.Now().Add(time.Hour))
		require.NoError(t, s.CreateJob(ctx, job))

		_, err := s.ClaimJob(ctx, q, "t", worker, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

		counts, err := s.Counts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts.Delayed)
		assert.Equal(t, int64(0), counts.Waiting)

		got, err := s.GetJob(ctx, q, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusDelayed, got.Status)
	})

	t.Run("retry schedules the next attempt", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		claim(t, s, q, "t")

		retried, err := s.RetryJob(ctx, q, job.ID, "boom", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusDelayed, retried.Status)
		assert.Equal(t, 1, retried.AttemptsMade)
		assert.Equal(t, "boom", retried.Error)

		_, err = s.ClaimJob(ctx, q, "t", worker, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)
	})

	t.Run("due retries are claimable again", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		claim(t, s, q, "t")

		_, err := s.RetryJob(ctx, q, job.ID, "boom", time.Now().Add(-time.Second))
		require.NoError(t, err)

		again := claim(t, s, q, "t")
		assert.Equal(t, job.ID, again.ID)
		assert.Equal(t, 1, again.AttemptsMade)
	})

	t.Run("complete stores result and caps retention", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		var ids []uuid.UUID
		for i := range 3 {
			job := testJob(q, "t", 50, past.Add(time.Duration(i)*time.Millisecond))
			require.NoError(t, s.CreateJob(ctx, job))
			claim(t, s, q, "t")
			done, err := s.CompleteJob(ctx, q, job.ID, json.RawMessage(`{"ok":true}`), 2)
			require.NoError(t, err)
			assert.Equal(t, queue.JobStatusCompleted, done.Status)
			assert.Equal(t, 1, done.AttemptsMade)
			assert.NotNil(t, done.FinishedAt)
			ids = append(ids, job.ID)
		}

		counts, err := s.Counts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts.Completed)

		_, err = s.GetJob(ctx, q, ids[0])
		assert.ErrorIs(t, err, queue.ErrJobNotFound)

		kept, err := s.GetJob(ctx, q, ids[2])
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(kept.Result))

		list, err := s.ListJobs(ctx, q, queue.JobStatusCompleted, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, ids[2], list[0].ID)
		assert.Equal(t, ids[1], list[1].ID)
	})

	t.Run("zero retention keeps nothing", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		claim(t, s, q, "t")
		_, err := s.CompleteJob(ctx, q, job.ID, nil, 0)
		require.NoError(t, err)

		_, err = s.GetJob(ctx, q, job.ID)
		assert.ErrorIs(t, err, queue.ErrJobNotFound)
	})

	t.Run("fail caps retention", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		var last *queue.Job
		for i := range 3 {
			job := testJob(q, "t", 50, past.Add(time.Duration(i)*time.Millisecond))
			require.NoError(t, s.CreateJob(ctx, job))
			claim(t, s, q, "t")
			failed, err := s.FailJob(ctx, q, job.ID, "fatal", 1)
			require.NoError(t, err)
			assert.Equal(t, queue.JobStatusFailed, failed.Status)
			assert.Equal(t, "fatal", failed.Error)
			last = failed
		}

		list, err := s.ListJobs(ctx, q, queue.JobStatusFailed, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, last.ID, list[0].ID)
	})

	t.Run("finishing requires an active job", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))

		_, err := s.CompleteJob(ctx, q, job.ID, nil, 10)
		assert.ErrorIs(t, err, queue.ErrJobNotActive)
		_, err = s.FailJob(ctx, q, job.ID, "x", 10)
		assert.ErrorIs(t, err, queue.ErrJobNotActive)
		assert.ErrorIs(t, s.ExtendLock(ctx, q, job.ID, time.Minute), queue.ErrJobNotActive)

		_, err = s.CompleteJob(ctx, q, uuid.New(), nil, 10)
		assert.ErrorIs(t, err, queue.ErrJobNotFound)
	})

	t.Run("extend lock pushes expiry forward", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		_, err := s.ClaimJob(ctx, q, "t", worker, time.Millisecond)
		require.NoError(t, err)

		require.NoError(t, s.ExtendLock(ctx, q, job.ID, time.Hour))

		res, err := s.RecoverStalled(ctx, q, time.Now().Add(time.Minute), 1, 10)
		require.NoError(t, err)
		assert.Empty(t, res.Requeued)
		assert.Empty(t, res.Failed)
	})

	t.Run("stalled jobs are requeued then failed", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		claim(t, s, q, "t")

		later := time.Now().Add(time.Hour)
		res, err := s.RecoverStalled(ctx, q, later, 1, 10)
		require.NoError(t, err)
		require.Len(t, res.Requeued, 1)
		assert.Empty(t, res.Failed)
		assert.Equal(t, 1, res.Requeued[0].StalledCount)
		assert.Equal(t, queue.JobStatusWaiting, res.Requeued[0].Status)

		claim(t, s, q, "t")
		res, err = s.RecoverStalled(ctx, q, later, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, res.Requeued)
		require.Len(t, res.Failed, 1)
		assert.Equal(t, queue.ErrJobStalled.Error(), res.Failed[0].Error)

		counts, err := s.Counts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts.Failed)
		assert.Equal(t, int64(0), counts.Active)
	})

	t.Run("requeue failed resets attempts", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		job := testJob(q, "t", 50, past)
		require.NoError(t, s.CreateJob(ctx, job))
		claim(t, s, q, "t")
		_, err := s.FailJob(ctx, q, job.ID, "fatal", 10)
		require.NoError(t, err)

		requeued, err := s.RequeueFailed(ctx, q, job.ID)
		require.NoError(t, err)
		assert.Equal(t, queue.JobStatusWaiting, requeued.Status)
		assert.Zero(t, requeued.AttemptsMade)
		assert.Empty(t, requeued.Error)

		_, err = s.RequeueFailed(ctx, q, job.ID)
		assert.ErrorIs(t, err, queue.ErrJobNotFailed)
		_, err = s.RequeueFailed(ctx, q, uuid.New())
		assert.ErrorIs(t, err, queue.ErrJobNotFound)

		assert.Equal(t, job.ID, claim(t, s, q, "t").ID)
	})

	t.Run("paused queue hands out nothing", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		require.NoError(t, s.CreateJob(ctx, testJob(q, "t", 50, past)))
		require.NoError(t, s.SetPaused(ctx, q, true))

		paused, err := s.IsPaused(ctx, q)
		require.NoError(t, err)
		assert.True(t, paused)

		_, err = s.ClaimJob(ctx, q, "t", worker, time.Minute)
		assert.ErrorIs(t, err, queue.ErrNoJobToClaim)

		counts, err := s.Counts(ctx, q)
		require.NoError(t, err)
		assert.True(t, counts.Paused)
		assert.Equal(t, int64(1), counts.Waiting)

		require.NoError(t, s.SetPaused(ctx, q, false))
		claim(t, s, q, "t")
	})

	t.Run("clean removes only finished jobs", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		done := testJob(q, "t", 90, past)
		failed := testJob(q, "t", 80, past)
		waiting := testJob(q, "t", 10, past)
		for _, j := range []*queue.Job{done, failed, waiting} {
			require.NoError(t, s.CreateJob(ctx, j))
		}

		claim(t, s, q, "t")
		_, err := s.CompleteJob(ctx, q, done.ID, nil, 10)
		require.NoError(t, err)
		claim(t, s, q, "t")
		_, err = s.FailJob(ctx, q, failed.ID, "x", 10)
		require.NoError(t, err)

		n, err := s.Clean(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		counts, err := s.Counts(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, queue.JobCounts{Waiting: 1}, counts)

		_, err = s.GetJob(ctx, q, done.ID)
		assert.ErrorIs(t, err, queue.ErrJobNotFound)
	})

	t.Run("lists waiting jobs in claim order", func(t *testing.T) {
		t.Parallel()
		s, q := newStorage(t), uuid.NewString()

		a := testJob(q, "a", 20, past)
		b := testJob(q, "b", 70, past)
		require.NoError(t, s.CreateJob(ctx, a))
		require.NoError(t, s.CreateJob(ctx, b))

		list, err := s.ListJobs(ctx, q, queue.JobStatusWaiting, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, b.ID, list[0].ID)
		assert.Equal(t, a.ID, list[1].ID)

		_, err = s.ListJobs(ctx, q, queue.JobStatus("bogus"), 10)
		assert.ErrorIs(t, err, queue.ErrInvalidStatusFilter)
	})
}
