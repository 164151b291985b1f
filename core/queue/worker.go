package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/fitqueue/core/logger"
)

// storageTimeout bounds bookkeeping writes made after a handler returns.
const storageTimeout = 10 * time.Second

// Start runs one dispatch loop per registered job type plus the stall watcher.
// It blocks until the context is cancelled. Use Run() for the errgroup pattern.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return ErrAlreadyRunning
	}
	if len(q.processors) == 0 {
		q.mu.Unlock()
		return ErrNoHandlers
	}

	ctx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.running = true

	processors := make([]*processor, 0, len(q.processors))
	for _, p := range q.processors {
		processors = append(processors, p)
	}

	q.dispatchWG.Add(len(processors) + 1)
	q.mu.Unlock()

	for _, p := range processors {
		go q.dispatch(ctx, p)
	}
	go q.watchStalled(ctx)

	q.logger.InfoContext(ctx, "queue started",
		logger.WorkerID(q.workerID.String()),
		logger.Count("processors", len(processors)))

	<-ctx.Done()
	return ctx.Err()
}

// Stop halts dispatching and waits for running jobs up to the shutdown timeout.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return ErrNotRunning
	}
	cancel := q.cancel
	q.cancel = nil
	q.running = false
	q.mu.Unlock()

	cancel()

	// Dispatch loops are the only callers of jobsWG.Add, so they must exit first.
	q.dispatchWG.Wait()

	q.logger.InfoContext(context.Background(), "queue stopping, waiting for active jobs to complete",
		slog.Duration("timeout", q.opts.shutdownTimeout))

	done := make(chan struct{})
	go func() {
		q.jobsWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.InfoContext(context.Background(), "queue stopped cleanly")
		return nil
	case <-time.After(q.opts.shutdownTimeout):
		q.logger.WarnContext(context.Background(), "queue shutdown timeout exceeded - some jobs may stall",
			slog.Duration("timeout", q.opts.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, q.opts.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the queue, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (q *Queue) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- q.Start(ctx)
		}()

		err := <-errCh
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if stopErr := q.Stop(); stopErr != nil && !errors.Is(stopErr, ErrNotRunning) {
				return stopErr
			}
			return nil
		}
		return err
	}
}

// dispatch claims jobs of one type while slots are free.
func (q *Queue) dispatch(ctx context.Context, p *processor) {
	defer q.dispatchWG.Done()

	jobType := p.handler.JobType()
	ticker := time.NewTicker(q.opts.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		job, err := q.storage.ClaimJob(ctx, q.name, jobType, q.workerID, q.opts.lockDuration)
		if err != nil || job == nil {
			<-p.sem
			if err != nil && !errors.Is(err, ErrNoJobToClaim) && ctx.Err() == nil {
				q.logger.ErrorContext(ctx, "failed to claim job",
					logger.JobType(jobType),
					logger.Error(err))
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-p.wake:
			}
			continue
		}

		q.jobsWG.Add(1)
		go func(job *Job) {
			defer q.jobsWG.Done()
			defer func() { <-p.sem }()
			q.process(p, job)
		}(job)
	}
}

// process runs one attempt of a claimed job and records the outcome.
func (q *Queue) process(p *processor, job *Job) {
	start := time.Now()

	p.active.Add(1)
	defer p.active.Add(-1)

	q.logger.Debug("job active",
		logger.JobID(job.ID.String()),
		logger.JobType(job.Type),
		logger.Attempt(job.AttemptsMade+1, job.MaxAttempts))

	// Attempts get a context independent of queue shutdown so draining jobs can finish.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	stopRenew := q.renewLock(job)
	result, finished, err := q.invoke(ctx, p, job)
	stopRenew()

	// The slot stays taken until the handler really returns, so a handler that
	// overruns its deadline still counts against the concurrency limit.
	defer func() {
		select {
		case <-finished:
		default:
			q.logger.Warn("handler still running after its deadline, holding slot",
				logger.JobID(job.ID.String()),
				logger.JobType(job.Type))
			<-finished
		}
	}()

	duration := time.Since(start)
	if err != nil {
		q.handleFailure(job, err, duration)
		return
	}
	q.handleSuccess(job, result, duration)
}

type handlerResult struct {
	result json.RawMessage
	err    error
}

// invoke calls the handler and reports the outcome once the attempt deadline
// passes, even if the handler ignores its context. finished is closed when the
// handler returns.
func (q *Queue) invoke(ctx context.Context, p *processor, job *Job) (json.RawMessage, <-chan struct{}, error) {
	done := make(chan handlerResult, 1)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		var res handlerResult
		defer func() {
			if r := recover(); r != nil {
				q.logger.Error("handler panicked",
					logger.JobID(job.ID.String()),
					logger.JobType(job.Type),
					slog.Any("panic", r))
				res = handlerResult{err: fmt.Errorf("panic in handler: %v", r)}
			}
			done <- res
		}()
		res.result, res.err = p.handler.Handle(ctx, job)
	}()

	var res handlerResult
	select {
	case res = <-done:
	case <-ctx.Done():
		select {
		case res = <-done:
		default:
			res.err = ctx.Err()
		}
	}

	if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, finished, fmt.Errorf("%w after %s", ErrJobTimeout, p.timeout)
	}
	return res.result, finished, res.err
}

// renewLock keeps the claim alive while the handler runs.
func (q *Queue) renewLock(job *Job) (stop func()) {
	interval := q.opts.lockDuration / 2
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
				err := q.storage.ExtendLock(ctx, q.name, job.ID, q.opts.lockDuration)
				cancel()
				if err != nil {
					q.logger.Warn("failed to extend job lock",
						logger.JobID(job.ID.String()),
						logger.JobType(job.Type),
						logger.Error(err))
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// handleFailure applies the retry policy:
// attempts left -> delayed with exponential backoff, otherwise -> failed (bounded retention).
func (q *Queue) handleFailure(job *Job, execErr error, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	maxAttempts := max(job.MaxAttempts, 1)
	attempt := job.AttemptsMade + 1

	if attempt < maxAttempts && !IsPermanent(execErr) {
		delay := BackoffDelay(job.Backoff, attempt)
		updated, err := q.storage.RetryJob(ctx, q.name, job.ID, execErr.Error(), time.Now().Add(delay))
		if err != nil {
			q.logger.ErrorContext(ctx, "failed to schedule job retry",
				logger.JobID(job.ID.String()),
				logger.JobType(job.Type),
				logger.Error(err))
			return
		}

		q.jobsRetried.Add(1)
		q.logger.WarnContext(ctx, "job attempt failed, retrying",
			logger.JobID(job.ID.String()),
			logger.JobType(job.Type),
			logger.Attempt(attempt, maxAttempts),
			slog.Duration("retry_in", delay),
			logger.Duration(duration),
			logger.Error(execErr))

		q.emit(ctx, Event{
			Type:     EventRetrying,
			Queue:    q.name,
			Job:      updated,
			Err:      execErr,
			Duration: duration,
			RetryIn:  delay,
		})
		return
	}

	updated, err := q.storage.FailJob(ctx, q.name, job.ID, execErr.Error(), q.opts.keepFailed)
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to mark job as failed",
			logger.JobID(job.ID.String()),
			logger.JobType(job.Type),
			logger.Error(err))
		return
	}

	q.jobsFailed.Add(1)
	q.logger.ErrorContext(ctx, "job failed",
		logger.JobID(job.ID.String()),
		logger.JobType(job.Type),
		logger.Attempt(attempt, maxAttempts),
		logger.Duration(duration),
		logger.Error(execErr))

	q.emit(ctx, Event{
		Type:     EventFailed,
		Queue:    q.name,
		Job:      updated,
		Err:      execErr,
		Duration: duration,
	})
}

func (q *Queue) handleSuccess(job *Job, result json.RawMessage, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	updated, err := q.storage.CompleteJob(ctx, q.name, job.ID, result, q.opts.keepCompleted)
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to mark job as completed",
			logger.JobID(job.ID.String()),
			logger.JobType(job.Type),
			logger.Error(err))
		return
	}

	q.jobsCompleted.Add(1)
	q.logger.InfoContext(ctx, "job completed",
		logger.JobID(job.ID.String()),
		logger.JobType(job.Type),
		logger.Attempt(job.AttemptsMade+1, job.MaxAttempts),
		logger.Duration(duration))

	q.emit(ctx, Event{
		Type:     EventCompleted,
		Queue:    q.name,
		Job:      updated,
		Result:   result,
		Duration: duration,
	})
}

// watchStalled periodically recovers jobs whose worker stopped renewing the lock.
func (q *Queue) watchStalled(ctx context.Context) {
	defer q.dispatchWG.Done()

	ticker := time.NewTicker(q.opts.stallInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.recoverStalled(ctx)
		}
	}
}

func (q *Queue) recoverStalled(ctx context.Context) {
	res, err := q.storage.RecoverStalled(ctx, q.name, time.Now(), q.opts.maxStalledCount, q.opts.keepFailed)
	if err != nil {
		if ctx.Err() == nil {
			q.logger.ErrorContext(ctx, "failed to recover stalled jobs", logger.Error(err))
		}
		return
	}

	for _, job := range res.Requeued {
		q.logger.WarnContext(ctx, "job stalled, moved back to waiting",
			logger.JobID(job.ID.String()),
			logger.JobType(job.Type),
			slog.Int("stalled_count", job.StalledCount))
		q.emit(ctx, Event{Type: EventStalled, Queue: q.name, Job: job})
		q.wakeProcessor(job.Type)
	}

	for _, job := range res.Failed {
		q.jobsFailed.Add(1)
		q.logger.ErrorContext(ctx, "job failed",
			logger.JobID(job.ID.String()),
			logger.JobType(job.Type),
			slog.Int("stalled_count", job.StalledCount),
			logger.Error(ErrJobStalled))
		q.emit(ctx, Event{Type: EventStalled, Queue: q.name, Job: job})
		q.emit(ctx, Event{Type: EventFailed, Queue: q.name, Job: job, Err: ErrJobStalled})
	}
}
