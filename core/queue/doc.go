// Package queue provides named background job queues with typed processors,
// bounded retries with exponential backoff, capped retention of finished jobs,
// lifecycle events and pause control.
//
// # Features
//
//   - Named queues, each owning the processors for its job types
//   - Per-type concurrency limits and attempt timeouts
//   - Priority ordering (0-100, higher first) with FIFO within a priority
//   - Exponential backoff: base * 2^(attempt-1), 3 attempts by default
//   - Retention caps: 100 completed and 50 failed jobs by default
//   - Stall recovery for jobs whose worker stopped renewing its lock
//   - Events for completed, failed, retrying and stalled jobs
//   - Memory storage for tests and Redis storage for production
//   - Graceful shutdown compatible with errgroup
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/fitqueue/core/queue"
//
//	type WelcomeEmail struct {
//		UserID string `json:"user_id"`
//	}
//
//	func (WelcomeEmail) JobType() string { return "send-welcome-email" }
//
//	storage := queue.NewMemoryStorage()
//	emails, err := queue.New("email", storage, queue.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	err = emails.Register(queue.NewProcessor(func(ctx context.Context, p WelcomeEmail) (SendResult, error) {
//		return sender.SendWelcome(ctx, p.UserID)
//	}), queue.WithConcurrency(5))
//
//	job, err := queue.Add(ctx, emails, WelcomeEmail{UserID: "u1"})
//
// Enqueue returns as soon as the job is stored. The job result is kept on the
// job record and can be read with GetJob once the job completed.
//
// # Running
//
// Start blocks until its context is cancelled; Run adapts it for errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(emails.Run(ctx))
//	g.Go(notifications.Run(ctx))
//	if err := g.Wait(); err != nil {
//		log.Error("queues stopped", logger.Error(err))
//	}
//
// Stop waits for running jobs up to the shutdown timeout and then returns
// ErrShutdownTimeout. Jobs left active are picked up again by stall recovery.
//
// # Retries and Failures
//
// A failed attempt is retried while attempts remain, after BackoffDelay.
// Errors wrapped with Permanent, undecodable payloads and exhausted attempts
// move the job to the failed list. Failed jobs are never resubmitted
// automatically; RetryJob resubmits one with a fresh attempt budget.
//
//	if errors.Is(err, ErrUserNotFound) {
//		return nil, queue.Permanent(err)
//	}
//
// An attempt that exceeds the processor timeout (WithTimeout, 2 minutes by
// default) fails with ErrJobTimeout. A handler panic is recovered and counts
// as a failed attempt.
//
// # Events
//
//	notifications.On(queue.EventFailed, func(ctx context.Context, e queue.Event) {
//		log.ErrorContext(ctx, "notification failed", logger.JobID(e.Job.ID.String()), logger.Error(e.Err))
//	})
//
// Listeners run on the worker goroutine. A panicking listener is logged and ignored.
//
// # Control
//
// Pause stores a flag in the storage, so every process sharing the storage stops
// claiming jobs of that queue. Running jobs finish normally. Counts, Jobs, Clean
// and RetryJob expose the queue state for admin tooling.
//
// # Periodic Jobs
//
// A Scheduler enqueues a payload into a queue on a fixed schedule:
//
//	s := queue.NewScheduler(queue.WithSchedulerLogger(log))
//	if err := s.Add("analytics-refresh", queue.DailyAt(3, 0), analyticsQueue, RefreshAnalytics{}); err != nil {
//		return err
//	}
//	g.Go(s.Run(ctx))
//
// Every, DailyAt and WeeklyAt compute slots in UTC. Each slot gets a deterministic
// job ID (see SlotJobID), so replicas sharing a storage enqueue a slot once.
// Slots missed while the process was down collapse into a single job.
//
// # Storage
//
// RedisStorage keeps every key of a queue under one hash tag and claims jobs with
// a Lua script, so several processes can share a queue safely:
//
//	storage, err := queue.NewRedisStorage(redisClient, queue.WithRedisPrefix("fitqueue"))
//
// Custom backends implement the Storage interface. ClaimJob must be atomic.
package queue
