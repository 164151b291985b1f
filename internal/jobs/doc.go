// Package jobs defines the application's background queues and their processors.
//
// Five queues share one queue.Storage:
//
//   - ai: generate-workout, generate-nutrition, chat-response, analyze-progress
//   - email: welcome, workout-reminder, progress-report, newsletter
//   - analytics: user-analytics, refresh-analytics
//   - notification: in-app
//   - workout: complete-workout, calculate-calories, update-progress, generate-recommendations
//
// Payloads form a closed set per queue (AIJob, EmailJob, AnalyticsJob,
// NotificationJob, WorkoutJob), so the typed Enqueue methods only accept jobs of
// the matching queue:
//
//	reg, err := jobs.NewRegistry(jobs.Deps{
//		Storage:   storage,
//		Store:     store,
//		KV:        kv,
//		Generator: gen,
//		Email:     sender,
//	}, jobs.WithLogger(log), jobs.WithQueueConfig(queueCfg))
//	if err != nil {
//		return err
//	}
//
//	g.Go(func() error { return reg.Run(ctx) })
//
//	job, err := reg.EnqueueAI(ctx, jobs.GenerateWorkout{
//		UserID:      userID,
//		Preferences: jobs.WorkoutPreferences{Type: "strength"},
//		Duration:    45,
//	})
//
// AI jobs are rate limited per user at enqueue time and return
// ratelimiter.ErrRateLimitExceeded when over the limit.
//
// # Chaining
//
// AI processors enqueue an in-app notification once their record is saved, and
// workout processors enqueue an analytics refresh. These follow-up jobs are best
// effort: a failed enqueue is logged with event "side_effect_failed" and reported
// in the result's Chained field, while the primary job still succeeds.
//
// # Periodic jobs
//
// Registry.Run also runs a queue.Scheduler. By default it enqueues
// refresh-analytics daily at ANALYTICS_REFRESH_AT (03:00 UTC), which fans out a
// user-analytics job for every user active in the past week.
//
// # Failures
//
// Generator, store and sender errors are returned to the queue and retried with
// backoff. Invalid payloads (missing user, bad email, unknown workout) fail
// permanently. Unstructured model output is not an error: the plan falls back to
// the raw text.
package jobs
