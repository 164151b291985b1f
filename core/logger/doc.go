// Package logger provides structured logging utilities built on Go's standard slog package.
//
// New builds a *slog.Logger for an environment (text at debug level for development,
// JSON at info level for production) and the attribute helpers keep keys consistent
// across the job subsystem:
//
//	log := logger.New(logger.WithEnvironment("fitqueue", "production"))
//
//	log.Info("job completed",
//		logger.Queue("ai"),
//		logger.JobID(job.ID.String()),
//		logger.JobType("generate-workout"),
//		logger.Duration(time.Since(start)),
//	)
//
// Helpers that take optional values (Error, JobID, UserID) return an empty slog.Attr
// for zero input, which slog drops, so callers never need nil checks.
package logger
