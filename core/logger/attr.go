package logger

import (
	"log/slog"
	"time"
)

// Helpers that may receive zero values return an empty slog.Attr, which
// handlers drop, so call sites never need a nil or empty check:
//
//	log.Info("job finished", logger.JobID(id), logger.Error(err))

// Error records err under "error", or nothing when err is nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Duration records a measured span.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed records time since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

func Component(name string) slog.Attr { return slog.String("component", name) }
func Event(name string) slog.Attr     { return slog.String("event", name) }
func Action(name string) slog.Attr    { return slog.String("action", name) }

// Count records n under key, e.g. logger.Count("removed", 12).
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Queue names the job queue a record belongs to.
func Queue(name string) slog.Attr {
	return slog.String("queue", name)
}

func JobID(id string) slog.Attr {
	return optional("job_id", id)
}

// JobType records the processor tag, e.g. "generate_workout".
func JobType(t string) slog.Attr {
	return slog.String("job_type", t)
}

// Attempt renders as attempt.made=2 attempt.max=3 in text output.
func Attempt(made, max int) slog.Attr {
	return slog.Group("attempt", slog.Int("made", made), slog.Int("max", max))
}

func WorkerID(id string) slog.Attr {
	return slog.String("worker_id", id)
}

func UserID(id string) slog.Attr {
	return optional("user_id", id)
}

// Tokens records text generation usage reported by the provider.
func Tokens(n int64) slog.Attr {
	return slog.Int64("tokens_used", n)
}

func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}
