package queue

import "time"

// Config holds queue defaults. Every domain queue is built from the same Config.
type Config struct {
	Attempts        int           `env:"QUEUE_ATTEMPTS" envDefault:"3"`
	Backoff         time.Duration `env:"QUEUE_BACKOFF" envDefault:"2s"`
	KeepCompleted   int           `env:"QUEUE_KEEP_COMPLETED" envDefault:"100"`
	KeepFailed      int           `env:"QUEUE_KEEP_FAILED" envDefault:"50"`
	PollInterval    time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	StallInterval   time.Duration `env:"QUEUE_STALL_INTERVAL" envDefault:"30s"`
	LockDuration    time.Duration `env:"QUEUE_LOCK_DURATION" envDefault:"30s"`
	JobTimeout      time.Duration `env:"QUEUE_JOB_TIMEOUT" envDefault:"2m"`
	MaxStalledCount int           `env:"QUEUE_MAX_STALLED_COUNT" envDefault:"1"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// SchedulerInterval is how often periodic jobs are checked for due fire times.
	SchedulerInterval time.Duration `env:"QUEUE_SCHEDULER_INTERVAL" envDefault:"30s"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Attempts:        DefaultAttempts,
		Backoff:         DefaultBackoff,
		KeepCompleted:   DefaultKeepCompleted,
		KeepFailed:      DefaultKeepFailed,
		PollInterval:    time.Second,
		StallInterval:   30 * time.Second,
		LockDuration:    30 * time.Second,
		JobTimeout:      2 * time.Minute,
		MaxStalledCount: 1,
		ShutdownTimeout: 30 * time.Second,

		SchedulerInterval: 30 * time.Second,
	}
}

// Options converts the config into queue options. Zero values are ignored by the options.
func (c Config) Options() []Option {
	return []Option{
		WithDefaultAttempts(c.Attempts),
		WithDefaultBackoff(c.Backoff),
		WithKeepCompleted(c.KeepCompleted),
		WithKeepFailed(c.KeepFailed),
		WithPollInterval(c.PollInterval),
		WithStallInterval(c.StallInterval),
		WithLockDuration(c.LockDuration),
		WithDefaultTimeout(c.JobTimeout),
		WithMaxStalledCount(c.MaxStalledCount),
		WithShutdownTimeout(c.ShutdownTimeout),
	}
}
