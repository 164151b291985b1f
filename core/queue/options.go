package queue

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option configures a Queue.
type Option func(*queueOptions)

type queueOptions struct {
	attempts        int
	backoff         time.Duration
	keepCompleted   int
	keepFailed      int
	pollInterval    time.Duration
	stallInterval   time.Duration
	lockDuration    time.Duration
	defaultTimeout  time.Duration
	maxStalledCount int
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// WithDefaultAttempts sets how many times a job is attempted before it fails.
func WithDefaultAttempts(n int) Option {
	return func(o *queueOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

// WithDefaultBackoff sets the base delay of the exponential backoff.
func WithDefaultBackoff(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithKeepCompleted caps the retained completed jobs. Zero keeps none.
func WithKeepCompleted(n int) Option {
	return func(o *queueOptions) {
		if n >= 0 {
			o.keepCompleted = n
		}
	}
}

// WithKeepFailed caps the retained failed jobs. Zero keeps none.
func WithKeepFailed(n int) Option {
	return func(o *queueOptions) {
		if n >= 0 {
			o.keepFailed = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func WithStallInterval(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.stallInterval = d
		}
	}
}

// WithLockDuration sets how long a claim stays valid without renewal.
func WithLockDuration(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.lockDuration = d
		}
	}
}

// WithDefaultTimeout sets the handler deadline for processors without their own timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.defaultTimeout = d
		}
	}
}

// WithMaxStalledCount sets how many times a job may be recovered from a stall.
func WithMaxStalledCount(n int) Option {
	return func(o *queueOptions) {
		if n >= 0 {
			o.maxStalledCount = n
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(o *queueOptions) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *queueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// EnqueueOption configures a single job.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	id       uuid.UUID
	priority Priority
	attempts int
	backoff  time.Duration
	delay    time.Duration
}

func WithPriority(p Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

func WithAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.attempts = n
		}
	}
}

func WithBackoff(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.backoff = d
		}
	}
}

// WithDelay postpones the first attempt.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithJobID overrides the generated id. Enqueueing an existing id fails with ErrJobExists.
func WithJobID(id uuid.UUID) EnqueueOption {
	return func(o *enqueueOptions) {
		o.id = id
	}
}

// ProcessorOption configures a registered handler.
type ProcessorOption func(*processorOptions)

type processorOptions struct {
	concurrency int
	timeout     time.Duration
}

// WithConcurrency caps how many jobs of the type run at once.
func WithConcurrency(n int) ProcessorOption {
	return func(o *processorOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithTimeout bounds a single attempt. Expiry counts as a failed attempt.
// A handler that ignores its context keeps its concurrency slot until it
// returns, and its retry may run while it is still going, so side effects
// must tolerate repetition.
func WithTimeout(d time.Duration) ProcessorOption {
	return func(o *processorOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}
