package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
)

// Config describes a fixed window: at most Limit hits per Window.
type Config struct {
	Limit  int           `env:"LIMIT" envDefault:"20"`
	Window time.Duration `env:"WINDOW" envDefault:"1h"`
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome of one Allow call.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	allowed   bool
}

// Allowed reports whether the hit fits in the current window.
func (r Result) Allowed() bool {
	return r.allowed
}

// RetryAfter returns how long until the window resets, zero when allowed.
func (r Result) RetryAfter() time.Duration {
	if r.allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// FixedWindow counts hits per key in aligned windows on a kvstore counter.
// The counter is created with the window as TTL, so stale windows expire on their own.
type FixedWindow struct {
	store  kvstore.Store
	cfg    Config
	prefix string
	now    func() time.Time
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithPrefix namespaces counter keys. Defaults to "ratelimit".
func WithPrefix(prefix string) Option {
	return func(fw *FixedWindow) {
		if prefix != "" {
			fw.prefix = prefix
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(fw *FixedWindow) {
		if now != nil {
			fw.now = now
		}
	}
}

// NewFixedWindow validates cfg and creates a limiter over store.
func NewFixedWindow(store kvstore.Store, cfg Config, opts ...Option) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fw := &FixedWindow{store: store, cfg: cfg, prefix: "ratelimit", now: time.Now}
	for _, opt := range opts {
		opt(fw)
	}
	return fw, nil
}

func (fw *FixedWindow) window() (key string, resetAt time.Time) {
	start := fw.now().Truncate(fw.cfg.Window)
	return strconv.FormatInt(start.Unix(), 10), start.Add(fw.cfg.Window)
}

// Allow records one hit for key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	windowID, resetAt := fw.window()

	n, err := fw.store.IncrementWithExpiry(ctx, fw.prefix+":"+key+":"+windowID, fw.cfg.Window)
	if err != nil {
		return Result{}, errors.Join(ErrStoreUnavailable, err)
	}

	return Result{
		Limit:     fw.cfg.Limit,
		Remaining: max(fw.cfg.Limit-int(n), 0),
		ResetAt:   resetAt,
		allowed:   n <= int64(fw.cfg.Limit),
	}, nil
}

// Check is Allow returning ErrRateLimitExceeded when the hit does not fit.
func (fw *FixedWindow) Check(ctx context.Context, key string) error {
	res, err := fw.Allow(ctx, key)
	if err != nil {
		return err
	}
	if !res.Allowed() {
		return fmt.Errorf("%w: retry after %s", ErrRateLimitExceeded, res.RetryAfter().Round(time.Second))
	}
	return nil
}

// Reset clears the current window for key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	windowID, _ := fw.window()
	if err := fw.store.Delete(ctx, fw.prefix+":"+key+":"+windowID); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
