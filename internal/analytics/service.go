package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
)

// CacheKey is the kv key of a cached snapshot.
func CacheKey(userID string, tf Timeframe) string {
	return "analytics:" + userID + ":" + string(tf)
}

// Service computes snapshots from the repository and caches them in the kv store.
// It never writes anything besides the cache entry.
type Service struct {
	store  repository.Store
	kv     kvstore.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates an analytics service.
func NewService(store repository.Store, kv kvstore.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		kv:     kv,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("analytics"))
	return s
}

// Compute reads the window's records concurrently and derives the snapshot.
func (s *Service) Compute(ctx context.Context, userID string, tf Timeframe) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, ErrEmptyUserID
	}
	if !tf.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidTimeframe, tf)
	}

	end := s.now()
	period := Period{Start: end.Add(-tf.Window()), End: end}

	var (
		workouts []repository.Workout
		logs     []repository.ProgressLog
		chats    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		workouts, err = s.store.ListCompletedWorkouts(gctx, userID, period.Start)
		return err
	})
	g.Go(func() error {
		var err error
		logs, err = s.store.ListProgressLogs(gctx, userID, period.Start)
		return err
	})
	g.Go(func() error {
		var err error
		chats, err = s.store.CountChats(gctx, userID, period.Start)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load analytics data: %w", err)
	}

	return Derive(userID, tf, period, workouts, logs, chats), nil
}

// Refresh computes the snapshot and caches it with the timeframe's TTL.
func (s *Service) Refresh(ctx context.Context, userID string, tf Timeframe) (Snapshot, error) {
	start := time.Now()

	snap, err := s.Compute(ctx, userID, tf)
	if err != nil {
		return Snapshot{}, err
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.kv.SetWithExpiry(ctx, CacheKey(userID, tf), raw, tf.TTL()); err != nil {
		return Snapshot{}, fmt.Errorf("failed to cache snapshot: %w", err)
	}

	s.logger.DebugContext(ctx, "analytics snapshot cached",
		logger.UserID(userID),
		slog.String("timeframe", string(tf)),
		logger.Count("workouts", snap.Workouts.Total),
		logger.Elapsed(start))

	return snap, nil
}

// Cached returns the cached snapshot or ErrNotCached.
func (s *Service) Cached(ctx context.Context, userID string, tf Timeframe) (Snapshot, error) {
	raw, err := s.kv.Get(ctx, CacheKey(userID, tf))
	if errors.Is(err, kvstore.ErrNotFound) {
		return Snapshot{}, ErrNotCached
	}
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return snap, nil
}

// Get returns the cached snapshot, computing and caching it on a miss.
func (s *Service) Get(ctx context.Context, userID string, tf Timeframe) (Snapshot, error) {
	snap, err := s.Cached(ctx, userID, tf)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, ErrNotCached) {
		s.logger.WarnContext(ctx, "analytics cache read failed", logger.Error(err))
	}
	return s.Refresh(ctx, userID, tf)
}
