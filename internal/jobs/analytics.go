package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/analytics"
)

func (r *Registry) userAnalytics(ctx context.Context, p UserAnalytics) (analytics.Snapshot, error) {
	tf := p.Timeframe
	if tf == "" {
		tf = analytics.Weekly
	}

	snap, err := r.analytics.Refresh(ctx, p.UserID, tf)
	if errors.Is(err, analytics.ErrEmptyUserID) || errors.Is(err, analytics.ErrInvalidTimeframe) {
		return analytics.Snapshot{}, queue.Permanent(err)
	}
	return snap, err
}

// refreshAnalytics chains one user-analytics job per active user. A failed
// chain is counted, not retried, so one bad enqueue does not repeat the fan-out.
func (r *Registry) refreshAnalytics(ctx context.Context, p RefreshAnalytics) (RefreshAnalyticsResult, error) {
	tf := p.Timeframe
	if tf == "" {
		tf = analytics.Weekly
	}
	if !tf.Valid() {
		return RefreshAnalyticsResult{}, queue.Permanent(fmt.Errorf("%w: %q", analytics.ErrInvalidTimeframe, tf))
	}

	users, err := r.deps.Store.ListActiveUsers(ctx, r.now().Add(-tf.Window()), r.cfg.AnalyticsRefreshBatch)
	if err != nil {
		return RefreshAnalyticsResult{}, fmt.Errorf("failed to list active users: %w", err)
	}

	res := RefreshAnalyticsResult{Timeframe: tf, Users: len(users)}
	for _, userID := range users {
		if c := r.chain(ctx, QueueAnalytics, UserAnalytics{UserID: userID, Timeframe: tf}, userID); c.Enqueued {
			res.Enqueued++
		} else {
			res.Failed++
		}
	}

	r.logger.InfoContext(ctx, "analytics refresh fanned out",
		logger.Action("refresh_analytics"),
		logger.Count("users", res.Users),
		logger.Count("failed", res.Failed))
	return res, nil
}
