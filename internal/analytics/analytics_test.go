package analytics_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
)

func TestTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tf     analytics.Timeframe
		window time.Duration
		ttl    time.Duration
	}{
		{analytics.Daily, 24 * time.Hour, time.Hour},
		{analytics.Weekly, 7 * 24 * time.Hour, 24 * time.Hour},
		{analytics.Monthly, 30 * 24 * time.Hour, 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.tf.Valid())
			assert.Equal(t, tt.window, tt.tf.Window())
			assert.Equal(t, tt.ttl, tt.tf.TTL())
		})
	}
	assert.False(t, analytics.Timeframe("yearly").Valid())
}

func seedWorkouts(t *testing.T, store repository.Store, user string, now time.Time) {
	t.Helper()
	ctx := context.Background()
	for i, w := range []struct{ duration, calories int }{{30, 200}, {45, 300}, {20, 150}} {
		rec := &repository.Workout{UserID: user, Name: "w", Duration: w.duration, Calories: w.calories}
		require.NoError(t, store.CreateWorkout(ctx, rec))
		_, err := store.CompleteWorkout(ctx, rec.ID, now.Add(-time.Duration(i+1)*24*time.Hour))
		require.NoError(t, err)
	}
	// Outside the weekly window.
	old := &repository.Workout{UserID: user, Name: "old", Duration: 60, Calories: 500}
	require.NoError(t, store.CreateWorkout(ctx, old))
	_, err := store.CompleteWorkout(ctx, old.ID, now.Add(-10*24*time.Hour))
	require.NoError(t, err)
	// Not completed.
	require.NoError(t, store.CreateWorkout(ctx, &repository.Workout{UserID: user, Name: "todo", Duration: 15}))
}

func TestService_RefreshWeekly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	store := repository.NewMemory()
	kv := kvstore.NewMemory(kvstore.WithClock(func() time.Time { return now }))
	seedWorkouts(t, store, "u1", now)

	w1, w2 := 80.0, 78.5
	require.NoError(t, store.CreateProgressLog(ctx, &repository.ProgressLog{UserID: "u1", Weight: &w1, LoggedAt: now.Add(-6 * 24 * time.Hour)}))
	require.NoError(t, store.CreateProgressLog(ctx, &repository.ProgressLog{UserID: "u1", Weight: &w2, LoggedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.CreateChat(ctx, &repository.AIChat{UserID: "u1", Message: "hi", CreatedAt: now.Add(-time.Hour)}))

	svc := analytics.NewService(store, kv, analytics.WithClock(func() time.Time { return now }))

	snap, err := svc.Refresh(ctx, "u1", analytics.Weekly)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Workouts.Total)
	assert.Equal(t, 95, snap.Workouts.TotalDuration)
	assert.Equal(t, 650, snap.Workouts.TotalCalories)
	assert.InDelta(t, 31.7, snap.Workouts.AverageDuration, 0.001)
	assert.Equal(t, 2, snap.Progress.Entries)
	assert.InDelta(t, -1.5, snap.Progress.WeightChange, 0.001)
	require.NotNil(t, snap.Progress.LatestWeight)
	assert.InDelta(t, 78.5, *snap.Progress.LatestWeight, 0.001)
	assert.Equal(t, 1, snap.AI.Chats)
	assert.Equal(t, now.Add(-7*24*time.Hour), snap.Period.Start)

	raw, err := kv.Get(ctx, "analytics:u1:weekly")
	require.NoError(t, err)
	var cached analytics.Snapshot
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, 650, cached.Workouts.TotalCalories)

	// Daily TTL is one hour.
	_, err = svc.Refresh(ctx, "u1", analytics.Daily)
	require.NoError(t, err)
	now = now.Add(61 * time.Minute)
	_, err = svc.Cached(ctx, "u1", analytics.Daily)
	assert.ErrorIs(t, err, analytics.ErrNotCached)
	_, err = svc.Cached(ctx, "u1", analytics.Weekly)
	assert.NoError(t, err)
}

func TestService_Validation(t *testing.T) {
	t.Parallel()

	svc := analytics.NewService(repository.NewMemory(), kvstore.NewMemory())

	_, err := svc.Compute(context.Background(), "", analytics.Daily)
	assert.ErrorIs(t, err, analytics.ErrEmptyUserID)

	_, err = svc.Compute(context.Background(), "u", "hourly")
	assert.ErrorIs(t, err, analytics.ErrInvalidTimeframe)
}

func TestService_GetFallsBackToRefresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := kvstore.NewMemory()
	svc := analytics.NewService(repository.NewMemory(), kv)

	_, err := svc.Cached(ctx, "u2", analytics.Monthly)
	require.ErrorIs(t, err, analytics.ErrNotCached)

	snap, err := svc.Get(ctx, "u2", analytics.Monthly)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Workouts.Total)
	assert.Zero(t, snap.Workouts.AverageDuration)
	assert.Nil(t, snap.Progress.LatestWeight)

	_, err = kv.Get(ctx, analytics.CacheKey("u2", analytics.Monthly))
	assert.NoError(t, err)
}
