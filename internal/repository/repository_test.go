package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/integration/database/pg"
	"github.com/dmitrymomot/fitqueue/internal/repository"
)

func runStoreSuite(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()
	user := "user-" + uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("workout lifecycle", func(t *testing.T) {
		w := &repository.Workout{
			UserID:      user,
			Name:        "Leg day",
			Duration:    45,
			Exercises:   json.RawMessage(`[{"name":"squat"}]`),
			AIGenerated: true,
		}
		require.NoError(t, store.CreateWorkout(ctx, w))
		require.NotEqual(t, uuid.Nil, w.ID)

		got, err := store.GetWorkout(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "Leg day", got.Name)
		assert.False(t, got.Completed)
		assert.JSONEq(t, `[{"name":"squat"}]`, string(got.Exercises))

		require.NoError(t, store.UpdateWorkoutCalories(ctx, w.ID, 360))

		done, err := store.CompleteWorkout(ctx, w.ID, now)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, 360, done.Calories)
		require.NotNil(t, done.CompletedAt)

		list, err := store.ListCompletedWorkouts(ctx, user, now.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, w.ID, list[0].ID)

		list, err = store.ListCompletedWorkouts(ctx, user, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("missing workout", func(t *testing.T) {
		_, err := store.GetWorkout(ctx, uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = store.CompleteWorkout(ctx, uuid.New(), now)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.ErrorIs(t, store.UpdateWorkoutCalories(ctx, uuid.New(), 1), repository.ErrNotFound)
	})

	t.Run("invalid records", func(t *testing.T) {
		assert.ErrorIs(t, store.CreateWorkout(ctx, &repository.Workout{}), repository.ErrInvalidRecord)
		assert.ErrorIs(t, store.CreateNutritionPlan(ctx, nil), repository.ErrInvalidRecord)
		assert.ErrorIs(t, store.CreateProgressLog(ctx, &repository.ProgressLog{}), repository.ErrInvalidRecord)
		assert.ErrorIs(t, store.CreateChat(ctx, &repository.AIChat{}), repository.ErrInvalidRecord)
	})

	t.Run("nutrition plan", func(t *testing.T) {
		p := &repository.NutritionPlan{UserID: user, Name: "Cut", DailyCalories: 2000, Protein: 150, Carbs: 200, Fat: 67}
		require.NoError(t, store.CreateNutritionPlan(ctx, p))
		assert.NotEqual(t, uuid.Nil, p.ID)
		assert.False(t, p.CreatedAt.IsZero())
	})

	t.Run("progress logs in window", func(t *testing.T) {
		w1, w2 := 82.5, 81.0
		require.NoError(t, store.CreateProgressLog(ctx, &repository.ProgressLog{UserID: user, Weight: &w1, LoggedAt: now.Add(-48 * time.Hour)}))
		require.NoError(t, store.CreateProgressLog(ctx, &repository.ProgressLog{UserID: user, Weight: &w2, LoggedAt: now.Add(-time.Hour)}))
		require.NoError(t, store.CreateProgressLog(ctx, &repository.ProgressLog{UserID: user, LoggedAt: now.Add(-40 * 24 * time.Hour)}))

		logs, err := store.ListProgressLogs(ctx, user, now.Add(-7*24*time.Hour))
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.InDelta(t, 82.5, *logs[0].Weight, 0.001)
		assert.InDelta(t, 81.0, *logs[1].Weight, 0.001)
	})

	t.Run("chats", func(t *testing.T) {
		for range 2 {
			require.NoError(t, store.CreateChat(ctx, &repository.AIChat{UserID: user, Message: "q", Response: "a", TokensUsed: 10}))
		}
		require.NoError(t, store.CreateChat(ctx, &repository.AIChat{UserID: user, Message: "old", CreatedAt: now.Add(-60 * 24 * time.Hour)}))

		n, err := store.CountChats(ctx, user, now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("active users", func(t *testing.T) {
		idle := "idle-" + uuid.NewString()
		require.NoError(t, store.CreateChat(ctx, &repository.AIChat{UserID: idle, Message: "old", CreatedAt: now.Add(-90 * 24 * time.Hour)}))

		users, err := store.ListActiveUsers(ctx, now.Add(-7*24*time.Hour), 0)
		require.NoError(t, err)
		assert.Contains(t, users, user)
		assert.NotContains(t, users, idle)
		assert.IsNonDecreasing(t, users)

		users, err = store.ListActiveUsers(ctx, now.Add(-7*24*time.Hour), 1)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()
	runStoreSuite(t, repository.NewMemory())
}

func TestMemory_FailNext(t *testing.T) {
	t.Parallel()

	store := repository.NewMemory()
	boom := errors.New("db down")
	store.FailNext(boom)

	err := store.CreateWorkout(context.Background(), &repository.Workout{UserID: "u"})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, store.CreateWorkout(context.Background(), &repository.Workout{UserID: "u"}))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("PG_CONN_URL")
	if dsn == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: dsn,
		MaxOpenConns:     4,
		MaxIdleConns:     1,
		RetryAttempts:    1,
		RetryInterval:    time.Second,
		MigrationsPath:   "migrations",
		MigrationsTable:  "schema_migrations",
	}

	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, repository.Migrations, cfg, nil))
	store := repository.NewPostgres(pool)
	runStoreSuite(t, store)

	t.Run("rolled back transaction", func(t *testing.T) {
		w := &repository.Workout{UserID: "tx-" + uuid.NewString(), Name: "Discarded"}
		boom := errors.New("calorie estimate failed")

		err := pg.InTx(ctx, pool, func(ctx context.Context) error {
			require.NoError(t, store.CreateWorkout(ctx, w))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.GetWorkout(ctx, w.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
