package repository

import (
	"context"
	"embed"
	"time"

	"github.com/google/uuid"
)

// Migrations holds the goose migrations for the Postgres store, under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Store persists the records produced and read by background jobs.
// Create methods assign ID and timestamps when they are zero.
type Store interface {
	CreateWorkout(ctx context.Context, w *Workout) error
	GetWorkout(ctx context.Context, id uuid.UUID) (*Workout, error)
	CompleteWorkout(ctx context.Context, id uuid.UUID, at time.Time) (*Workout, error)
	UpdateWorkoutCalories(ctx context.Context, id uuid.UUID, calories int) error
	// ListCompletedWorkouts returns workouts completed at or after since, oldest first.
	ListCompletedWorkouts(ctx context.Context, userID string, since time.Time) ([]Workout, error)

	CreateNutritionPlan(ctx context.Context, p *NutritionPlan) error

	CreateProgressLog(ctx context.Context, l *ProgressLog) error
	// ListProgressLogs returns entries logged at or after since, oldest first.
	ListProgressLogs(ctx context.Context, userID string, since time.Time) ([]ProgressLog, error)

	CreateChat(ctx context.Context, c *AIChat) error
	CountChats(ctx context.Context, userID string, since time.Time) (int, error)

	// ListActiveUsers returns the ids of users who completed a workout, logged
	// progress or chatted at or after since, sorted. A limit of zero means no limit.
	ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error)
}

func stamp(id *uuid.UUID, at *time.Time, now time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if at.IsZero() {
		*at = now
	}
}
