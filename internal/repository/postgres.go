package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/fitqueue/integration/database/pg"
)

// DBTX is the subset of pgx used by Postgres; both *pgxpool.Pool and pgx.Tx implement it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is the pgx-backed Store. Calls join the transaction stored in the
// context by pg.WithTx, if any.
type Postgres struct {
	db  DBTX
	now func() time.Time
}

// NewPostgres creates a Store over db.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) conn(ctx context.Context) DBTX {
	if tx, ok := pg.TxFromContext(ctx); ok {
		return tx
	}
	return p.db
}

func wrapErr(op string, err error) error {
	switch {
	case pg.IsNotFoundError(err):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case pg.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	default:
		return fmt.Errorf("%s: %w", op, errors.Join(ErrStorageFailure, err))
	}
}

const workoutColumns = `id, user_id, name, description, type, difficulty, duration, calories,
	exercises, ai_generated, completed, completed_at, created_at`

func scanWorkout(row pgx.Row) (*Workout, error) {
	var w Workout
	var exercises []byte
	if err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.Type, &w.Difficulty,
		&w.Duration, &w.Calories, &exercises, &w.AIGenerated, &w.Completed, &w.CompletedAt, &w.CreatedAt); err != nil {
		return nil, err
	}
	w.Exercises = exercises
	return &w, nil
}

func (p *Postgres) CreateWorkout(ctx context.Context, w *Workout) error {
	if w == nil || w.UserID == "" {
		return ErrInvalidRecord
	}
	stamp(&w.ID, &w.CreatedAt, p.now())

	_, err := p.conn(ctx).Exec(ctx, `
		INSERT INTO workouts (`+workoutColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		w.ID, w.UserID, w.Name, w.Description, w.Type, w.Difficulty, w.Duration, w.Calories,
		nullJSON(w.Exercises), w.AIGenerated, w.Completed, w.CompletedAt, w.CreatedAt)
	if err != nil {
		return wrapErr("create workout", err)
	}
	return nil
}

func (p *Postgres) GetWorkout(ctx context.Context, id uuid.UUID) (*Workout, error) {
	w, err := scanWorkout(p.conn(ctx).QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr("get workout", err)
	}
	return w, nil
}

func (p *Postgres) CompleteWorkout(ctx context.Context, id uuid.UUID, at time.Time) (*Workout, error) {
	w, err := scanWorkout(p.conn(ctx).QueryRow(ctx, `
		UPDATE workouts SET completed = TRUE, completed_at = COALESCE(completed_at, $2)
		WHERE id = $1
		RETURNING `+workoutColumns, id, at))
	if err != nil {
		return nil, wrapErr("complete workout", err)
	}
	return w, nil
}

func (p *Postgres) UpdateWorkoutCalories(ctx context.Context, id uuid.UUID, calories int) error {
	tag, err := p.conn(ctx).Exec(ctx, `UPDATE workouts SET calories = $2 WHERE id = $1`, id, calories)
	if err != nil {
		return wrapErr("update workout calories", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update workout calories: %w", ErrNotFound)
	}
	return nil
}

func (p *Postgres) ListCompletedWorkouts(ctx context.Context, userID string, since time.Time) ([]Workout, error) {
	rows, err := p.conn(ctx).Query(ctx, `
		SELECT `+workoutColumns+` FROM workouts
		WHERE user_id = $1 AND completed AND completed_at >= $2
		ORDER BY completed_at`, userID, since)
	if err != nil {
		return nil, wrapErr("list completed workouts", err)
	}
	defer rows.Close()

	var out []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, wrapErr("scan workout", err)
		}
		out = append(out, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list completed workouts", err)
	}
	return out, nil
}

func (p *Postgres) CreateNutritionPlan(ctx context.Context, n *NutritionPlan) error {
	if n == nil || n.UserID == "" {
		return ErrInvalidRecord
	}
	stamp(&n.ID, &n.CreatedAt, p.now())

	_, err := p.conn(ctx).Exec(ctx, `
		INSERT INTO nutrition_plans (id, user_id, name, description, daily_calories,
			protein, carbs, fat, meals, ai_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		n.ID, n.UserID, n.Name, n.Description, n.DailyCalories,
		n.Protein, n.Carbs, n.Fat, nullJSON(n.Meals), n.AIGenerated, n.CreatedAt)
	if err != nil {
		return wrapErr("create nutrition plan", err)
	}
	return nil
}

func (p *Postgres) CreateProgressLog(ctx context.Context, l *ProgressLog) error {
	if l == nil || l.UserID == "" {
		return ErrInvalidRecord
	}
	stamp(&l.ID, &l.LoggedAt, p.now())

	_, err := p.conn(ctx).Exec(ctx, `
		INSERT INTO progress_logs (id, user_id, weight, body_fat, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.UserID, l.Weight, l.BodyFat, l.Notes, l.LoggedAt)
	if err != nil {
		return wrapErr("create progress log", err)
	}
	return nil
}

func (p *Postgres) ListProgressLogs(ctx context.Context, userID string, since time.Time) ([]ProgressLog, error) {
	rows, err := p.conn(ctx).Query(ctx, `
		SELECT id, user_id, weight, body_fat, notes, logged_at FROM progress_logs
		WHERE user_id = $1 AND logged_at >= $2
		ORDER BY logged_at`, userID, since)
	if err != nil {
		return nil, wrapErr("list progress logs", err)
	}
	defer rows.Close()

	var out []ProgressLog
	for rows.Next() {
		var l ProgressLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Weight, &l.BodyFat, &l.Notes, &l.LoggedAt); err != nil {
			return nil, wrapErr("scan progress log", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list progress logs", err)
	}
	return out, nil
}

func (p *Postgres) CreateChat(ctx context.Context, c *AIChat) error {
	if c == nil || c.UserID == "" {
		return ErrInvalidRecord
	}
	stamp(&c.ID, &c.CreatedAt, p.now())

	_, err := p.conn(ctx).Exec(ctx, `
		INSERT INTO ai_chats (id, user_id, message, response, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Message, c.Response, c.TokensUsed, c.CreatedAt)
	if err != nil {
		return wrapErr("create chat", err)
	}
	return nil
}

func (p *Postgres) CountChats(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := p.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_chats WHERE user_id = $1 AND created_at >= $2`, userID, since).Scan(&n)
	if err != nil {
		return 0, wrapErr("count chats", err)
	}
	return n, nil
}

func (p *Postgres) ListActiveUsers(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := p.conn(ctx).Query(ctx, `
		SELECT user_id FROM (
			SELECT user_id FROM workouts WHERE completed AND completed_at >= $1
			UNION SELECT user_id FROM progress_logs WHERE logged_at >= $1
			UNION SELECT user_id FROM ai_chats WHERE created_at >= $1
		) active
		ORDER BY user_id
		LIMIT NULLIF($2, 0)`, since, limit)
	if err != nil {
		return nil, wrapErr("list active users", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr("list active users", err)
	}
	return users, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
