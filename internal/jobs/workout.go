package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/internal/planner"
	"github.com/dmitrymomot/fitqueue/internal/repository"
)

// ownedWorkout loads a workout and checks it belongs to userID.
// Missing or foreign workouts fail permanently.
func (r *Registry) ownedWorkout(ctx context.Context, userID string, id uuid.UUID) (*repository.Workout, error) {
	if userID == "" {
		return nil, queue.Permanent(ErrMissingUserID)
	}
	w, err := r.deps.Store.GetWorkout(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, queue.Permanent(err)
	}
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, queue.Permanent(ErrWorkoutOwnership)
	}
	return w, nil
}

func (r *Registry) chainAnalytics(ctx context.Context, userID string) Chained {
	return r.chain(ctx, QueueAnalytics, UserAnalytics{UserID: userID, Timeframe: analytics.Weekly}, userID)
}

func (r *Registry) completeWorkout(ctx context.Context, p CompleteWorkout) (CompleteWorkoutResult, error) {
	if _, err := r.ownedWorkout(ctx, p.UserID, p.WorkoutID); err != nil {
		return CompleteWorkoutResult{}, err
	}

	w, err := r.deps.Store.CompleteWorkout(ctx, p.WorkoutID, r.now())
	if err != nil {
		return CompleteWorkoutResult{}, fmt.Errorf("failed to complete workout: %w", err)
	}

	return CompleteWorkoutResult{
		WorkoutID:   w.ID,
		CompletedAt: *w.CompletedAt,
		Analytics:   r.chainAnalytics(ctx, p.UserID),
	}, nil
}

func (r *Registry) calculateCalories(ctx context.Context, p CalculateCalories) (CalculateCaloriesResult, error) {
	w, err := r.ownedWorkout(ctx, p.UserID, p.WorkoutID)
	if err != nil {
		return CalculateCaloriesResult{}, err
	}

	kcal := planner.EstimateCalories(w.Type, w.Duration, p.WeightKg)
	if err := r.deps.Store.UpdateWorkoutCalories(ctx, w.ID, kcal); err != nil {
		return CalculateCaloriesResult{}, fmt.Errorf("failed to update workout calories: %w", err)
	}
	return CalculateCaloriesResult{WorkoutID: w.ID, Calories: kcal}, nil
}

func (r *Registry) updateProgress(ctx context.Context, p UpdateProgress) (UpdateProgressResult, error) {
	if p.UserID == "" {
		return UpdateProgressResult{}, queue.Permanent(ErrMissingUserID)
	}
	if p.Weight == nil && p.BodyFat == nil {
		return UpdateProgressResult{}, queue.Permanent(ErrEmptyProgress)
	}

	entry := repository.ProgressLog{
		UserID:   p.UserID,
		Weight:   p.Weight,
		BodyFat:  p.BodyFat,
		Notes:    p.Notes,
		LoggedAt: r.now(),
	}
	if err := r.deps.Store.CreateProgressLog(ctx, &entry); err != nil {
		return UpdateProgressResult{}, fmt.Errorf("failed to save progress log: %w", err)
	}

	return UpdateProgressResult{LogID: entry.ID, Analytics: r.chainAnalytics(ctx, p.UserID)}, nil
}

func (r *Registry) generateRecommendations(ctx context.Context, p GenerateRecommendations) (RecommendationsResult, error) {
	tf := p.Timeframe
	if tf == "" {
		tf = analytics.Weekly
	}

	snap, err := r.analytics.Get(ctx, p.UserID, tf)
	if errors.Is(err, analytics.ErrEmptyUserID) || errors.Is(err, analytics.ErrInvalidTimeframe) {
		return RecommendationsResult{}, queue.Permanent(err)
	}
	if err != nil {
		return RecommendationsResult{}, err
	}

	recs := planner.Recommendations(snap)
	note := r.notifyUser(ctx, p.UserID,
		fmt.Sprintf("Your %s recommendations", tf),
		strings.Join(recs, "\n"),
		map[string]any{"type": "recommendations", "timeframe": string(tf), "items": recs})

	return RecommendationsResult{Recommendations: recs, Notification: note}, nil
}
