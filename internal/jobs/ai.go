package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/internal/planner"
	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

const (
	defaultWorkoutDuration = 30
	defaultWorkoutType     = "full body"
	defaultFitnessLevel    = "intermediate"
	maxNotificationText    = 280
)

// generate calls the text generator and logs usage. Generator errors are returned
// for the queue to retry.
func (r *Registry) generate(ctx context.Context, kind, userID string, req textgen.Request) (textgen.Completion, error) {
	start := time.Now()
	out, err := r.deps.Generator.Generate(ctx, req)
	if err != nil {
		r.logger.WarnContext(ctx, "text generation failed",
			slog.String("kind", kind),
			logger.UserID(userID),
			logger.Elapsed(start),
			logger.Error(err))
		return textgen.Completion{}, fmt.Errorf("%s generation: %w", kind, err)
	}

	r.logger.InfoContext(ctx, "text generation completed",
		slog.String("kind", kind),
		logger.UserID(userID),
		logger.Tokens(int64(out.TokensUsed)),
		logger.Elapsed(start))
	return out, nil
}

func (r *Registry) generateWorkout(ctx context.Context, p GenerateWorkout) (GenerateWorkoutResult, error) {
	if p.UserID == "" {
		return GenerateWorkoutResult{}, queue.Permanent(ErrMissingUserID)
	}

	prefs := planner.WorkoutPreferences{
		Type:         p.Preferences.Type,
		FitnessLevel: p.FitnessLevel,
		Goals:        p.Goals,
		Equipment:    p.Equipment,
		Duration:     p.Duration,
	}
	if prefs.Type == "" {
		prefs.Type = defaultWorkoutType
	}
	if prefs.FitnessLevel == "" {
		prefs.FitnessLevel = defaultFitnessLevel
	}
	if prefs.Duration <= 0 {
		prefs.Duration = defaultWorkoutDuration
	}

	out, err := r.generate(ctx, TypeGenerateWorkout, p.UserID, planner.WorkoutRequest("", prefs))
	if err != nil {
		return GenerateWorkoutResult{}, err
	}

	plan := planner.ParseWorkout(out.Text, prefs)
	_, structured := plan.(planner.StructuredWorkout)
	if !structured {
		r.logger.WarnContext(ctx, "generated workout is not structured, keeping raw text",
			logger.UserID(p.UserID))
	}

	workout := plan.Record(p.UserID)
	if err := r.deps.Store.CreateWorkout(ctx, &workout); err != nil {
		return GenerateWorkoutResult{}, fmt.Errorf("failed to save generated workout: %w", err)
	}

	note := r.notifyUser(ctx, p.UserID,
		"Your workout is ready",
		fmt.Sprintf("%s (%d min) has been added to your plan.", workout.Name, workout.Duration),
		map[string]any{"type": "workout-generated", "workoutId": workout.ID.String()})

	return GenerateWorkoutResult{
		Success:      true,
		WorkoutID:    workout.ID,
		Workout:      workout,
		TokensUsed:   out.TokensUsed,
		Structured:   structured,
		Notification: note,
	}, nil
}

func (r *Registry) generateNutrition(ctx context.Context, p GenerateNutrition) (GenerateNutritionResult, error) {
	if p.UserID == "" {
		return GenerateNutritionResult{}, queue.Permanent(ErrMissingUserID)
	}
	if p.DailyCalories <= 0 {
		return GenerateNutritionResult{}, queue.Permanent(ErrInvalidCalories)
	}

	prefs := planner.NutritionPreferences{
		DailyCalories:       p.DailyCalories,
		MealsPerDay:         p.MealsPerDay,
		Goals:               p.Goals,
		DietaryRestrictions: p.DietaryRestrictions,
	}
	out, err := r.generate(ctx, TypeGenerateNutrition, p.UserID, planner.NutritionRequest("", prefs))
	if err != nil {
		return GenerateNutritionResult{}, err
	}

	parsed := planner.ParseNutrition(out.Text)
	_, structured := parsed.(planner.StructuredNutrition)

	plan := parsed.Record(p.UserID, p.DailyCalories)
	if err := r.deps.Store.CreateNutritionPlan(ctx, &plan); err != nil {
		return GenerateNutritionResult{}, fmt.Errorf("failed to save nutrition plan: %w", err)
	}

	note := r.notifyUser(ctx, p.UserID,
		"Your meal plan is ready",
		fmt.Sprintf("%s: %dg protein, %dg carbs, %dg fat.", plan.Name, plan.Protein, plan.Carbs, plan.Fat),
		map[string]any{"type": "nutrition-generated", "planId": plan.ID.String()})

	return GenerateNutritionResult{
		Success:      true,
		PlanID:       plan.ID,
		Plan:         plan,
		TokensUsed:   out.TokensUsed,
		Structured:   structured,
		Notification: note,
	}, nil
}

func (r *Registry) chatResponse(ctx context.Context, p ChatResponse) (ChatResult, error) {
	if p.UserID == "" {
		return ChatResult{}, queue.Permanent(ErrMissingUserID)
	}
	if p.Message == "" {
		return ChatResult{}, queue.Permanent(ErrEmptyMessage)
	}

	out, err := r.generate(ctx, TypeChatResponse, p.UserID, planner.ChatRequest("", p.History, p.Message))
	if err != nil {
		return ChatResult{}, err
	}

	chat := repository.AIChat{
		UserID:     p.UserID,
		Message:    p.Message,
		Response:   out.Text,
		TokensUsed: out.TokensUsed,
		CreatedAt:  r.now(),
	}
	if err := r.deps.Store.CreateChat(ctx, &chat); err != nil {
		return ChatResult{}, fmt.Errorf("failed to save chat: %w", err)
	}

	return ChatResult{ChatID: chat.ID, Response: out.Text, TokensUsed: out.TokensUsed}, nil
}

func (r *Registry) analyzeProgress(ctx context.Context, p AnalyzeProgress) (AnalyzeProgressResult, error) {
	if p.UserID == "" {
		return AnalyzeProgressResult{}, queue.Permanent(ErrMissingUserID)
	}
	tf := p.Timeframe
	if tf == "" {
		tf = analytics.Weekly
	}

	snap, err := r.analytics.Compute(ctx, p.UserID, tf)
	if errors.Is(err, analytics.ErrInvalidTimeframe) {
		return AnalyzeProgressResult{}, queue.Permanent(err)
	}
	if err != nil {
		return AnalyzeProgressResult{}, err
	}

	logs, err := r.deps.Store.ListProgressLogs(ctx, p.UserID, snap.Period.Start)
	if err != nil {
		return AnalyzeProgressResult{}, fmt.Errorf("failed to load progress logs: %w", err)
	}

	out, err := r.generate(ctx, TypeAnalyzeProgress, p.UserID, planner.ProgressRequest("", logs, snap))
	if err != nil {
		return AnalyzeProgressResult{}, err
	}

	note := r.notifyUser(ctx, p.UserID,
		"Your progress analysis is ready",
		truncate(out.Text, maxNotificationText),
		map[string]any{"type": "progress-analysis", "timeframe": string(tf)})

	return AnalyzeProgressResult{Analysis: out.Text, TokensUsed: out.TokensUsed, Notification: note}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
