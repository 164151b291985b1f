package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/internal/repository"
)

// Chained reports a best-effort follow-up job enqueued by a processor.
// A failed enqueue does not fail the primary job; Error carries the reason.
type Chained struct {
	Enqueued bool   `json:"enqueued"`
	JobID    string `json:"jobId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type GenerateWorkoutResult struct {
	Success      bool               `json:"success"`
	WorkoutID    uuid.UUID          `json:"workoutId"`
	Workout      repository.Workout `json:"workout"`
	TokensUsed   int                `json:"tokensUsed"`
	Structured   bool               `json:"structured"`
	Notification Chained            `json:"notification"`
}

type GenerateNutritionResult struct {
	Success      bool                     `json:"success"`
	PlanID       uuid.UUID                `json:"planId"`
	Plan         repository.NutritionPlan `json:"plan"`
	TokensUsed   int                      `json:"tokensUsed"`
	Structured   bool                     `json:"structured"`
	Notification Chained                  `json:"notification"`
}

type ChatResult struct {
	ChatID     uuid.UUID `json:"chatId"`
	Response   string    `json:"response"`
	TokensUsed int       `json:"tokensUsed"`
}

type AnalyzeProgressResult struct {
	Analysis     string  `json:"analysis"`
	TokensUsed   int     `json:"tokensUsed"`
	Notification Chained `json:"notification"`
}

type EmailResult struct {
	EmailID string `json:"emailId"`
}

type RefreshAnalyticsResult struct {
	Timeframe analytics.Timeframe `json:"timeframe"`
	Users     int                 `json:"users"`
	Enqueued  int                 `json:"enqueued"`
	Failed    int                 `json:"failed"`
}

type CompleteWorkoutResult struct {
	WorkoutID   uuid.UUID `json:"workoutId"`
	CompletedAt time.Time `json:"completedAt"`
	Analytics   Chained   `json:"analytics"`
}

type CalculateCaloriesResult struct {
	WorkoutID uuid.UUID `json:"workoutId"`
	Calories  int       `json:"calories"`
}

type UpdateProgressResult struct {
	LogID     uuid.UUID `json:"logId"`
	Analytics Chained   `json:"analytics"`
}

type RecommendationsResult struct {
	Recommendations []string `json:"recommendations"`
	Notification    Chained  `json:"notification"`
}
