package jobs

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/internal/analytics"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

type (
	// AIJob is implemented only by payloads of the ai queue.
	AIJob interface {
		queue.Payload
		aiUserID() string
	}

	// EmailJob is implemented only by payloads of the email queue.
	EmailJob interface {
		queue.Payload
		emailJob()
	}

	// AnalyticsJob is implemented only by payloads of the analytics queue.
	AnalyticsJob interface {
		queue.Payload
		analyticsJob()
	}

	// NotificationJob is implemented only by payloads of the notification queue.
	NotificationJob interface {
		queue.Payload
		notificationJob()
	}

	// WorkoutJob is implemented only by payloads of the workout queue.
	WorkoutJob interface {
		queue.Payload
		workoutJob()
	}
)

// AI queue payloads.
type (
	WorkoutPreferences struct {
		Type string `json:"type"`
	}

	GenerateWorkout struct {
		UserID       string             `json:"userId"`
		Preferences  WorkoutPreferences `json:"preferences"`
		FitnessLevel string             `json:"fitnessLevel"`
		Goals        []string           `json:"goals,omitempty"`
		Equipment    []string           `json:"equipment,omitempty"`
		Duration     int                `json:"duration"` // minutes
	}

	GenerateNutrition struct {
		UserID              string   `json:"userId"`
		DailyCalories       int      `json:"dailyCalories"`
		MealsPerDay         int      `json:"mealsPerDay,omitempty"`
		Goals               []string `json:"goals,omitempty"`
		DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	}

	ChatResponse struct {
		UserID  string            `json:"userId"`
		Message string            `json:"message"`
		History []textgen.Message `json:"history,omitempty"`
	}

	AnalyzeProgress struct {
		UserID    string              `json:"userId"`
		Timeframe analytics.Timeframe `json:"timeframe,omitempty"`
	}
)

func (GenerateWorkout) JobType() string   { return TypeGenerateWorkout }
func (GenerateNutrition) JobType() string { return TypeGenerateNutrition }
func (ChatResponse) JobType() string      { return TypeChatResponse }
func (AnalyzeProgress) JobType() string   { return TypeAnalyzeProgress }

func (p GenerateWorkout) aiUserID() string   { return p.UserID }
func (p GenerateNutrition) aiUserID() string { return p.UserID }
func (p ChatResponse) aiUserID() string      { return p.UserID }
func (p AnalyzeProgress) aiUserID() string   { return p.UserID }

// EmailPayload is the shared shape of every email job.
type EmailPayload struct {
	UserID string         `json:"userId"`
	Email  string         `json:"email"`
	Data   map[string]any `json:"data,omitempty"`
}

// Email queue payloads.
type (
	WelcomeEmail    struct{ EmailPayload }
	WorkoutReminder struct{ EmailPayload }
	ProgressReport  struct{ EmailPayload }
	Newsletter      struct{ EmailPayload }
)

func (WelcomeEmail) JobType() string    { return TypeWelcomeEmail }
func (WorkoutReminder) JobType() string { return TypeWorkoutReminder }
func (ProgressReport) JobType() string  { return TypeProgressReport }
func (Newsletter) JobType() string      { return TypeNewsletter }

func (WelcomeEmail) emailJob()    {}
func (WorkoutReminder) emailJob() {}
func (ProgressReport) emailJob()  {}
func (Newsletter) emailJob()      {}

// UserAnalytics refreshes the cached snapshot of one user.
type UserAnalytics struct {
	UserID    string              `json:"userId"`
	Timeframe analytics.Timeframe `json:"timeframe"`
}

func (UserAnalytics) JobType() string { return TypeUserAnalytics }
func (UserAnalytics) analyticsJob()   {}

// RefreshAnalytics fans out a UserAnalytics job for every user active within
// the timeframe window. It is enqueued by the scheduler.
type RefreshAnalytics struct {
	Timeframe analytics.Timeframe `json:"timeframe"`
}

func (RefreshAnalytics) JobType() string { return TypeRefreshAnalytics }
func (RefreshAnalytics) analyticsJob()   {}

// InApp delivers a notification to the user's list and live channel.
type InApp struct {
	UserID  string         `json:"userId"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (InApp) JobType() string  { return TypeInApp }
func (InApp) notificationJob() {}

// Workout queue payloads.
type (
	CompleteWorkout struct {
		UserID    string    `json:"userId"`
		WorkoutID uuid.UUID `json:"workoutId"`
	}

	CalculateCalories struct {
		UserID    string    `json:"userId"`
		WorkoutID uuid.UUID `json:"workoutId"`
		WeightKg  float64   `json:"weightKg,omitempty"`
	}

	UpdateProgress struct {
		UserID  string   `json:"userId"`
		Weight  *float64 `json:"weight,omitempty"`
		BodyFat *float64 `json:"bodyFat,omitempty"`
		Notes   string   `json:"notes,omitempty"`
	}

	GenerateRecommendations struct {
		UserID    string              `json:"userId"`
		Timeframe analytics.Timeframe `json:"timeframe,omitempty"`
	}
)

func (CompleteWorkout) JobType() string         { return TypeCompleteWorkout }
func (CalculateCalories) JobType() string       { return TypeCalculateCalories }
func (UpdateProgress) JobType() string          { return TypeUpdateProgress }
func (GenerateRecommendations) JobType() string { return TypeGenerateRecommendations }

func (CompleteWorkout) workoutJob()         {}
func (CalculateCalories) workoutJob()       {}
func (UpdateProgress) workoutJob()          {}
func (GenerateRecommendations) workoutJob() {}
