package jobs

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/fitqueue/core/queue"
)

// Queue names.
const (
	QueueAI           = "ai"
	QueueEmail        = "email"
	QueueAnalytics    = "analytics"
	QueueNotification = "notification"
	QueueWorkout      = "workout"
)

// QueueNames lists every domain queue in a stable order.
func QueueNames() []string {
	return []string{QueueAI, QueueEmail, QueueAnalytics, QueueNotification, QueueWorkout}
}

// Job types.
const (
	TypeGenerateWorkout   = "generate-workout"
	TypeGenerateNutrition = "generate-nutrition"
	TypeChatResponse      = "chat-response"
	TypeAnalyzeProgress   = "analyze-progress"

	TypeWelcomeEmail    = "welcome"
	TypeWorkoutReminder = "workout-reminder"
	TypeProgressReport  = "progress-report"
	TypeNewsletter      = "newsletter"

	TypeUserAnalytics    = "user-analytics"
	TypeRefreshAnalytics = "refresh-analytics"

	TypeInApp = "in-app"

	TypeCompleteWorkout         = "complete-workout"
	TypeCalculateCalories       = "calculate-calories"
	TypeUpdateProgress          = "update-progress"
	TypeGenerateRecommendations = "generate-recommendations"
)

// Processor concurrency per job type.
const (
	concurrencyGenerateWorkout   = 5
	concurrencyGenerateNutrition = 3
	concurrencyChatResponse      = 5
	concurrencyAnalyzeProgress   = 3
	concurrencyUserAnalytics     = 10
	concurrencyRefreshAnalytics  = 1
	concurrencyEmail             = 5
	concurrencyInApp             = 10
	concurrencyWorkout           = 5
)

// Config holds domain settings of the job layer.
type Config struct {
	// AIRateLimit is the number of AI jobs a user may enqueue per AIRateWindow. Zero disables the limit.
	AIRateLimit  int           `env:"AI_RATE_LIMIT" envDefault:"20"`
	AIRateWindow time.Duration `env:"AI_RATE_WINDOW" envDefault:"1h"`
	// AppURL is linked from emails.
	AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`

	// AnalyticsRefreshAt is the daily UTC time ("HH:MM") at which snapshots of
	// recently active users are refreshed. Empty disables the refresh.
	AnalyticsRefreshAt string `env:"ANALYTICS_REFRESH_AT" envDefault:"03:00"`
	// AnalyticsRefreshBatch caps the users refreshed per run. Zero means no cap.
	AnalyticsRefreshBatch int `env:"ANALYTICS_REFRESH_BATCH" envDefault:"1000"`
}

// DefaultConfig returns the defaults used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		AIRateLimit:           20,
		AIRateWindow:          time.Hour,
		AppURL:                "http://localhost:3000",
		AnalyticsRefreshAt:    "03:00",
		AnalyticsRefreshBatch: 1000,
	}
}

// refreshSchedule parses AnalyticsRefreshAt. A nil schedule means disabled.
func (c Config) refreshSchedule() (queue.Schedule, error) {
	if c.AnalyticsRefreshAt == "" {
		return nil, nil
	}
	at, err := time.Parse("15:04", c.AnalyticsRefreshAt)
	if err != nil {
		return nil, fmt.Errorf("%w: ANALYTICS_REFRESH_AT=%q", ErrInvalidSchedule, c.AnalyticsRefreshAt)
	}
	return queue.DailyAt(at.Hour(), at.Minute()), nil
}
