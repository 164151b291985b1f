package repository

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workout is a planned or completed training session.
type Workout struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Difficulty  string          `json:"difficulty"`
	Duration    int             `json:"duration"` // minutes
	Calories    int             `json:"calories"`
	Exercises   json.RawMessage `json:"exercises,omitempty"`
	AIGenerated bool            `json:"aiGenerated"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NutritionPlan is a daily meal plan with macro targets in grams.
type NutritionPlan struct {
	ID            uuid.UUID       `json:"id"`
	UserID        string          `json:"userId"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	DailyCalories int             `json:"dailyCalories"`
	Protein       int             `json:"protein"`
	Carbs         int             `json:"carbs"`
	Fat           int             `json:"fat"`
	Meals         json.RawMessage `json:"meals,omitempty"`
	AIGenerated   bool            `json:"aiGenerated"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ProgressLog is a body measurement entry. Nil measurements were not recorded.
type ProgressLog struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"userId"`
	Weight   *float64  `json:"weight,omitempty"`
	BodyFat  *float64  `json:"bodyFat,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	LoggedAt time.Time `json:"loggedAt"`
}

// AIChat is one question/answer exchange with the assistant.
type AIChat struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"userId"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	TokensUsed int       `json:"tokensUsed"`
	CreatedAt  time.Time `json:"createdAt"`
}
