package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

// FallbackCaloriesPerMinute estimates calories when the model gives no structured plan.
const FallbackCaloriesPerMinute = 8

// WorkoutPreferences are the user's constraints for a generated workout.
type WorkoutPreferences struct {
	Type         string   `json:"type"`
	FitnessLevel string   `json:"fitnessLevel"`
	Goals        []string `json:"goals"`
	Equipment    []string `json:"equipment"`
	Duration     int      `json:"duration"` // minutes
}

// Exercise is one movement of a structured workout.
type Exercise struct {
	Name         string `json:"name"`
	Sets         int    `json:"sets,omitempty"`
	Reps         string `json:"reps,omitempty"`
	Duration     int    `json:"duration,omitempty"` // seconds
	Rest         int    `json:"rest,omitempty"`     // seconds
	Instructions string `json:"instructions,omitempty"`
}

// WorkoutPlan is the outcome of parsing generated text: StructuredWorkout or RawTextFallback.
type WorkoutPlan interface {
	// Record converts the plan into a persisted workout for userID.
	Record(userID string) repository.Workout
	isWorkoutPlan()
}

// StructuredWorkout is a plan the model returned as valid JSON.
type StructuredWorkout struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Difficulty  string     `json:"difficulty"`
	Duration    int        `json:"duration"`
	Calories    int        `json:"calories"`
	Exercises   []Exercise `json:"exercises"`
}

// RawTextFallback keeps unstructured model output as the workout description.
type RawTextFallback struct {
	Text       string
	Type       string
	Difficulty string
	Duration   int
}

func (StructuredWorkout) isWorkoutPlan() {}
func (RawTextFallback) isWorkoutPlan()   {}

func (w StructuredWorkout) Record(userID string) repository.Workout {
	exercises, _ := json.Marshal(w.Exercises)
	return repository.Workout{
		UserID:      userID,
		Name:        w.Name,
		Description: w.Description,
		Type:        w.Type,
		Difficulty:  w.Difficulty,
		Duration:    w.Duration,
		Calories:    w.Calories,
		Exercises:   exercises,
		AIGenerated: true,
	}
}

func (f RawTextFallback) Record(userID string) repository.Workout {
	return repository.Workout{
		UserID:      userID,
		Name:        fmt.Sprintf("AI Generated %s Workout", title(f.Type)),
		Description: f.Text,
		Type:        f.Type,
		Difficulty:  f.Difficulty,
		Duration:    f.Duration,
		Calories:    f.Duration * FallbackCaloriesPerMinute,
		AIGenerated: true,
	}
}

// WorkoutPrompt describes the constraints in natural language and asks for JSON.
func WorkoutPrompt(p WorkoutPreferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-minute %s workout for a %s level person.\n",
		p.Duration, strings.ToLower(p.Type), strings.ToLower(p.FitnessLevel))
	fmt.Fprintf(&b, "Goals: %s.\n", listOrNone(p.Goals))
	fmt.Fprintf(&b, "Available equipment: %s.\n", listOrNone(p.Equipment))
	b.WriteString(`Respond with JSON only, in this shape:
{"name": string, "description": string, "type": string, "difficulty": string,
 "duration": minutes, "calories": estimated kcal,
 "exercises": [{"name": string, "sets": int, "reps": string, "duration": seconds, "rest": seconds, "instructions": string}]}`)
	return b.String()
}

// WorkoutRequest builds the generation request for a workout.
func WorkoutRequest(model string, p WorkoutPreferences) textgen.Request {
	return planRequest(model,
		"You are an expert personal trainer who designs safe, effective workouts.",
		WorkoutPrompt(p))
}

// ParseWorkout turns generated text into a plan. It never fails: text without a
// usable JSON workout becomes a RawTextFallback. Missing fields are filled from prefs.
func ParseWorkout(text string, prefs WorkoutPreferences) WorkoutPlan {
	fallback := RawTextFallback{
		Text:       text,
		Type:       prefs.Type,
		Difficulty: prefs.FitnessLevel,
		Duration:   prefs.Duration,
	}

	raw, ok := extractJSON(text)
	if !ok {
		return fallback
	}
	var w StructuredWorkout
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return fallback
	}
	if w.Name == "" && len(w.Exercises) == 0 {
		return fallback
	}

	if w.Name == "" {
		w.Name = fmt.Sprintf("AI Generated %s Workout", title(prefs.Type))
	}
	if w.Type == "" {
		w.Type = prefs.Type
	}
	if w.Difficulty == "" {
		w.Difficulty = prefs.FitnessLevel
	}
	if w.Duration <= 0 {
		w.Duration = prefs.Duration
	}
	if w.Calories <= 0 {
		w.Calories = w.Duration * FallbackCaloriesPerMinute
	}
	return w
}
