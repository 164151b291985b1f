package planner

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dmitrymomot/fitqueue/internal/repository"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

// Macros are daily targets in grams.
type Macros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// MacroTargets splits daily calories 30/40/30 across protein, carbs and fat
// (4, 4 and 9 kcal per gram), rounded to whole grams.
func MacroTargets(dailyCalories int) Macros {
	return Macros{
		Protein: int(math.Round(float64(dailyCalories*3) / 40)),
		Carbs:   int(math.Round(float64(dailyCalories*4) / 40)),
		Fat:     int(math.Round(float64(dailyCalories*3) / 90)),
	}
}

// NutritionPreferences are the user's constraints for a generated meal plan.
type NutritionPreferences struct {
	DailyCalories       int      `json:"dailyCalories"`
	MealsPerDay         int      `json:"mealsPerDay"`
	Goals               []string `json:"goals"`
	DietaryRestrictions []string `json:"dietaryRestrictions"`
}

// Meal is one entry of a structured meal plan.
type Meal struct {
	Name        string   `json:"name"`
	Time        string   `json:"time,omitempty"`
	Calories    int      `json:"calories,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
}

// NutritionPlan is the outcome of parsing generated text: StructuredNutrition or RawNutritionFallback.
type NutritionPlan interface {
	// Record converts the plan into a persisted plan. Macros always come from MacroTargets.
	Record(userID string, dailyCalories int) repository.NutritionPlan
	isNutritionPlan()
}

// StructuredNutrition is a meal plan the model returned as valid JSON.
type StructuredNutrition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Meals       []Meal `json:"meals"`
}

// RawNutritionFallback keeps unstructured model output as the plan description.
type RawNutritionFallback struct {
	Text string
}

func (StructuredNutrition) isNutritionPlan()  {}
func (RawNutritionFallback) isNutritionPlan() {}

func (n StructuredNutrition) Record(userID string, dailyCalories int) repository.NutritionPlan {
	meals, _ := json.Marshal(n.Meals)
	m := MacroTargets(dailyCalories)
	return repository.NutritionPlan{
		UserID:        userID,
		Name:          n.Name,
		Description:   n.Description,
		DailyCalories: dailyCalories,
		Protein:       m.Protein,
		Carbs:         m.Carbs,
		Fat:           m.Fat,
		Meals:         meals,
		AIGenerated:   true,
	}
}

func (f RawNutritionFallback) Record(userID string, dailyCalories int) repository.NutritionPlan {
	m := MacroTargets(dailyCalories)
	return repository.NutritionPlan{
		UserID:        userID,
		Name:          fmt.Sprintf("AI Generated %d kcal Meal Plan", dailyCalories),
		Description:   f.Text,
		DailyCalories: dailyCalories,
		Protein:       m.Protein,
		Carbs:         m.Carbs,
		Fat:           m.Fat,
		AIGenerated:   true,
	}
}

// NutritionPrompt describes the constraints and the fixed macro targets.
func NutritionPrompt(p NutritionPreferences) string {
	m := MacroTargets(p.DailyCalories)
	meals := p.MealsPerDay
	if meals <= 0 {
		meals = 3
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a one-day meal plan with %d meals totaling about %d kcal.\n", meals, p.DailyCalories)
	fmt.Fprintf(&b, "Macro targets: %dg protein, %dg carbs, %dg fat.\n", m.Protein, m.Carbs, m.Fat)
	fmt.Fprintf(&b, "Goals: %s.\n", listOrNone(p.Goals))
	fmt.Fprintf(&b, "Dietary restrictions: %s.\n", listOrNone(p.DietaryRestrictions))
	b.WriteString(`Respond with JSON only, in this shape:
{"name": string, "description": string,
 "meals": [{"name": string, "time": string, "calories": int, "ingredients": [string]}]}`)
	return b.String()
}

// NutritionRequest builds the generation request for a meal plan.
func NutritionRequest(model string, p NutritionPreferences) textgen.Request {
	return planRequest(model,
		"You are a registered dietitian who designs balanced, realistic meal plans.",
		NutritionPrompt(p))
}

// ParseNutrition turns generated text into a plan. It never fails.
func ParseNutrition(text string) NutritionPlan {
	raw, ok := extractJSON(text)
	if !ok {
		return RawNutritionFallback{Text: text}
	}
	var n StructuredNutrition
	if err := json.Unmarshal([]byte(raw), &n); err != nil || (n.Name == "" && len(n.Meals) == 0) {
		return RawNutritionFallback{Text: text}
	}
	if n.Name == "" {
		n.Name = "AI Generated Meal Plan"
	}
	return n
}
