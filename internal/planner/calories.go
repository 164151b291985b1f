package planner

import (
	"math"
	"strings"
)

// DefaultBodyWeight is used for calorie estimates when the user's weight is unknown.
const DefaultBodyWeight = 70.0

// MET values per workout type.
var metByType = map[string]float64{
	"strength":    5.0,
	"cardio":      7.0,
	"hiit":        8.0,
	"running":     9.8,
	"cycling":     7.5,
	"swimming":    6.0,
	"yoga":        2.5,
	"flexibility": 2.5,
	"pilates":     3.0,
}

const defaultMET = 5.0

// EstimateCalories returns kcal burned: MET * 3.5 * kg / 200 per minute.
func EstimateCalories(workoutType string, minutes int, weightKg float64) int {
	if minutes <= 0 {
		return 0
	}
	if weightKg <= 0 {
		weightKg = DefaultBodyWeight
	}
	met, ok := metByType[strings.ToLower(strings.TrimSpace(workoutType))]
	if !ok {
		met = defaultMET
	}
	return int(math.Round(met * 3.5 * weightKg / 200 * float64(minutes)))
}
