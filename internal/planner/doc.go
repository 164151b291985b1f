// Package planner builds generation requests for workouts, meal plans, chat and
// progress analysis, and turns generated text into records.
//
// Model output is untrusted. ParseWorkout and ParseNutrition never fail: text
// without a usable JSON object yields the RawTextFallback or RawNutritionFallback
// variant, which keeps the text as the description. Nutrition macros always come
// from MacroTargets, whatever the model returned.
package planner
