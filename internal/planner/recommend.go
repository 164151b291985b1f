package planner

import "github.com/dmitrymomot/fitqueue/internal/analytics"

// Recommendations derives simple coaching tips from a snapshot.
// The result is never empty.
func Recommendations(s analytics.Snapshot) []string {
	var out []string

	target := 3
	switch s.Timeframe {
	case analytics.Daily:
		target = 1
	case analytics.Monthly:
		target = 12
	}

	switch {
	case s.Workouts.Total == 0:
		out = append(out, "Start small: schedule two 20-minute sessions this week.")
	case s.Workouts.Total < target:
		out = append(out, "Add one more session to reach a consistent routine.")
	}
	if s.Workouts.Total > 0 && s.Workouts.AverageDuration < 20 {
		out = append(out, "Extend your sessions toward 30 minutes for better results.")
	}
	if s.Workouts.AverageDuration > 75 {
		out = append(out, "Long sessions add up; plan a recovery day between them.")
	}
	if s.Progress.Entries == 0 {
		out = append(out, "Log your weight once a week to track progress.")
	}
	if s.Progress.WeightChange < -1.0 && s.Timeframe != analytics.Monthly {
		out = append(out, "Weight is dropping fast; make sure you eat enough protein.")
	}
	if s.AI.Chats == 0 {
		out = append(out, "Ask the AI coach to adjust your plan as you progress.")
	}

	if len(out) == 0 {
		out = append(out, "Great consistency! Keep up the current routine.")
	}
	return out
}
