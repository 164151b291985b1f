package analytics

import (
	"math"
	"time"

	"github.com/dmitrymomot/fitqueue/internal/repository"
)

// Snapshot aggregates a user's activity over one timeframe.
type Snapshot struct {
	UserID      string        `json:"userId"`
	Timeframe   Timeframe     `json:"timeframe"`
	Period      Period        `json:"period"`
	Workouts    WorkoutStats  `json:"workouts"`
	Progress    ProgressStats `json:"progress"`
	AI          AIStats       `json:"ai"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type WorkoutStats struct {
	Total           int     `json:"total"`
	TotalDuration   int     `json:"totalDuration"`
	TotalCalories   int     `json:"totalCalories"`
	AverageDuration float64 `json:"averageDuration"`
}

// ProgressStats compares the first and last measurements in the window.
// Changes are zero when fewer than two measurements exist.
type ProgressStats struct {
	Entries       int      `json:"entries"`
	WeightChange  float64  `json:"weightChange"`
	BodyFatChange float64  `json:"bodyFatChange"`
	LatestWeight  *float64 `json:"latestWeight,omitempty"`
}

type AIStats struct {
	Chats int `json:"chats"`
}

// Derive builds a snapshot from the raw records of the window.
// Progress logs are expected oldest first.
func Derive(userID string, tf Timeframe, period Period, workouts []repository.Workout, logs []repository.ProgressLog, chats int) Snapshot {
	s := Snapshot{
		UserID:      userID,
		Timeframe:   tf,
		Period:      period,
		AI:          AIStats{Chats: chats},
		GeneratedAt: period.End,
	}

	for _, w := range workouts {
		s.Workouts.Total++
		s.Workouts.TotalDuration += w.Duration
		s.Workouts.TotalCalories += w.Calories
	}
	if s.Workouts.Total > 0 {
		s.Workouts.AverageDuration = round1(float64(s.Workouts.TotalDuration) / float64(s.Workouts.Total))
	}

	s.Progress.Entries = len(logs)
	var firstWeight, lastWeight, firstFat, lastFat *float64
	for _, l := range logs {
		if l.Weight != nil {
			if firstWeight == nil {
				firstWeight = l.Weight
			}
			lastWeight = l.Weight
		}
		if l.BodyFat != nil {
			if firstFat == nil {
				firstFat = l.BodyFat
			}
			lastFat = l.BodyFat
		}
	}
	if lastWeight != nil {
		latest := *lastWeight
		s.Progress.LatestWeight = &latest
		s.Progress.WeightChange = round1(*lastWeight - *firstWeight)
	}
	if lastFat != nil {
		s.Progress.BodyFatChange = round1(*lastFat - *firstFat)
	}

	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
