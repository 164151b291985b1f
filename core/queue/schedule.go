package queue

import (
	"fmt"
	"time"
)

// Schedule yields the fire times of a periodic job.
type Schedule interface {
	// Next returns the first fire time strictly after t.
	Next(t time.Time) time.Time
	String() string
}

type everySchedule time.Duration

// Every fires at multiples of d since the zero time, so every process
// computes the same slots regardless of when it started.
func Every(d time.Duration) Schedule {
	if d <= 0 {
		d = time.Minute
	}
	return everySchedule(d)
}

func (s everySchedule) Next(t time.Time) time.Time {
	d := time.Duration(s)
	return t.Truncate(d).Add(d)
}

func (s everySchedule) String() string {
	return "every " + time.Duration(s).String()
}

type dailySchedule struct {
	hour, minute int
}

// DailyAt fires once a day at hour:minute UTC.
func DailyAt(hour, minute int) Schedule {
	return dailySchedule{hour: clamp(hour, 0, 23), minute: clamp(minute, 0, 59)}
}

func (s dailySchedule) Next(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), s.hour, s.minute, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s dailySchedule) String() string {
	return fmt.Sprintf("daily at %02d:%02d UTC", s.hour, s.minute)
}

type weeklySchedule struct {
	day  time.Weekday
	time dailySchedule
}

// WeeklyAt fires once a week on day at hour:minute UTC.
func WeeklyAt(day time.Weekday, hour, minute int) Schedule {
	return weeklySchedule{day: day % 7, time: DailyAt(hour, minute).(dailySchedule)}
}

func (s weeklySchedule) Next(t time.Time) time.Time {
	next := s.time.Next(t)
	for next.Weekday() != s.day {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s weeklySchedule) String() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d UTC", s.day, s.time.hour, s.time.minute)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
