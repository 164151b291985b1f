package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks the lifecycle state of a job.
type JobStatus string

const (
	JobStatusWaiting   JobStatus = "waiting"
	JobStatusDelayed   JobStatus = "delayed"
	JobStatusActive    JobStatus = "active"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusWaiting, JobStatusDelayed, JobStatusActive, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Priority represents job priority (0-100, higher is more important).
// Jobs with equal priority are claimed in submission order.
type Priority int8

const (
	PriorityMin     Priority = 0
	PriorityLow     Priority = 25
	PriorityMedium  Priority = 50
	PriorityHigh    Priority = 75
	PriorityMax     Priority = 100
	PriorityDefault Priority = PriorityMedium
)

// Valid checks if the priority is within the allowed range (0-100).
func (p Priority) Valid() bool {
	return p >= PriorityMin && p <= PriorityMax
}

// Job is a single typed unit of queued work.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	Queue        string          `json:"queue"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Priority     Priority        `json:"priority"`
	Status       JobStatus       `json:"status"`
	AttemptsMade int             `json:"attempts_made"`
	MaxAttempts  int             `json:"max_attempts"`
	Backoff      time.Duration   `json:"backoff"`
	StalledCount int             `json:"stalled_count"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	LockedUntil  *time.Time      `json:"locked_until,omitempty"`
	LockedBy     *uuid.UUID      `json:"locked_by,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// clone returns a deep copy so storages never hand out their internal pointers.
func (j *Job) clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	if j.Payload != nil {
		c.Payload = append(json.RawMessage(nil), j.Payload...)
	}
	if j.Result != nil {
		c.Result = append(json.RawMessage(nil), j.Result...)
	}
	if j.LockedUntil != nil {
		t := *j.LockedUntil
		c.LockedUntil = &t
	}
	if j.LockedBy != nil {
		id := *j.LockedBy
		c.LockedBy = &id
	}
	if j.ProcessedAt != nil {
		t := *j.ProcessedAt
		c.ProcessedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// JobCounts is a point-in-time snapshot of a queue.
type JobCounts struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Paused    bool  `json:"paused"`
}

// StalledJobs is the outcome of one stall recovery pass.
type StalledJobs struct {
	// Requeued jobs went back to waiting.
	Requeued []*Job
	// Failed jobs exceeded the stall limit and were moved to the failed list.
	Failed []*Job
}
