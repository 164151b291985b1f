package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fitqueue/core/logger"
)

// EventType names a job lifecycle transition.
type EventType string

const (
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventStalled   EventType = "stalled"
	// EventRetrying fires when an attempt failed and another one is scheduled.
	EventRetrying EventType = "retrying"
)

// Event describes a lifecycle transition of one job.
type Event struct {
	Type     EventType
	Queue    string
	Job      *Job
	Result   json.RawMessage
	Err      error
	Duration time.Duration
	// RetryIn is set for EventRetrying.
	RetryIn time.Duration
}

// Listener observes lifecycle events. Listeners run on the worker goroutine
// and must not block.
type Listener func(ctx context.Context, e Event)

func (q *Queue) emit(ctx context.Context, e Event) {
	q.mu.RLock()
	listeners := append([]Listener(nil), q.listeners[e.Type]...)
	q.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					q.logger.ErrorContext(ctx, "event listener panicked",
						logger.Queue(q.name),
						logger.Event(string(e.Type)),
						slog.Any("panic", r))
				}
			}()
			l(ctx, e)
		}()
	}
}

// On registers a listener for an event type.
func (q *Queue) On(t EventType, l Listener) {
	if l == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners[t] = append(q.listeners[t], l)
}
