package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/queue"
)

// QueueStats is the state of one queue as reported by GetQueueStats.
type QueueStats struct {
	Name      string `json:"name"`
	Waiting   int64  `json:"waiting"`
	Delayed   int64  `json:"delayed"`
	Active    int64  `json:"active"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
	Paused    bool   `json:"paused"`
}

// Manager is the cross-queue operational control surface.
type Manager struct {
	queues []*queue.Queue
	byName map[string]*queue.Queue
}

// NewManager creates a manager over queues, reported in the given order.
func NewManager(queues ...*queue.Queue) *Manager {
	m := &Manager{queues: queues, byName: make(map[string]*queue.Queue, len(queues))}
	for _, q := range queues {
		m.byName[q.Name()] = q
	}
	return m
}

// GetQueueStats returns counts for every queue. It never mutates queue state.
func (m *Manager) GetQueueStats(ctx context.Context) ([]QueueStats, error) {
	out := make([]QueueStats, 0, len(m.queues))
	for _, q := range m.queues {
		c, err := q.Counts(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, QueueStats{
			Name:      q.Name(),
			Waiting:   c.Waiting,
			Delayed:   c.Delayed,
			Active:    c.Active,
			Completed: c.Completed,
			Failed:    c.Failed,
			Paused:    c.Paused,
		})
	}
	return out, nil
}

// ClearAllQueues removes completed and failed job records from every queue.
// Waiting, delayed and active jobs are kept. Returns the number of removed records.
func (m *Manager) ClearAllQueues(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, q := range m.queues {
		n, err := q.Clean(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}
	return total, errors.Join(errs...)
}

// PauseAllQueues stops dispatch on every queue. Running jobs finish.
func (m *Manager) PauseAllQueues(ctx context.Context) error {
	var errs []error
	for _, q := range m.queues {
		if err := q.Pause(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ResumeAllQueues restarts dispatch on every queue.
func (m *Manager) ResumeAllQueues(ctx context.Context) error {
	var errs []error
	for _, q := range m.queues {
		if err := q.Resume(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PauseQueue pauses a single queue.
func (m *Manager) PauseQueue(ctx context.Context, name string) error {
	q, err := m.lookup(name)
	if err != nil {
		return err
	}
	return q.Pause(ctx)
}

// ResumeQueue resumes a single queue.
func (m *Manager) ResumeQueue(ctx context.Context, name string) error {
	q, err := m.lookup(name)
	if err != nil {
		return err
	}
	return q.Resume(ctx)
}

// RetryJob moves a failed job of the named queue back to waiting with a fresh attempt budget.
func (m *Manager) RetryJob(ctx context.Context, name string, id uuid.UUID) (*queue.Job, error) {
	q, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return q.RetryJob(ctx, id)
}

// Queue returns a managed queue by name.
func (m *Manager) Queue(name string) (*queue.Queue, bool) {
	q, ok := m.byName[name]
	return q, ok
}

func (m *Manager) lookup(name string) (*queue.Queue, error) {
	q, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, name)
	}
	return q, nil
}
