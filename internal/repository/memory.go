package repository

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store for development and tests.
type Memory struct {
	mu       sync.RWMutex
	now      func() time.Time
	workouts map[uuid.UUID]*Workout
	plans    map[uuid.UUID]*NutritionPlan
	progress []ProgressLog
	chats    []AIChat
	failNext error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		workouts: make(map[uuid.UUID]*Workout),
		plans:    make(map[uuid.UUID]*NutritionPlan),
	}
}

// FailNext makes the next write return err. Used to exercise retry paths.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *Memory) CreateWorkout(_ context.Context, w *Workout) error {
	if w == nil || w.UserID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	stamp(&w.ID, &w.CreatedAt, m.now())
	if _, ok := m.workouts[w.ID]; ok {
		return ErrAlreadyExists
	}
	cp := *w
	m.workouts[w.ID] = &cp
	return nil
}

func (m *Memory) GetWorkout(_ context.Context, id uuid.UUID) (*Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *Memory) CompleteWorkout(_ context.Context, id uuid.UUID, at time.Time) (*Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	w, ok := m.workouts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if w.CompletedAt == nil {
		w.CompletedAt = &at
	}
	w.Completed = true
	cp := *w
	return &cp, nil
}

func (m *Memory) UpdateWorkoutCalories(_ context.Context, id uuid.UUID, calories int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	w, ok := m.workouts[id]
	if !ok {
		return ErrNotFound
	}
	w.Calories = calories
	return nil
}

func (m *Memory) ListCompletedWorkouts(_ context.Context, userID string, since time.Time) ([]Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Workout
	for _, w := range m.workouts {
		if w.UserID == userID && w.Completed && w.CompletedAt != nil && !w.CompletedAt.Before(since) {
			out = append(out, *w)
		}
	}
	slices.SortFunc(out, func(a, b Workout) int { return a.CompletedAt.Compare(*b.CompletedAt) })
	return out, nil
}

func (m *Memory) CreateNutritionPlan(_ context.Context, p *NutritionPlan) error {
	if p == nil || p.UserID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	stamp(&p.ID, &p.CreatedAt, m.now())
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

// NutritionPlan returns a stored plan.
func (m *Memory) NutritionPlan(id uuid.UUID) (*NutritionPlan, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

func (m *Memory) CreateProgressLog(_ context.Context, l *ProgressLog) error {
	if l == nil || l.UserID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	stamp(&l.ID, &l.LoggedAt, m.now())
	m.progress = append(m.progress, *l)
	return nil
}

func (m *Memory) ListProgressLogs(_ context.Context, userID string, since time.Time) ([]ProgressLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ProgressLog
	for _, l := range m.progress {
		if l.UserID == userID && !l.LoggedAt.Before(since) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b ProgressLog) int { return a.LoggedAt.Compare(b.LoggedAt) })
	return out, nil
}

func (m *Memory) CreateChat(_ context.Context, c *AIChat) error {
	if c == nil || c.UserID == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	stamp(&c.ID, &c.CreatedAt, m.now())
	m.chats = append(m.chats, *c)
	return nil
}

func (m *Memory) CountChats(_ context.Context, userID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.chats {
		if c.UserID == userID && !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListActiveUsers(_ context.Context, since time.Time, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, w := range m.workouts {
		if w.Completed && w.CompletedAt != nil && !w.CompletedAt.Before(since) {
			seen[w.UserID] = struct{}{}
		}
	}
	for _, l := range m.progress {
		if !l.LoggedAt.Before(since) {
			seen[l.UserID] = struct{}{}
		}
	}
	for _, c := range m.chats {
		if !c.CreatedAt.Before(since) {
			seen[c.UserID] = struct{}{}
		}
	}

	users := slices.Sorted(maps.Keys(seen))
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
