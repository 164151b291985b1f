package kvstore

import (
	"context"
	"slices"
	"sync"
	"time"
)

// subscriptionBuffer is the per-subscriber backlog; slow subscribers lose messages
// beyond it, matching Redis pub/sub delivery semantics.
const subscriptionBuffer = 64

// Memory implements Store in process memory for tests and single-process development.
type Memory struct {
	mu          sync.Mutex
	values      map[string]memoryValue
	subscribers map[string]map[*memorySubscription]struct{}
	now         func() time.Time
}

type memoryValue struct {
	data    []byte
	counter int64
	list    [][]byte
	kind    valueKind
	expires time.Time
}

type valueKind int

const (
	kindBytes valueKind = iota
	kindCounter
	kindList
)

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		values:      make(map[string]memoryValue),
		subscribers: make(map[string]map[*memorySubscription]struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lookup returns the live value and drops it when expired. Caller holds mu.
func (m *Memory) lookup(key string) (memoryValue, bool) {
	v, ok := m.values[key]
	if !ok {
		return memoryValue{}, false
	}
	if !v.expires.IsZero() && !m.now().Before(v.expires) {
		delete(m.values, key)
		return memoryValue{}, false
	}
	return v, true
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *Memory) SetWithExpiry(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = memoryValue{data: slices.Clone(value), kind: kindBytes, expires: m.expiry(ttl)}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	if v.kind != kindBytes {
		return nil, ErrWrongType
	}
	return slices.Clone(v.data), nil
}

func (m *Memory) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *Memory) Increment(ctx context.Context, key string) (int64, error) {
	return m.IncrementWithExpiry(ctx, key, 0)
}

func (m *Memory) IncrementWithExpiry(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.lookup(key)
	if !ok {
		v = memoryValue{kind: kindCounter, expires: m.expiry(ttl)}
	}
	if v.kind != kindCounter {
		return 0, ErrWrongType
	}
	v.counter++
	m.values[key] = v
	return v.counter, nil
}

func (m *Memory) ListPush(ctx context.Context, key string, values ...[]byte) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.lookup(key)
	if !ok {
		v = memoryValue{kind: kindList}
	}
	if v.kind != kindList {
		return 0, ErrWrongType
	}

	head := make([][]byte, 0, len(values)+len(v.list))
	for i := len(values) - 1; i >= 0; i-- {
		head = append(head, slices.Clone(values[i]))
	}
	v.list = append(head, v.list...)
	m.values[key] = v
	return int64(len(v.list)), nil
}

func (m *Memory) ListTrim(ctx context.Context, key string, start, stop int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.lookup(key)
	if !ok {
		return nil
	}
	if v.kind != kindList {
		return ErrWrongType
	}

	lo, hi, ok := listBounds(int64(len(v.list)), start, stop)
	if !ok {
		delete(m.values, key)
		return nil
	}
	v.list = slices.Clone(v.list[lo : hi+1])
	m.values[key] = v
	return nil
}

func (m *Memory) ListRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.lookup(key)
	if !ok {
		return [][]byte{}, nil
	}
	if v.kind != kindList {
		return nil, ErrWrongType
	}

	lo, hi, ok := listBounds(int64(len(v.list)), start, stop)
	if !ok {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, hi-lo+1)
	for _, item := range v.list[lo : hi+1] {
		out = append(out, slices.Clone(item))
	}
	return out, nil
}

// listBounds resolves Redis-style inclusive indexes against n elements.
func listBounds(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

func (m *Memory) Publish(ctx context.Context, channel string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sub := range m.subscribers[channel] {
		select {
		case sub.out <- slices.Clone(message):
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, channel string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub := &memorySubscription{
		store:   m,
		channel: channel,
		out:     make(chan []byte, subscriptionBuffer),
	}
	if m.subscribers[channel] == nil {
		m.subscribers[channel] = make(map[*memorySubscription]struct{})
	}
	m.subscribers[channel][sub] = struct{}{}
	return sub, nil
}

type memorySubscription struct {
	store   *Memory
	channel string
	out     chan []byte
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte {
	return s.out
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		delete(s.store.subscribers[s.channel], s)
		if len(s.store.subscribers[s.channel]) == 0 {
			delete(s.store.subscribers, s.channel)
		}
		close(s.out)
	})
	return nil
}
