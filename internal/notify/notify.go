package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/pkg/kvstore"
)

// MaxPerUser is the number of notifications kept per user.
const MaxPerUser = 100

var (
	ErrEmptyUserID = errors.New("notification user id is empty")
	ErrEmptyTitle  = errors.New("notification title is empty")
)

// Notification is a user-facing record of an asynchronous event.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"userId"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Key is both the list key and the pub/sub channel of a user's notifications.
func Key(userID string) string {
	return "notifications:" + userID
}

// Service stores notifications in a bounded per-user list and publishes them.
type Service struct {
	kv     kvstore.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a notification service over kv.
func NewService(kv kvstore.Store, opts ...Option) *Service {
	s := &Service{
		kv:     kv,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("notify"))
	return s
}

// Push builds a notification, prepends it to the user's list (trimmed to
// MaxPerUser) and publishes it on the user's channel. Only a failed list write
// is returned as an error; trim and publish failures are logged.
func (s *Service) Push(ctx context.Context, userID, title, message string, data map[string]any) (Notification, error) {
	if userID == "" {
		return Notification{}, ErrEmptyUserID
	}
	if title == "" {
		return Notification{}, ErrEmptyTitle
	}

	n := Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: s.now(),
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := Key(userID)
	if _, err := s.kv.ListPush(ctx, key, raw); err != nil {
		return Notification{}, fmt.Errorf("failed to store notification: %w", err)
	}
	// Stored from here on; trim and publish failures must not fail the push.
	if err := s.kv.ListTrim(ctx, key, 0, MaxPerUser-1); err != nil {
		s.logger.ErrorContext(ctx, "failed to trim notifications",
			logger.Event("side_effect_failed"),
			logger.UserID(userID),
			logger.Error(err))
	}
	if err := s.kv.Publish(ctx, key, raw); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish notification",
			logger.Event("side_effect_failed"),
			logger.UserID(userID),
			slog.String("notification_id", n.ID.String()),
			logger.Error(err))
	}

	s.logger.DebugContext(ctx, "notification pushed",
		logger.UserID(userID),
		slog.String("notification_id", n.ID.String()))

	return n, nil
}

// List returns up to limit notifications, newest first. limit <= 0 returns all kept.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	items, err := s.kv.ListRange(ctx, Key(userID), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	out := make([]Notification, 0, len(items))
	for _, raw := range items {
		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			s.logger.WarnContext(ctx, "skipping undecodable notification", logger.UserID(userID), logger.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Subscribe returns the live feed of a user's notifications.
func (s *Service) Subscribe(ctx context.Context, userID string) (kvstore.Subscription, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	return s.kv.Subscribe(ctx, Key(userID))
}
