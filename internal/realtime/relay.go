package realtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/response"
	"github.com/dmitrymomot/fitqueue/internal/notify"
)

const (
	defaultBacklog      = 20
	defaultPingInterval = 30 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Relay streams a user's notifications over a websocket connection.
// Clients connect with GET /ws/notifications?user_id=<id>.
type Relay struct {
	notifications *notify.Service
	upgrader      websocket.Upgrader
	logger        *slog.Logger
	backlog       int
	pingInterval  time.Duration
	writeTimeout  time.Duration
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the relay logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithBacklog sets how many stored notifications are replayed on connect. Zero disables replay.
func WithBacklog(n int) Option {
	return func(r *Relay) {
		if n >= 0 {
			r.backlog = n
		}
	}
}

// WithPingInterval sets the keepalive ping period.
func WithPingInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pingInterval = d
		}
	}
}

// WithOriginCheck overrides the upgrader origin policy. The default accepts same-origin requests only.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(r *Relay) {
		r.upgrader.CheckOrigin = fn
	}
}

// NewRelay creates a relay over the notification service.
func NewRelay(notifications *notify.Service, opts ...Option) *Relay {
	r := &Relay{
		notifications: notifications,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 5 * time.Second,
		},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		backlog:      defaultBacklog,
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("realtime"))
	return r
}

func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.Handle(rl.logger, rl.serve)(w, r)
}

func (rl *Relay) serve(r *http.Request) response.Response {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		return response.Error(response.ErrBadRequest.WithMessage("user_id is required"))
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))

	// Subscribe before upgrading so nothing published after the handshake is missed.
	sub, err := rl.notifications.Subscribe(ctx, userID)
	if err != nil {
		cancel()
		return response.Error(err)
	}

	return func(w http.ResponseWriter, r *http.Request) error {
		defer cancel()
		defer sub.Close()

		conn, err := rl.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			rl.logger.WarnContext(ctx, "websocket upgrade failed", logger.UserID(userID), logger.Error(err))
			return nil
		}
		defer conn.Close()

		rl.logger.InfoContext(ctx, "notification stream opened", logger.UserID(userID))
		err = rl.stream(ctx, cancel, conn, userID, sub.Messages())
		rl.logger.InfoContext(ctx, "notification stream closed", logger.UserID(userID), logger.Error(err))
		return nil
	}
}

func (rl *Relay) stream(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, userID string, messages <-chan []byte) error {
	// The read loop only watches for the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := rl.replay(ctx, conn, userID); err != nil {
		return err
	}

	ping := time.NewTicker(rl.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				_ = rl.write(conn, websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream ended"))
				return nil
			}
			if err := rl.write(conn, websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ping.C:
			if err := rl.write(conn, websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// replay sends the stored backlog oldest first.
func (rl *Relay) replay(ctx context.Context, conn *websocket.Conn, userID string) error {
	if rl.backlog == 0 {
		return nil
	}
	recent, err := rl.notifications.List(ctx, userID, rl.backlog)
	if err != nil {
		rl.logger.WarnContext(ctx, "notification backlog unavailable", logger.UserID(userID), logger.Error(err))
		return nil
	}
	slices.Reverse(recent)
	for _, n := range recent {
		_ = conn.SetWriteDeadline(time.Now().Add(rl.writeTimeout))
		if err := conn.WriteJSON(n); err != nil {
			return err
		}
	}
	return nil
}

func (rl *Relay) write(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(rl.writeTimeout))
	err := conn.WriteMessage(messageType, data)
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
