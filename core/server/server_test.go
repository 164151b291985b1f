package server_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/server"
)

func testConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServer_RunServesAndStops(t *testing.T) {
	t.Parallel()

	var logs syncBuffer
	log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv, err := server.New(testConfig(), server.WithLogger(log), server.WithAccessLog())
	require.NoError(t, err)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, handler)() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/queues")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && string(body) == "ok"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Contains(t, logs.String(), "path=/queues")
	assert.Contains(t, logs.String(), "status=200")
	assert.Equal(t, "127.0.0.1:0", srv.Addr())
}

func TestServer_StartTwice(t *testing.T) {
	t.Parallel()

	srv, err := server.New(testConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = srv.Stop()
	})

	go func() { _ = srv.Start(ctx, http.NotFoundHandler()) }()
	require.Eventually(t, func() bool { return srv.Addr() != "127.0.0.1:0" }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, srv.Start(ctx, http.NotFoundHandler()), server.ErrServerAlreadyRunning)
}

func TestServer_BindError(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Addr = "256.0.0.1:bad"
	srv, err := server.New(cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, srv.Start(context.Background(), http.NotFoundHandler()), server.ErrListen)
}

func TestServer_StopWhenIdle(t *testing.T) {
	t.Parallel()

	srv, err := server.New(testConfig())
	require.NoError(t, err)
	assert.NoError(t, srv.Stop())
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := server.New(server.Config{})
	assert.ErrorIs(t, err, server.ErrMissingAddress)

	srv, err := server.New(server.Config{Addr: ":9090"})
	require.NoError(t, err)
	assert.Equal(t, ":9090", srv.Addr())
}
