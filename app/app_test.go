package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/app"
	"github.com/dmitrymomot/fitqueue/core/email"
	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/core/server"
	"github.com/dmitrymomot/fitqueue/internal/jobs"
	"github.com/dmitrymomot/fitqueue/pkg/textgen"
)

func testConfig(t *testing.T) app.Config {
	t.Helper()

	srv := server.DefaultConfig()
	srv.Addr = "127.0.0.1:0"
	srv.ShutdownTimeout = time.Second

	q := queue.DefaultConfig()
	q.PollInterval = 5 * time.Millisecond
	q.ShutdownTimeout = time.Second

	return app.Config{
		AppName:       "fitqueue-test",
		Env:           "development",
		StorageDriver: app.StorageMemory,
		DevMailDir:    t.TempDir(),
		Server:        srv,
		Queue:         q,
		Jobs:          jobs.Config{AIRateLimit: 5, AIRateWindow: time.Hour, AppURL: "http://localhost:3000"},
	}
}

func echoGenerator() textgen.Generator {
	return textgen.GeneratorFunc(func(_ context.Context, req textgen.Request) (textgen.Completion, error) {
		return textgen.Completion{Text: "Stay hydrated.", TokensUsed: 7}, nil
	})
}

func TestNew_UnknownStorageDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.StorageDriver = "etcd"

	_, err := app.New(context.Background(), cfg, app.WithLogger(logger.NewNop()), app.WithGenerator(echoGenerator()))
	assert.ErrorIs(t, err, app.ErrUnknownStorageDriver)
}

func TestNew_NilOption(t *testing.T) {
	t.Parallel()

	_, err := app.New(context.Background(), testConfig(t), app.WithGenerator(nil))
	assert.Error(t, err)
}

func TestApp_RunProcessesJobs(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t),
		app.WithLogger(logger.NewNop()),
		app.WithGenerator(echoGenerator()),
		app.WithEmailSender(email.NewDevSender(t.TempDir())),
	)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	job, err := a.Registry().EnqueueAI(context.Background(), jobs.ChatResponse{UserID: "u1", Message: "water?"})
	require.NoError(t, err)

	q, ok := a.Registry().Queue(jobs.QueueAI)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		j, err := q.GetJob(context.Background(), job.ID)
		return err == nil && j.Status == queue.JobStatusCompleted
	}, 3*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		return rec.Code == http.StatusOK
	}, 3*time.Second, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queues", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"ai"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
