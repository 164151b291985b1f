package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/core/router"
	"github.com/dmitrymomot/fitqueue/internal/admin"
	"github.com/dmitrymomot/fitqueue/internal/jobs"
)

type fixture struct {
	handler *admin.Handler
	storage *queue.MemoryStorage
	ai      *queue.Queue
	email   *queue.Queue
}

func newFixture(t *testing.T, opts ...admin.Option) fixture {
	t.Helper()

	storage := queue.NewMemoryStorage()
	ai, err := queue.New(jobs.QueueAI, storage)
	require.NoError(t, err)
	em, err := queue.New(jobs.QueueEmail, storage)
	require.NoError(t, err)

	return fixture{
		handler: admin.New(jobs.NewManager(ai, em), opts...),
		storage: storage,
		ai:      ai,
		email:   em,
	}
}

func (f fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAdmin_Health(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		rec := newFixture(t).do(t, http.MethodGet, "/health/live")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, admin.WithReadinessChecks(func(context.Context) error { return nil }))
		rec := f.do(t, http.MethodGet, "/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, admin.WithReadinessChecks(func(context.Context) error { return errors.New("redis down") }))
		rec := f.do(t, http.MethodGet, "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAdmin_QueueStats(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.email.Enqueue(context.Background(), jobs.TypeWelcomeEmail, map[string]string{"userId": "u1"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/queues")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Queues []jobs.QueueStats `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Queues, 2)
	assert.Equal(t, jobs.QueueAI, body.Queues[0].Name)
	assert.Equal(t, jobs.QueueEmail, body.Queues[1].Name)
	assert.Equal(t, int64(1), body.Queues[1].Waiting)
}

func TestAdmin_PauseResume(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	rec := f.do(t, http.MethodPost, "/queues/email/pause")
	require.Equal(t, http.StatusOK, rec.Code)
	paused, err := f.email.IsPaused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)
	paused, err = f.ai.IsPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	rec = f.do(t, http.MethodPost, "/queues/email/resume")
	require.Equal(t, http.StatusOK, rec.Code)
	paused, err = f.email.IsPaused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	rec = f.do(t, http.MethodPost, "/queues/pause")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, q := range []*queue.Queue{f.ai, f.email} {
		paused, err := q.IsPaused(ctx)
		require.NoError(t, err)
		assert.True(t, paused, q.Name())
	}

	rec = f.do(t, http.MethodPost, "/queues/resume")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, q := range []*queue.Queue{f.ai, f.email} {
		paused, err := q.IsPaused(ctx)
		require.NoError(t, err)
		assert.False(t, paused, q.Name())
	}

	rec = f.do(t, http.MethodPost, "/queues/payments/pause")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Clear(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.ai.Enqueue(context.Background(), jobs.TypeChatResponse, map[string]string{"userId": "u1"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/queues/clear")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":0}`, rec.Body.String())

	counts, err := f.ai.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Waiting)
}

func TestAdmin_GetJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	job, err := f.ai.Enqueue(context.Background(), jobs.TypeChatResponse, map[string]string{"userId": "u1"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "found", path: "/queues/ai/jobs/" + job.ID.String(), status: http.StatusOK},
		{name: "wrong queue", path: "/queues/email/jobs/" + job.ID.String(), status: http.StatusNotFound},
		{name: "unknown queue", path: "/queues/payments/jobs/" + job.ID.String(), status: http.StatusNotFound},
		{name: "missing job", path: "/queues/ai/jobs/" + uuid.NewString(), status: http.StatusNotFound},
		{name: "bad id", path: "/queues/ai/jobs/not-a-uuid", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := f.do(t, http.MethodGet, tt.path)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				var got queue.Job
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, job.ID, got.ID)
				assert.Equal(t, jobs.TypeChatResponse, got.Type)
			}
		})
	}
}

func TestAdmin_ExtraRoute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, admin.WithRoute(http.MethodGet, "/ws/notifications", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("relay"))
	})))

	rec := f.do(t, http.MethodGet, "/ws/notifications")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "relay"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	rec = f.do(t, http.MethodPost, "/ws/notifications")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, f.handler.Routes(), router.Route{Method: http.MethodGet, Pattern: "/ws/notifications"})
}

func TestAdmin_Routing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/queues")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = f.do(t, http.MethodGet, "/queues/pause")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec = f.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Len(t, f.handler.Routes(), 10)
}

func TestAdmin_RetryJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	job, err := f.ai.Enqueue(ctx, jobs.TypeChatResponse, map[string]string{"userId": "u1"})
	require.NoError(t, err)
	_, err = f.storage.ClaimJob(ctx, jobs.QueueAI, jobs.TypeChatResponse, uuid.New(), time.Minute)
	require.NoError(t, err)
	_, err = f.storage.FailJob(ctx, jobs.QueueAI, job.ID, "provider timeout", 50)
	require.NoError(t, err)

	path := "/queues/ai/jobs/" + job.ID.String() + "/retry"
	rec := f.do(t, http.MethodPost, path)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got queue.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, queue.JobStatusWaiting, got.Status)
	assert.Zero(t, got.AttemptsMade)

	rec = f.do(t, http.MethodPost, path)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/queues/ai/jobs/"+uuid.NewString()+"/retry")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/queues/ai/jobs/nope/retry")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type refreshPayload struct{}

func (refreshPayload) JobType() string { return "refresh" }

func TestAdmin_Schedules(t *testing.T) {
	t.Parallel()

	rec := newFixture(t).do(t, http.MethodGet, "/schedules")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	storage := queue.NewMemoryStorage()
	q, err := queue.New(jobs.QueueAnalytics, storage)
	require.NoError(t, err)
	s := queue.NewScheduler()
	require.NoError(t, s.Add("nightly", queue.DailyAt(3, 0), q, refreshPayload{}))

	h := admin.New(jobs.NewManager(q), admin.WithScheduler(s))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedules", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Schedules []queue.ScheduleInfo `json:"schedules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Schedules, 1)
	assert.Equal(t, "nightly", body.Schedules[0].Name)
	assert.Equal(t, "daily at 03:00 UTC", body.Schedules[0].Schedule)
}
