package health_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/fitqueue/core/health"
	"github.com/dmitrymomot/fitqueue/core/response"
)

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	response.Handle(nil, health.Liveness)(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("redis down") }

	tests := []struct {
		name   string
		checks []func(context.Context) error
		status int
	}{
		{name: "no checks", status: http.StatusOK},
		{name: "all pass", checks: []func(context.Context) error{ok, ok}, status: http.StatusOK},
		{name: "one fails", checks: []func(context.Context) error{ok, down}, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h := response.Handle(log, health.Readiness(log, tt.checks...))
			h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "READY", rec.Body.String())
			}
		})
	}
}
