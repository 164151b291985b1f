package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/queue"
)

func TestNewProcessor(t *testing.T) {
	t.Parallel()

	h := greetHandler()
	assert.Equal(t, "greet", h.JobType())

	t.Run("decodes payload and encodes result", func(t *testing.T) {
		t.Parallel()
		out, err := h.Handle(context.Background(), &queue.Job{Payload: json.RawMessage(`{"name":"kim"}`)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"message":"hello kim"}`, string(out))
	})

	t.Run("invalid payload is permanent", func(t *testing.T) {
		t.Parallel()
		_, err := h.Handle(context.Background(), &queue.Job{Payload: json.RawMessage(`[1,2]`)})
		assert.ErrorIs(t, err, queue.ErrInvalidPayload)
		assert.True(t, queue.IsPermanent(err))
	})

	t.Run("handler error passes through", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		failing := queue.NewProcessor(func(ctx context.Context, p greetPayload) (struct{}, error) {
			return struct{}{}, boom
		})
		_, err := failing.Handle(context.Background(), &queue.Job{Payload: json.RawMessage(`{}`)})
		assert.ErrorIs(t, err, boom)
		assert.False(t, queue.IsPermanent(err))
	})
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()

	h := queue.HandlerFunc("raw", func(ctx context.Context, job *queue.Job) (json.RawMessage, error) {
		return job.Payload, nil
	})
	assert.Equal(t, "raw", h.JobType())

	out, err := h.Handle(context.Background(), &queue.Job{Payload: json.RawMessage(`1`)})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`1`), out)
}

func TestPermanent(t *testing.T) {
	t.Parallel()

	assert.NoError(t, queue.Permanent(nil))

	base := errors.New("bad input")
	err := queue.Permanent(base)
	assert.True(t, queue.IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "bad input", err.Error())
	assert.False(t, queue.IsPermanent(base))
}
