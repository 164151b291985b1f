package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type (
	// Handler processes jobs of a single type.
	Handler interface {
		// JobType returns the job type tag used for registration and routing.
		JobType() string
		// Handle processes the raw payload and returns a JSON result.
		Handle(ctx context.Context, job *Job) (json.RawMessage, error)
	}

	// Payload is implemented by typed job payloads; the zero value must report its type.
	Payload interface {
		JobType() string
	}

	// ProcessorFunc is a type-safe processor for payload T returning result R.
	ProcessorFunc[T Payload, R any] func(ctx context.Context, payload T) (R, error)
)

// NewProcessor creates a Handler whose job type comes from T's JobType method.
// Undecodable payloads fail permanently with ErrInvalidPayload.
func NewProcessor[T Payload, R any](fn ProcessorFunc[T, R]) Handler {
	var zero T
	return &typedHandler[T, R]{jobType: zero.JobType(), fn: fn}
}

// HandlerFunc adapts a raw function into a Handler for jobType.
func HandlerFunc(jobType string, fn func(ctx context.Context, job *Job) (json.RawMessage, error)) Handler {
	return &rawHandler{jobType: jobType, fn: fn}
}

type typedHandler[T Payload, R any] struct {
	jobType string
	fn      ProcessorFunc[T, R]
}

func (h *typedHandler[T, R]) JobType() string {
	return h.jobType
}

func (h *typedHandler[T, R]) Handle(ctx context.Context, job *Job) (json.RawMessage, error) {
	var payload T
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, Permanent(errors.Join(ErrInvalidPayload, err))
	}

	result, err := h.fn(ctx, payload)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result of %s: %w", h.jobType, err)
	}
	return raw, nil
}

type rawHandler struct {
	jobType string
	fn      func(ctx context.Context, job *Job) (json.RawMessage, error)
}

func (h *rawHandler) JobType() string {
	return h.jobType
}

func (h *rawHandler) Handle(ctx context.Context, job *Job) (json.RawMessage, error) {
	return h.fn(ctx, job)
}
