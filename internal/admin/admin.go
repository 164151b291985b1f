package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fitqueue/core/health"
	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/queue"
	"github.com/dmitrymomot/fitqueue/core/response"
	"github.com/dmitrymomot/fitqueue/core/router"
	"github.com/dmitrymomot/fitqueue/internal/jobs"
)

// Handler serves the operational HTTP surface of the job system.
type Handler struct {
	manager   *jobs.Manager
	scheduler *queue.Scheduler
	checks    []func(context.Context) error
	logger    *slog.Logger
	extra     []extraRoute
	router    router.Router
}

type extraRoute struct {
	method, pattern string
	handler         http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithReadinessChecks adds dependency checks to GET /health/ready.
func WithReadinessChecks(checks ...func(context.Context) error) Option {
	return func(h *Handler) {
		h.checks = append(h.checks, checks...)
	}
}

// WithScheduler exposes the periodic jobs of s on GET /schedules.
func WithScheduler(s *queue.Scheduler) Option {
	return func(h *Handler) {
		h.scheduler = s
	}
}

// WithRoute mounts an extra handler, e.g. the notification relay.
func WithRoute(method, pattern string, handler http.Handler) Option {
	return func(h *Handler) {
		h.extra = append(h.extra, extraRoute{method: method, pattern: pattern, handler: handler})
	}
}

// New builds the ops routes over manager.
func New(manager *jobs.Manager, opts ...Option) *Handler {
	h := &Handler{
		manager: manager,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("admin"))

	r := router.New(router.WithLogger(h.logger), router.WithMiddleware(noStore))
	r.Route("/health", func(r router.Router) {
		r.Get("/live", health.Liveness)
		r.Get("/ready", health.Readiness(h.logger, h.checks...))
	})
	r.Route("/queues", func(r router.Router) {
		r.Get("/", h.stats)
		r.Post("/pause", h.pauseAll)
		r.Post("/resume", h.resumeAll)
		r.Post("/clear", h.clear)
		r.Post("/{name}/pause", h.pause)
		r.Post("/{name}/resume", h.resume)
		r.Get("/{name}/jobs/{id}", h.job)
		r.Post("/{name}/jobs/{id}/retry", h.retry)
	})
	if h.scheduler != nil {
		r.Get("/schedules", h.schedules)
	}
	for _, e := range h.extra {
		r.Method(e.method, e.pattern, e.handler)
	}
	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Routes lists the mounted routes.
func (h *Handler) Routes() []router.Route {
	return h.router.Routes()
}

// noStore keeps proxies from caching queue state.
func noStore(next response.HandlerFunc) response.HandlerFunc {
	return func(r *http.Request) response.Response {
		resp := next(r)
		if resp == nil {
			resp = response.NoContent()
		}
		return func(w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Cache-Control", "no-store")
			return resp(w, r)
		}
	}
}

func (h *Handler) stats(r *http.Request) response.Response {
	stats, err := h.manager.GetQueueStats(r.Context())
	if err != nil {
		return response.Error(err)
	}
	return response.JSON(map[string]any{"queues": stats})
}

func (h *Handler) pauseAll(r *http.Request) response.Response {
	if err := h.manager.PauseAllQueues(r.Context()); err != nil {
		return response.Error(err)
	}
	h.logger.InfoContext(r.Context(), "all queues paused", logger.Action("pause_all"))
	return response.JSON(map[string]bool{"paused": true})
}

func (h *Handler) resumeAll(r *http.Request) response.Response {
	if err := h.manager.ResumeAllQueues(r.Context()); err != nil {
		return response.Error(err)
	}
	h.logger.InfoContext(r.Context(), "all queues resumed", logger.Action("resume_all"))
	return response.JSON(map[string]bool{"paused": false})
}

func (h *Handler) clear(r *http.Request) response.Response {
	n, err := h.manager.ClearAllQueues(r.Context())
	if err != nil {
		return response.Error(err)
	}
	h.logger.InfoContext(r.Context(), "queues cleared", logger.Action("clear_all"), logger.Count("removed", n))
	return response.JSON(map[string]int{"removed": n})
}

func (h *Handler) pause(r *http.Request) response.Response {
	name := r.PathValue("name")
	if err := h.manager.PauseQueue(r.Context(), name); err != nil {
		return response.Error(mapError(err))
	}
	return response.JSON(map[string]any{"queue": name, "paused": true})
}

func (h *Handler) resume(r *http.Request) response.Response {
	name := r.PathValue("name")
	if err := h.manager.ResumeQueue(r.Context(), name); err != nil {
		return response.Error(mapError(err))
	}
	return response.JSON(map[string]any{"queue": name, "paused": false})
}

func (h *Handler) job(r *http.Request) response.Response {
	q, ok := h.manager.Queue(r.PathValue("name"))
	if !ok {
		return response.Error(mapError(jobs.ErrUnknownQueue))
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return response.Error(response.ErrBadRequest.WithMessage("invalid job id"))
	}

	job, err := q.GetJob(r.Context(), id)
	if err != nil {
		return response.Error(mapError(err))
	}
	return response.JSON(job)
}

func (h *Handler) retry(r *http.Request) response.Response {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return response.Error(response.ErrBadRequest.WithMessage("invalid job id"))
	}

	job, err := h.manager.RetryJob(r.Context(), r.PathValue("name"), id)
	if err != nil {
		return response.Error(mapError(err))
	}
	h.logger.InfoContext(r.Context(), "failed job resubmitted",
		logger.Action("retry_job"),
		logger.Queue(job.Queue),
		logger.JobID(job.ID.String()))
	return response.JSON(job)
}

func (h *Handler) schedules(*http.Request) response.Response {
	return response.JSON(map[string]any{"schedules": h.scheduler.Schedules()})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, jobs.ErrUnknownQueue):
		return response.ErrNotFound.WithMessage("queue not found")
	case errors.Is(err, queue.ErrJobNotFound):
		return response.ErrNotFound.WithMessage("job not found")
	case errors.Is(err, queue.ErrJobNotFailed):
		return response.ErrConflict.WithMessage("only failed jobs can be retried")
	}
	return err
}
