package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/fitqueue/core/logger"
	"github.com/dmitrymomot/fitqueue/core/response"
)

// Liveness always answers "ALIVE" with 200 OK.
func Liveness(*http.Request) response.Response {
	return response.String("ALIVE")
}

// Readiness answers "READY" when every check passes and 503 Service Unavailable otherwise.
func Readiness(log *slog.Logger, checks ...func(context.Context) error) response.HandlerFunc {
	return func(r *http.Request) response.Response {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", logger.Error(err))
				return response.Error(response.ErrServiceUnavailable)
			}
		}
		return response.String("READY")
	}
}
