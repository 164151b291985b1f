package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/fitqueue/core/logger"
)

// Response writes an HTTP response. A returned error is rendered by Handle.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc builds the response for a request.
type HandlerFunc func(r *http.Request) Response

// Handle adapts fn to net/http. Errors are written as JSON HTTPError bodies;
// 5xx errors are logged with log.
func Handle(log *slog.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := fn(r)
		if resp == nil {
			resp = NoContent()
		}
		if err := resp(w, r); err != nil {
			httpErr := toHTTPError(err)
			if httpErr.Status >= http.StatusInternalServerError && log != nil {
				log.ErrorContext(r.Context(), "request failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					logger.Error(err))
			}
			_ = JSONWithStatus(httpErr, httpErr.Status)(w, r)
		}
	}
}

// String creates a text/plain response with 200 OK status.
func String(content string) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(content))
		return err
	}
}

// JSON creates an application/json response with 200 OK status.
func JSON(v any) Response {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus creates an application/json response with a custom status code.
func JSONWithStatus(v any, status int) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if status == http.StatusNoContent {
			return nil
		}
		return json.NewEncoder(w).Encode(v)
	}
}

// NoContent creates a 204 No Content response.
func NoContent() Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// Error propagates err to Handle, which renders it.
func Error(err error) Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}
