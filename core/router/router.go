package router

import (
	"net/http"

	"github.com/dmitrymomot/fitqueue/core/response"
)

// Router registers handlers by method and path pattern.
//
// Patterns are slash-separated segments. A segment is either static, a
// parameter ({name}, read with r.PathValue) or a trailing wildcard (*).
// Static segments win over parameters.
type Router interface {
	http.Handler
	Routes

	Get(pattern string, fn response.HandlerFunc)
	Post(pattern string, fn response.HandlerFunc)
	Put(pattern string, fn response.HandlerFunc)
	Patch(pattern string, fn response.HandlerFunc)
	Delete(pattern string, fn response.HandlerFunc)

	// Method registers a plain http.Handler, e.g. a websocket endpoint.
	// Middlewares do not apply to it.
	Method(method, pattern string, h http.Handler)
	// Handle registers h for every method.
	Handle(pattern string, h http.Handler)

	Use(middlewares ...Middleware)
	Route(prefix string, fn func(r Router)) Router
}

// Middleware wraps a response handler.
type Middleware func(next response.HandlerFunc) response.HandlerFunc

// ErrorHandler renders routing errors: ErrNotFound, ErrMethodNotAllowed and ErrPanic.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Routes lists registered routes.
type Routes interface {
	Routes() []Route
}

// Route is a registered method and full pattern. Method is "*" for Handle.
type Route struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// New creates an empty router.
func New(opts ...Option) Router {
	return newMux(opts...)
}
