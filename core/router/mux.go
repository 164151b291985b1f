package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/dmitrymomot/fitqueue/core/response"
)

var methods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// tree is shared by a router and every sub-router created with Route.
type tree struct {
	root         *node
	logger       *slog.Logger
	errorHandler ErrorHandler
}

type mux struct {
	tree        *tree
	prefix      string
	middlewares []Middleware
	hasRoutes   bool
}

func newMux(opts ...Option) *mux {
	m := &mux{tree: &tree{
		root:   &node{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}}
	for _, opt := range opts {
		opt(m)
	}
	if m.tree.errorHandler == nil {
		m.tree.errorHandler = m.tree.renderError
	}
	return m
}

func (m *mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := &responseWriter{ResponseWriter: w}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if p == http.ErrAbortHandler {
			panic(p)
		}
		m.tree.logger.ErrorContext(r.Context(), "panic recovered",
			slog.Any("panic", p),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("stack", string(debug.Stack())))
		if !ww.written {
			m.tree.errorHandler(ww, r, fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()

	n, params := m.tree.root.find(splitPath(r.URL.Path), nil)
	if n == nil {
		m.tree.errorHandler(ww, r, ErrNotFound)
		return
	}
	ep, ok := n.lookup(r.Method)
	if !ok {
		ww.Header().Set("Allow", strings.Join(n.allowed(), ", "))
		m.tree.errorHandler(ww, r, ErrMethodNotAllowed)
		return
	}

	for _, p := range params {
		r.SetPathValue(p.key, p.value)
	}
	ep.handler.ServeHTTP(ww, r)
}

func (m *mux) Get(pattern string, fn response.HandlerFunc) {
	m.handleFunc(http.MethodGet, pattern, fn)
}

func (m *mux) Post(pattern string, fn response.HandlerFunc) {
	m.handleFunc(http.MethodPost, pattern, fn)
}

func (m *mux) Put(pattern string, fn response.HandlerFunc) {
	m.handleFunc(http.MethodPut, pattern, fn)
}

func (m *mux) Patch(pattern string, fn response.HandlerFunc) {
	m.handleFunc(http.MethodPatch, pattern, fn)
}

func (m *mux) Delete(pattern string, fn response.HandlerFunc) {
	m.handleFunc(http.MethodDelete, pattern, fn)
}

func (m *mux) Method(method, pattern string, h http.Handler) {
	method = strings.ToUpper(method)
	if !slices.Contains(methods, method) {
		panic(fmt.Errorf("%w: %q", ErrInvalidMethod, method))
	}
	m.register(method, pattern, h)
}

func (m *mux) Handle(pattern string, h http.Handler) {
	m.register(anyMethod, pattern, h)
}

func (m *mux) Use(middlewares ...Middleware) {
	if m.hasRoutes {
		panic(ErrMiddlewareOrder)
	}
	m.middlewares = append(m.middlewares, middlewares...)
}

// Route creates a sub-router for patterns under prefix. It starts with the
// middlewares of m; middlewares added to it do not leak back.
func (m *mux) Route(prefix string, fn func(r Router)) Router {
	if !strings.HasPrefix(prefix, "/") {
		panic(fmt.Errorf("%w: prefix %q", ErrInvalidPattern, prefix))
	}
	sub := &mux{
		tree:        m.tree,
		prefix:      m.prefix + strings.TrimSuffix(prefix, "/"),
		middlewares: slices.Clone(m.middlewares),
	}
	if fn != nil {
		fn(sub)
	}
	return sub
}

func (m *mux) Routes() []Route {
	routes := m.tree.root.routes(nil)
	slices.SortFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Pattern, b.Pattern); c != 0 {
			return c
		}
		return strings.Compare(a.Method, b.Method)
	})
	return routes
}

func (m *mux) handleFunc(method, pattern string, fn response.HandlerFunc) {
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		fn = m.middlewares[i](fn)
	}
	m.register(method, pattern, response.Handle(m.tree.logger, fn))
}

func (m *mux) register(method, pattern string, h http.Handler) {
	if !strings.HasPrefix(pattern, "/") {
		panic(fmt.Errorf("%w: %q", ErrInvalidPattern, pattern))
	}
	full := m.prefix + pattern
	if pattern == "/" && m.prefix != "" {
		full = m.prefix
	}
	if err := m.tree.root.insert(method, full, h); err != nil {
		panic(err)
	}
	m.hasRoutes = true
}

// renderError writes routing errors as JSON HTTPError bodies.
func (t *tree) renderError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := response.ErrInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		httpErr = response.ErrNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		httpErr = response.ErrMethodNotAllowed
	}
	_ = response.JSONWithStatus(httpErr, httpErr.Status)(w, r)
}
