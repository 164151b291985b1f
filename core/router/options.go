package router

import "log/slog"

// Option configures a Router.
type Option func(*mux)

// WithLogger sets the logger for panics and 5xx responses.
func WithLogger(l *slog.Logger) Option {
	return func(m *mux) {
		if l != nil {
			m.tree.logger = l
		}
	}
}

// WithErrorHandler replaces the default JSON error rendering.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *mux) {
		if h != nil {
			m.tree.errorHandler = h
		}
	}
}

// WithMiddleware adds middlewares applied to every response handler.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(m *mux) {
		m.middlewares = append(m.middlewares, middlewares...)
	}
}
