package router

import "errors"

var (
	ErrNotFound         = errors.New("route not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrPanic            = errors.New("handler panicked")

	// Registration errors. Routes are registered at startup, so these panic.
	ErrInvalidPattern  = errors.New("invalid route pattern")
	ErrInvalidMethod   = errors.New("invalid http method")
	ErrParamConflict   = errors.New("conflicting path parameter names")
	ErrDuplicateRoute  = errors.New("route already registered")
	ErrMiddlewareOrder = errors.New("middlewares must be added before routes")
)
