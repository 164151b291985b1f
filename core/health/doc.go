// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: process is running (no dependency checks)
//   - Readiness: all dependencies are available
//
// Usage:
//
//	mux.Handle("GET /health/live", response.Handle(log, health.Liveness))
//	mux.Handle("GET /health/ready", response.Handle(log, health.Readiness(log,
//		redis.Healthcheck(client),
//		registry.Healthcheck,
//	)))
//
// Dependency checks follow the func(context.Context) error signature.
package health
