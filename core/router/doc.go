// Package router dispatches HTTP requests by method and path to response
// handlers.
//
// Routes are kept in a segment tree. Static segments take precedence over
// parameters, and a trailing * captures the rest of the path:
//
//	r := router.New(router.WithLogger(log))
//	r.Route("/queues", func(r router.Router) {
//		r.Get("/", stats)
//		r.Post("/{name}/pause", pause) // r.PathValue("name")
//	})
//	r.Method(http.MethodGet, "/ws/notifications", relay)
//
// Middlewares wrap response handlers registered after them, in the order they
// were added. Unknown paths render 404, known paths with another method render
// 405 with an Allow header, and a panicking handler renders 500 when nothing was
// written yet.
package router
