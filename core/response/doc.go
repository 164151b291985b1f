// Package response builds HTTP responses as values.
//
// A HandlerFunc returns a Response; Handle adapts it to net/http and renders
// any returned error as a JSON HTTPError body:
//
//	mux.Handle("GET /queues", response.Handle(log, func(r *http.Request) response.Response {
//		stats, err := manager.GetQueueStats(r.Context())
//		if err != nil {
//			return response.Error(err)
//		}
//		return response.JSON(stats)
//	}))
//
// Errors that are not HTTPError are mapped through an optional StatusCode() int
// method and default to 500 Internal Server Error.
package response
