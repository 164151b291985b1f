// Package admin exposes health probes and queue controls over HTTP.
//
// Routes:
//
//	GET  /health/live
//	GET  /health/ready
//	GET  /queues
//	POST /queues/pause
//	POST /queues/resume
//	POST /queues/clear
//	POST /queues/{name}/pause
//	POST /queues/{name}/resume
//	GET  /queues/{name}/jobs/{id}
//	POST /queues/{name}/jobs/{id}/retry
//	GET  /schedules                 (with WithScheduler)
//
// Unknown queues and jobs answer 404; retrying a job that has not failed answers 409.
package admin
