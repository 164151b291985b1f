// Package realtime relays in-app notifications to websocket clients.
//
// On connect the relay replays the most recent stored notifications, then
// forwards every notification published for the user until either side closes:
//
//	mux.Handle("GET /ws/notifications", realtime.NewRelay(registry.Notifications(),
//		realtime.WithLogger(log)))
package realtime
