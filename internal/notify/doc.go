// Package notify delivers in-app notifications.
//
// Each user has a list under "notifications:{userId}" holding the latest
// MaxPerUser entries, newest first, maintained with an atomic push and trim.
// Every pushed notification is also published on the channel of the same name
// so live sessions receive it immediately.
package notify
