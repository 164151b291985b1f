package queue

import "time"

const (
	DefaultAttempts      = 3
	DefaultBackoff       = 2 * time.Second
	DefaultKeepCompleted = 100
	DefaultKeepFailed    = 50

	maxBackoff = 24 * time.Hour
)

// BackoffDelay returns the wait before the next attempt after attemptsMade failures:
// base * 2^(attemptsMade-1), so 2s, 4s, 8s for the default base.
func BackoffDelay(base time.Duration, attemptsMade int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attemptsMade < 1 {
		attemptsMade = 1
	}
	d := base
	for i := 1; i < attemptsMade; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
