package ratelimiter

import "errors"

var (
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")
	// ErrStoreUnavailable wraps counter store failures. Callers decide whether to fail open.
	ErrStoreUnavailable  = errors.New("ratelimiter: store unavailable")
	ErrRateLimitExceeded = errors.New("ratelimiter: rate limit exceeded")
)
