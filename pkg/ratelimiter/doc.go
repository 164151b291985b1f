// Package ratelimiter provides fixed-window rate limiting on top of a kvstore counter.
//
// Each key gets Limit hits per aligned Window. The counter lives in the kvstore
// (a Redis INCR in production), so the limit holds across processes:
//
//	limiter, err := ratelimiter.NewFixedWindow(kv, ratelimiter.Config{
//		Limit:  20,
//		Window: time.Hour,
//	}, ratelimiter.WithPrefix("ratelimit:ai"))
//
//	if err := limiter.Check(ctx, userID); err != nil {
//		if errors.Is(err, ratelimiter.ErrRateLimitExceeded) {
//			// reject the request
//		}
//		return err
//	}
//
// Allow returns a Result with the remaining budget and the window reset time
// for callers that want to report them. Store failures wrap ErrStoreUnavailable.
package ratelimiter
