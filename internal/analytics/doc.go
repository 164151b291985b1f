// Package analytics derives per-user activity snapshots and caches them in the kv store.
//
// A snapshot covers a Timeframe window (daily 24h, weekly 7d, monthly 30d) and is
// cached under "analytics:{userId}:{timeframe}" for 1h, 24h or 7d respectively.
// Refresh always recomputes; Get serves the cache and falls back to Refresh.
package analytics
