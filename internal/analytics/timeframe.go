package analytics

import "time"

// Timeframe selects the aggregation window of a snapshot.
type Timeframe string

const (
	Daily   Timeframe = "daily"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
)

// Valid reports whether t is a known timeframe.
func (t Timeframe) Valid() bool {
	switch t {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Window is how far back the snapshot looks: 24h, 7d or 30d.
func (t Timeframe) Window() time.Duration {
	switch t {
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// TTL is how long a cached snapshot stays valid: 1h, 24h or 7d.
func (t Timeframe) TTL() time.Duration {
	switch t {
	case Weekly:
		return 24 * time.Hour
	case Monthly:
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}
