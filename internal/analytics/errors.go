package analytics

import "errors"

var (
	ErrInvalidTimeframe = errors.New("invalid analytics timeframe")
	ErrEmptyUserID      = errors.New("user id is empty")
	ErrNotCached        = errors.New("analytics snapshot not cached")
)
