package ratelimit

import "errors"

var (
	// ErrStoreUnavailable indicates the counter backend could not be reached.
	// The limiter treats it as fail-open; stores return it so callers using
	// a Store directly can distinguish outages from denials.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
