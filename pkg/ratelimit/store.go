package ratelimit

import (
	"context"
	"time"
)

// Store is the counter backend for the limiter.
type Store interface {
	// Increment atomically increments the counter for key, creating it with
	// the given window on first hit. Returns the post-increment count and the
	// time the current window resets. The increment and the count returned to
	// the caller must come from a single atomic operation so two concurrent
	// requests can never both observe the last remaining slot.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}
