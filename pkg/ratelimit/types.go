package ratelimit

import (
	"math"
	"time"
)

// Definition is a named rate limit: at most Limit requests per Window.
// Definitions are configuration values, not persisted state; the same
// definition can be evaluated against many identifiers (user id, IP, a
// global bucket).
type Definition struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Check pairs a definition with the identifier it should be counted
// against. An empty identifier skips the check entirely, used when e.g.
// no client IP is resolvable.
type Check struct {
	Definition Definition
	Identifier string
}

// Result is the outcome of evaluating one or more checks.
type Result struct {
	Success bool
	// Reset is the soonest time at which a retry could succeed: the minimum
	// reset among failing checks. Zero when Success is true.
	Reset time.Time
}

// RetryAfterSeconds converts a reset timestamp into a user-facing whole
// number of seconds, rounded up and clamped at zero.
func RetryAfterSeconds(reset time.Time) int {
	if reset.IsZero() {
		return 0
	}
	secs := math.Ceil(time.Until(reset).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}
