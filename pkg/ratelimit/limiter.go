package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Limiter evaluates rate limit checks against a counter store.
type Limiter struct {
	store Store
	log   *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLogger sets the logger used to report store failures.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLimiter creates a limiter backed by the given store.
// Panics if store is nil to fail fast during initialization.
func NewLimiter(store Store, opts ...Option) *Limiter {
	if store == nil {
		panic("ratelimit: store is required")
	}

	l := &Limiter{
		store: store,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check evaluates all checks and fails if any individual check fails.
// Checks with an empty identifier are skipped. Multiple checks resolving to
// the same (definition, identifier) key count a single logical request once.
//
// Store unavailability fails open: the affected check passes and the outage
// is logged, so a counter-store incident never becomes a full product outage.
// Billing correctness is enforced elsewhere; the limiter is only a throttle.
func (l *Limiter) Check(ctx context.Context, checks ...Check) *Result {
	var (
		failed bool
		reset  time.Time
		seen   map[string]struct{}
	)

	for _, c := range checks {
		if c.Identifier == "" {
			continue
		}

		key := c.Definition.Name + ":" + c.Identifier
		if _, dup := seen[key]; dup {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{}, len(checks))
		}
		seen[key] = struct{}{}

		count, resetAt, err := l.store.Increment(ctx, key, c.Definition.Window)
		if err != nil {
			l.log.WarnContext(ctx, "rate limit store unavailable, failing open",
				slog.String("definition", c.Definition.Name),
				slog.Any("error", err))
			continue
		}

		if count > c.Definition.Limit {
			failed = true
			if reset.IsZero() || resetAt.Before(reset) {
				reset = resetAt
			}
		}
	}

	if failed {
		return &Result{Success: false, Reset: reset}
	}
	return &Result{Success: true}
}
