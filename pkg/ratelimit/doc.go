// Package ratelimit provides fixed-window request limiting over pluggable
// counter storage.
//
// A Definition names a (limit, window) pair; a Check pairs it with the
// identifier to count against. One logical request can evaluate several
// checks at once (per-user, per-IP, global) and is admitted only when all of
// them pass:
//
//	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(redisClient))
//
//	result := limiter.Check(ctx,
//		ratelimit.Check{Definition: perUser, Identifier: userID},
//		ratelimit.Check{Definition: perIP, Identifier: clientIP},
//		ratelimit.Check{Definition: global, Identifier: "global"},
//	)
//	if !result.Success {
//		retryAfter := ratelimit.RetryAfterSeconds(result.Reset)
//		// respond 429 with Retry-After
//	}
//
// Checks with an empty identifier are skipped, and duplicate
// (definition, identifier) pairs within one call count only once.
//
// # Failure semantics
//
// Counter-store unavailability fails open: the affected check passes and the
// outage is logged. The limiter is a throttle, not an access control; an
// outage in the counter store must not take the whole product down.
//
// Two stores ship with the package: MemoryStore for single-instance
// deployments and tests, RedisStore for shared counters across replicas.
// Both make the increment-and-compare step atomic per key so concurrent
// requests cannot both claim the last remaining slot.
package ratelimit
