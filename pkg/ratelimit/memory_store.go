package ratelimit

import (
	"context"
	"sync"
	"time"
)

// counter tracks hits within a fixed window.
type counter struct {
	count   int64
	resetAt time.Time
}

// MemoryStore implements Store with in-process fixed-window counters.
// Suitable for single-instance deployments and tests; multi-instance
// deployments should use the Redis store so all replicas share counters.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired counters are purged.
// Set to 0 to disable background cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		counters:        make(map[string]*counter),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

// Increment bumps the counter for key, starting a fresh window when the
// previous one has lapsed. The mutex makes increment-and-read atomic per
// store, which is what admission correctness requires.
func (ms *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	c, exists := ms.counters[key]
	if !exists || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		ms.counters[key] = c
	}

	c.count++
	return c.count, c.resetAt, nil
}

// Reset clears the counter for key.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.counters, key)
	return nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeExpired()
		case <-ms.stopCleanup:
			return
		}
	}
}

// removeExpired drops counters whose window has lapsed, mirroring the
// natural TTL expiry of the Redis store.
func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, c := range ms.counters {
		if !now.Before(c.resetAt) {
			delete(ms.counters, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.closeOnce.Do(func() {
		close(ms.stopCleanup)
	})
}
