// Package ratelimit provides a keyed token bucket limiter, one bucket per key
// (client IP for the login endpoint). Idle buckets are evicted periodically.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new keyed rate limiter.
// rps: requests per second allowed, burst: tokens available immediately.
// Buckets unused for idleTTL are dropped (0 disables the sweeper).
func New(rps float64, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}

	if idleTTL > 0 {
		go krl.sweep(idleTTL)
	}

	return krl
}

// Allow checks if a request for the given key should be allowed without blocking.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// RetryAfter ước lượng thời gian chờ đến khi key có token tiếp theo
func (krl *KeyedRateLimiter) RetryAfter(key string) time.Duration {
	r := krl.getLimiter(key).Reserve()
	defer r.Cancel()
	return r.Delay()
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastSeen = krl.now()
	return e.limiter
}

// evictIdle xóa bucket không dùng lâu hơn idleTTL
func (krl *KeyedRateLimiter) evictIdle() {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idleTTL)
	for k, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, k)
		}
	}
}

func (krl *KeyedRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			krl.evictIdle()
		case <-krl.done:
			return
		}
	}
}

// Stop shuts down the sweeper goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}
