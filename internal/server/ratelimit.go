package server

import (
	"sync"
	"time"
)

// rateLimiter allows one attempt per key per window. Keys are client IPs, so
// a kiosk uploading snapshots faster than the window gets 429s instead of
// hammering the recognition pipeline.
type rateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

func newRateLimiter(window time.Duration) *rateLimiter {
	return &rateLimiter{
		window: window,
		last:   make(map[string]time.Time),
	}
}

func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if last, ok := rl.last[key]; ok && now.Sub(last) < rl.window {
		return false
	}

	// Prune stale entries so the map does not grow with client churn.
	if len(rl.last) > 1024 {
		for k, t := range rl.last {
			if now.Sub(t) >= rl.window {
				delete(rl.last, k)
			}
		}
	}

	rl.last[key] = now
	return true
}
