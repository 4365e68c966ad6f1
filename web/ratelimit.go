package web

import (
	"sync"

	"golang.org/x/time/rate"
)

// keyedLimiter hands out one token bucket per key. A zero limit disables limiting.
type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newKeyedLimiter(limit rate.Limit, burst int) *keyedLimiter {
	if limit == 0 {
		limit = rate.Inf
	}

	return &keyedLimiter{
		mu:       sync.Mutex{},
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *keyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}

	return limiter.Allow()
}
