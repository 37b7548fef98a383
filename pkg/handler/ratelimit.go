package handler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// UserRateLimiter keeps a token bucket per user. Buckets idle for longer than
// the ttl are dropped on the next call after the ttl has passed.
type UserRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastPrune time.Time
	now       func() time.Time
}

// NewUserRateLimiter allows n events per window per user, with a burst of n.
func NewUserRateLimiter(n int, window, ttl time.Duration) *UserRateLimiter {
	return &UserRateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   rate.Every(window / time.Duration(n)),
		burst:   n,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Allow reports whether the user may proceed now
func (l *UserRateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPrune) > l.ttl {
		l.prune(now)
		l.lastPrune = now
	}

	e, ok := l.entries[userID]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[userID] = e
	}
	e.lastUse = now
	return e.limiter.AllowN(now, 1)
}

func (l *UserRateLimiter) prune(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastUse) > l.ttl {
			delete(l.entries, k)
		}
	}
}

// Len returns the number of tracked users
func (l *UserRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
