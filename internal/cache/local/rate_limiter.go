package local

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

type limiterKey struct {
	key    string
	limit  int
	window time.Duration
}

// RateLimiter implements domain.RateLimiter with one token bucket per key.
// A bucket refills limit tokens per window and bursts up to limit.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[limiterKey]*rate.Limiter
}

// NewRateLimiter creates an empty RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[limiterKey]*rate.Limiter)}
}

// Allow reports whether a request for key is permitted now.
func (rl *RateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	k := limiterKey{key: key, limit: limit, window: window}

	rl.mu.Lock()
	lim, ok := rl.limiters[k]
	if !ok {
		lim = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
		rl.limiters[k] = lim
	}
	rl.mu.Unlock()

	return lim.Allow(), nil
}

var _ domain.RateLimiter = (*RateLimiter)(nil)
