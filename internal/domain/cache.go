package domain

import (
	"context"
	"time"
)

// SummaryCache keeps recently read daily summaries close at hand.
type SummaryCache interface {
	Get(ctx context.Context, date time.Time) (DailySummary, error)
	Set(ctx context.Context, summary DailySummary) error
	Invalidate(ctx context.Context, date time.Time) error
}

// RateLimiter provides request rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides exclusive locks keyed by name.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub messaging.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Bus channels.
const (
	ChannelImports = "journal:imports"
	ChannelDays    = "journal:days"
)
