package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// SummaryCache implements domain.SummaryCache with one JSON string per trade
// date:
//
//	{prefix}summary:{YYYY-MM-DD}
type SummaryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	client *Client
}

// NewSummaryCache creates a SummaryCache whose entries expire after ttl.
func NewSummaryCache(c *Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: c.Underlying(), ttl: ttl, client: c}
}

func (sc *SummaryCache) key(date time.Time) string {
	return sc.client.Key("summary", date.Format(domain.DateLayout))
}

// Set stores a summary under its date.
func (sc *SummaryCache) Set(ctx context.Context, summary domain.DailySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis: marshal summary: %w", err)
	}
	if err := sc.rdb.Set(ctx, sc.key(summary.Date), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set summary %s: %w", summary.Date.Format(domain.DateLayout), err)
	}
	return nil
}

// Get returns the cached summary or domain.ErrNotFound.
func (sc *SummaryCache) Get(ctx context.Context, date time.Time) (domain.DailySummary, error) {
	data, err := sc.rdb.Get(ctx, sc.key(date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DailySummary{}, domain.ErrNotFound
		}
		return domain.DailySummary{}, fmt.Errorf("redis: get summary %s: %w", date.Format(domain.DateLayout), err)
	}

	var summary domain.DailySummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.DailySummary{}, fmt.Errorf("redis: unmarshal summary: %w", err)
	}
	return summary, nil
}

// Invalidate drops the cached summary for date.
func (sc *SummaryCache) Invalidate(ctx context.Context, date time.Time) error {
	if err := sc.rdb.Del(ctx, sc.key(date)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate summary %s: %w", date.Format(domain.DateLayout), err)
	}
	return nil
}

var _ domain.SummaryCache = (*SummaryCache)(nil)
