package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// newLiveClient connects to the Redis at JOURNAL_TEST_REDIS_ADDR (default
// localhost:6379) under a throwaway key prefix, or skips the test.
func newLiveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("JOURNAL_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	prefix := "optjournal-test-" + uuid.NewString() + ":"
	c, err := New(ctx, ClientConfig{Addr: addr, KeyPrefix: prefix, MaxRetries: -1})
	if err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			c.rdb.Del(ctx, iter.Val())
		}
		_ = c.Close()
	})
	return c
}

func TestLockManagerLive(t *testing.T) {
	c := newLiveClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "lock:journal:day:2026-02-05", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := lm.Acquire(ctx, "lock:journal:day:2026-02-05", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("second Acquire error = %v, want %v", err, domain.ErrLockHeld)
	}
	unlock()
	unlock()
	again, err := lm.Acquire(ctx, "lock:journal:day:2026-02-05", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after unlock: %v", err)
	}
	again()
}

func TestLockManagerLiveStaleUnlock(t *testing.T) {
	c := newLiveClient(t)
	lm := NewLockManager(c)
	ctx := context.Background()

	stale, err := lm.Acquire(ctx, "k", 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	fresh, err := lm.Acquire(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after expiry: %v", err)
	}
	defer fresh()

	// The expired holder's token no longer matches, so its unlock is a no-op.
	stale()
	if _, err := lm.Acquire(ctx, "k", time.Minute); !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("Acquire error = %v, want %v", err, domain.ErrLockHeld)
	}
}

func TestRateLimiterLive(t *testing.T) {
	c := newLiveClient(t)
	rl := NewRateLimiter(c)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, "10.0.0.1", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d: allowed=%v err=%v", i, ok, err)
		}
	}
	if ok, err := rl.Allow(ctx, "10.0.0.1", 3, time.Minute); err != nil || ok {
		t.Errorf("fourth request: allowed=%v err=%v, want limited", ok, err)
	}
	if ok, err := rl.Allow(ctx, "10.0.0.2", 3, time.Minute); err != nil || !ok {
		t.Errorf("other client: allowed=%v err=%v, want allowed", ok, err)
	}
}

func TestSummaryCacheLive(t *testing.T) {
	c := newLiveClient(t)
	sc := NewSummaryCache(c, time.Minute)
	ctx := context.Background()
	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	if _, err := sc.Get(ctx, day); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get on empty cache error = %v, want %v", err, domain.ErrNotFound)
	}

	want := domain.DailySummary{
		Date:        day,
		TotalTrades: 2,
		NetPnL:      decimal.RequireFromString("-3.90"),
		Notes:       "chased the SPY put",
	}
	if err := sc.Set(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := sc.Get(ctx, day)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Date.Equal(day) || got.TotalTrades != 2 || !got.NetPnL.Equal(want.NetPnL) || got.Notes != want.Notes {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
	if ttl := c.rdb.TTL(ctx, c.Key("summary", "2026-02-05")).Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within (0, 1m]", ttl)
	}

	if err := sc.Invalidate(ctx, day); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := sc.Get(ctx, day); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get after Invalidate error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestSignalBusLive(t *testing.T) {
	c := newLiveClient(t)
	bus := NewSignalBus(c)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := "journal:test:" + uuid.NewString()
	exact, err := bus.Subscribe(ctx, base+":days")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	pattern, err := bus.Subscribe(ctx, base+":*")
	if err != nil {
		t.Fatalf("Subscribe pattern: %v", err)
	}

	if err := bus.Publish(ctx, base+":days", []byte(`{"date":"2026-02-05"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for name, ch := range map[string]<-chan []byte{"exact": exact, "pattern": pattern} {
		select {
		case msg := <-ch:
			if string(msg) != `{"date":"2026-02-05"}` {
				t.Errorf("%s: payload = %s", name, msg)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("%s: no message received", name)
		}
	}

	cancel()
	select {
	case _, ok := <-exact:
		if ok {
			t.Error("exact subscription delivered after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Error("subscription channel not closed after cancel")
	}
}
