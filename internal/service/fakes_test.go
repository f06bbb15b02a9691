package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

type memExecStore struct {
	mu     sync.Mutex
	rows   []domain.Execution
	keys   map[string]bool
	nextID int64
}

func newMemExecStore() *memExecStore {
	return &memExecStore{keys: make(map[string]bool)}
}

func (m *memExecStore) InsertBatch(_ context.Context, execs []domain.Execution) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range execs {
		if m.keys[e.NaturalKey] {
			continue
		}
		m.nextID++
		e.ID = m.nextID
		m.keys[e.NaturalKey] = true
		m.rows = append(m.rows, e)
		n++
	}
	return n, nil
}

func (m *memExecStore) ListByDate(_ context.Context, date time.Time) ([]domain.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Execution
	for _, e := range m.rows {
		if e.TradeDate.Equal(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memExecStore) Dates(_ context.Context, start, end time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, e := range m.rows {
		if seen[e.TradeDate] || e.TradeDate.Before(start) || e.TradeDate.After(end) {
			continue
		}
		seen[e.TradeDate] = true
		out = append(out, e.TradeDate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

type memDayStore struct {
	mu        sync.Mutex
	trips     map[time.Time][]domain.RoundTrip
	summaries map[time.Time]domain.DailySummary
	replaces  int
}

func newMemDayStore() *memDayStore {
	return &memDayStore{
		trips:     make(map[time.Time][]domain.RoundTrip),
		summaries: make(map[time.Time]domain.DailySummary),
	}
}

func (m *memDayStore) ReplaceDay(_ context.Context, date time.Time, trips []domain.RoundTrip, summary *domain.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaces++
	m.trips[date] = append([]domain.RoundTrip(nil), trips...)
	if summary != nil {
		s := *summary
		s.Notes = m.summaries[date].Notes
		m.summaries[date] = s
	}
	return nil
}

func (m *memDayStore) RoundTrips(_ context.Context, date time.Time) ([]domain.RoundTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RoundTrip(nil), m.trips[date]...), nil
}

func (m *memDayStore) RoundTripsInRange(_ context.Context, start, end time.Time) ([]domain.RoundTrip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.RoundTrip
	for d, trips := range m.trips {
		if !d.Before(start) && !d.After(end) {
			out = append(out, trips...)
		}
	}
	return out, nil
}

func (m *memDayStore) Summary(_ context.Context, date time.Time) (domain.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[date]
	if !ok {
		return domain.DailySummary{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memDayStore) Summaries(_ context.Context, start, end time.Time) ([]domain.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailySummary
	for d, s := range m.summaries {
		if !d.Before(start) && !d.After(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memDayStore) SetDayNotes(_ context.Context, date time.Time, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.summaries[date]
	if !ok {
		return domain.ErrNotFound
	}
	s.Notes = notes
	m.summaries[date] = s
	return nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *memAudit) Log(_ context.Context, event string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, domain.AuditEntry{ID: int64(len(m.entries) + 1), Event: event, Detail: detail})
	return nil
}

func (m *memAudit) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range m.entries {
		if opts.Event == "" || e.Event == opts.Event {
			out = append(out, e)
		}
	}
	return out, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[time.Time]domain.DailySummary
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[time.Time]domain.DailySummary)}
}

func (m *memCache) Get(_ context.Context, date time.Time) (domain.DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[date]
	if !ok {
		return domain.DailySummary{}, domain.ErrNotFound
	}
	m.hits++
	return s, nil
}

func (m *memCache) Set(_ context.Context, s domain.DailySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.Date] = s
	return nil
}

func (m *memCache) Invalidate(_ context.Context, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, date)
	return nil
}
