package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries. An empty
// Event matches every event.
type ListOpts struct {
	Limit  int
	Offset int
	Event  string
	Since  *time.Time
	Until  *time.Time
}

// ExecutionStore persists normalized fills. InsertBatch skips rows whose
// natural key already exists and returns how many rows were new.
type ExecutionStore interface {
	InsertBatch(ctx context.Context, execs []Execution) (int, error)
	ListByDate(ctx context.Context, date time.Time) ([]Execution, error)
	Dates(ctx context.Context, start, end time.Time) ([]time.Time, error)
}

// DayStore persists derived round trips and daily summaries. ReplaceDay is
// atomic: readers never observe a date with its round trips deleted but not
// yet rewritten. A nil summary leaves any existing summary row untouched.
type DayStore interface {
	ReplaceDay(ctx context.Context, date time.Time, trips []RoundTrip, summary *DailySummary) error
	RoundTrips(ctx context.Context, date time.Time) ([]RoundTrip, error)
	RoundTripsInRange(ctx context.Context, start, end time.Time) ([]RoundTrip, error)
	Summary(ctx context.Context, date time.Time) (DailySummary, error)
	Summaries(ctx context.Context, start, end time.Time) ([]DailySummary, error)
	SetDayNotes(ctx context.Context, date time.Time, notes string) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
