package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/cache/local"
	"github.com/alanyoungcy/optjournal/internal/domain"
	"github.com/alanyoungcy/optjournal/internal/journal"
	"github.com/alanyoungcy/optjournal/internal/service"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func mustNormalize(t *testing.T, rec domain.RawRecord) domain.Execution {
	t.Helper()
	e, err := journal.Normalize(rec)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return e
}

func rec(label, qty, price, amount, commission string) domain.RawRecord {
	return domain.RawRecord{
		TransactionDate: "02/05/26",
		TransactionType: label,
		Symbol:          "QQQ---260205C00609000",
		Quantity:        qty,
		Price:           price,
		Amount:          amount,
		Commission:      commission,
	}
}

func TestExecutionStoreDedup(t *testing.T) {
	ctx := context.Background()
	store := NewExecutionStore(openTestDB(t))

	execs := []domain.Execution{
		mustNormalize(t, rec("Bought", "2", "1.00", "-201.30", "1.30")),
		mustNormalize(t, rec("Sold", "2", "1.50", "298.70", "1.30")),
	}
	n, err := store.InsertBatch(ctx, execs)
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}
	n, err = store.InsertBatch(ctx, execs)
	if err != nil {
		t.Fatalf("InsertBatch again: %v", err)
	}
	if n != 0 {
		t.Errorf("re-inserted = %d, want 0", n)
	}

	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	got, err := store.ListByDate(ctx, day)
	if err != nil {
		t.Fatalf("ListByDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByDate len = %d, want 2", len(got))
	}
	if got[0].Kind != domain.KindOpenBuy || got[1].Kind != domain.KindCloseSell {
		t.Errorf("order = %s, %s; want insertion order", got[0].Kind, got[1].Kind)
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("-201.30")) {
		t.Errorf("Amount = %s, want -201.30", got[0].Amount)
	}
	if !got[0].Contract.Equal(execs[0].Contract) {
		t.Errorf("Contract = %v, want %v", got[0].Contract, execs[0].Contract)
	}

	dates, err := store.Dates(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	if len(dates) != 1 || !dates[0].Equal(day) {
		t.Errorf("Dates = %v, want [%v]", dates, day)
	}
}

func TestDayStoreReplaceDay(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	days := NewDayStore(db)
	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	execs := []domain.Execution{
		mustNormalize(t, rec("Bought", "3", "1.17", "-352.95", "1.95")),
		mustNormalize(t, rec("Sold", "2", "1.31", "260.70", "1.30")),
		mustNormalize(t, rec("Sold", "1", "1.09", "108.35", "0.65")),
	}
	trips := journal.MatchDay(day, execs).Trips
	summary, _ := journal.Summarize(day, trips)

	if err := days.ReplaceDay(ctx, day, trips, &summary); err != nil {
		t.Fatalf("ReplaceDay: %v", err)
	}
	if err := days.SetDayNotes(ctx, day, "faded the gap"); err != nil {
		t.Fatalf("SetDayNotes: %v", err)
	}
	if err := days.ReplaceDay(ctx, day, trips, &summary); err != nil {
		t.Fatalf("ReplaceDay again: %v", err)
	}

	got, err := days.RoundTrips(ctx, day)
	if err != nil {
		t.Fatalf("RoundTrips: %v", err)
	}
	if len(got) != len(trips) {
		t.Fatalf("RoundTrips len = %d, want %d", len(got), len(trips))
	}
	for i := range trips {
		if !got[i].NetPnL.Equal(trips[i].NetPnL) || got[i].Seq != trips[i].Seq {
			t.Errorf("trip %d = #%d %s, want #%d %s", i, got[i].Seq, got[i].NetPnL, trips[i].Seq, trips[i].NetPnL)
		}
	}

	stored, err := days.Summary(ctx, day)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if stored.Notes != "faded the gap" {
		t.Errorf("Notes = %q, want notes kept", stored.Notes)
	}
	if !stored.ProfitFactor.Equal(summary.ProfitFactor) || stored.TotalTrades != 2 {
		t.Errorf("summary = %+v, want %+v", stored, summary)
	}

	// An empty replace clears trips but leaves the summary row alone.
	if err := days.ReplaceDay(ctx, day, nil, nil); err != nil {
		t.Fatalf("ReplaceDay empty: %v", err)
	}
	if got, _ := days.RoundTrips(ctx, day); len(got) != 0 {
		t.Errorf("RoundTrips after empty replace = %d, want 0", len(got))
	}
	if _, err := days.Summary(ctx, day); err != nil {
		t.Errorf("Summary after empty replace: %v", err)
	}
}

func TestDayStoreAbsent(t *testing.T) {
	ctx := context.Background()
	days := NewDayStore(openTestDB(t))
	day := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)

	if _, err := days.Summary(ctx, day); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Summary error = %v, want %v", err, domain.ErrNotFound)
	}
	if err := days.SetDayNotes(ctx, day, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SetDayNotes error = %v, want %v", err, domain.ErrNotFound)
	}
	sums, err := days.Summaries(ctx, day, day)
	if err != nil || len(sums) != 0 {
		t.Errorf("Summaries = %v, %v; want empty", sums, err)
	}
}

func TestAuditStore(t *testing.T) {
	ctx := context.Background()
	audit := NewAuditStore(openTestDB(t))
	if err := audit.Log(ctx, "import_batch", map[string]any{"inserted": 3}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := audit.Log(ctx, "export", nil); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries, err := audit.List(ctx, domain.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Event != "export" {
		t.Fatalf("entries = %+v, want newest first", entries)
	}
	if got := entries[1].Detail["inserted"]; got != float64(3) {
		t.Errorf("detail inserted = %v, want 3", got)
	}

	imports, err := audit.List(ctx, domain.ListOpts{Event: "import_batch"})
	if err != nil {
		t.Fatalf("List by event: %v", err)
	}
	if len(imports) != 1 || imports[0].Event != "import_batch" {
		t.Errorf("filtered entries = %+v, want the import_batch entry", imports)
	}
}

func TestServiceRecomputeIsByteIdenticalOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	days := NewDayStore(db)
	svc := service.NewJournalService(
		NewExecutionStore(db), days, NewAuditStore(db),
		local.NewLockManager(), nil, nil,
		service.JournalConfig{LockTTL: time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	rows := []domain.RawRecord{
		rec("Bought", "2", "1.00", "-201.30", "1.30"),
		rec("Bought", "3", "1.20", "-361.95", "1.95"),
		rec("Sold", "-4", "1.50", "597.40", "2.60"),
		rec("Sold", "-1", "1.10", "109.35", "0.65"),
	}
	res, err := svc.ImportBatch(ctx, rows)
	if err != nil {
		t.Fatalf("ImportBatch: %v", err)
	}
	if res.Inserted != 4 {
		t.Fatalf("Inserted = %d, want 4", res.Inserted)
	}

	day := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	snap := func() string {
		trips, err := days.RoundTrips(ctx, day)
		if err != nil {
			t.Fatalf("RoundTrips: %v", err)
		}
		summary, err := days.Summary(ctx, day)
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		b, _ := json.Marshal([]any{trips, summary})
		return string(b)
	}

	first := snap()
	if _, err := svc.RecomputeDay(ctx, day); err != nil {
		t.Fatalf("RecomputeDay: %v", err)
	}
	if second := snap(); second != first {
		t.Errorf("recompute changed stored data:\n%s\n%s", first, second)
	}
	if _, err := svc.ImportBatch(ctx, rows); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if third := snap(); third != first {
		t.Errorf("re-import changed stored data:\n%s\n%s", first, third)
	}

	summary, err := svc.GetDailySummary(ctx, day)
	if err != nil {
		t.Fatalf("GetDailySummary: %v", err)
	}
	if !summary.NetPnL.Equal(decimal.RequireFromString("143.50")) {
		t.Errorf("NetPnL = %s, want 143.50", summary.NetPnL)
	}
}
