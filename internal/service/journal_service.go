package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/optjournal/internal/domain"
	"github.com/alanyoungcy/optjournal/internal/journal"
	"github.com/alanyoungcy/optjournal/internal/metrics"
	"github.com/alanyoungcy/optjournal/internal/trace"
)

// JournalConfig tunes the per-date write lock.
type JournalConfig struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// JournalService is the engine facade: it normalizes broker rows, stores
// executions and keeps each trade date's round trips and summary in step
// with them.
type JournalService struct {
	execs  domain.ExecutionStore
	days   domain.DayStore
	audit  domain.AuditStore
	locks  domain.LockManager
	cache  domain.SummaryCache
	bus    domain.SignalBus
	cfg    JournalConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewJournalService creates a JournalService. cache and bus may be nil.
func NewJournalService(
	execs domain.ExecutionStore,
	days domain.DayStore,
	audit domain.AuditStore,
	locks domain.LockManager,
	cache domain.SummaryCache,
	bus domain.SignalBus,
	cfg JournalConfig,
	logger *slog.Logger,
) *JournalService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &JournalService{
		execs:  execs,
		days:   days,
		audit:  audit,
		locks:  locks,
		cache:  cache,
		bus:    bus,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "journal_service")),
		now:    time.Now,
	}
}

// ImportBatch normalizes records, inserts the new executions and recomputes
// every trade date the batch touches. Bad rows are counted, never fatal;
// only store and lock failures return an error.
func (s *JournalService) ImportBatch(ctx context.Context, records []domain.RawRecord) (res domain.ImportResult, err error) {
	ctx, span := trace.StartSpan(ctx, "journal.ImportBatch")
	defer span.End()
	defer func() { metrics.RecordBatch(err) }()

	res.BatchID = uuid.NewString()
	res.Records = len(records)

	nb := journal.NormalizeBatch(records)
	res.Invalid = nb.Invalid
	res.NonOption = nb.NonOption
	for _, re := range nb.Errors {
		s.logger.DebugContext(ctx, "skipped record",
			slog.String("batch_id", res.BatchID),
			slog.Int("row", re.Row),
			slog.String("reason", re.Err.Error()),
		)
	}

	inserted, err := s.execs.InsertBatch(ctx, nb.Executions)
	if err != nil {
		return res, fmt.Errorf("journal_service: insert executions: %w", err)
	}
	res.Inserted = inserted
	res.Duplicates = len(nb.Executions) - inserted
	metrics.RecordImport(res.Inserted, res.Duplicates, res.Invalid, res.NonOption)

	for _, date := range affectedDates(nb.Executions) {
		day, err := s.RecomputeDay(ctx, date)
		if err != nil {
			return res, err
		}
		res.Days = append(res.Days, day)
	}

	detail := map[string]any{
		"batch_id":   res.BatchID,
		"records":    res.Records,
		"inserted":   res.Inserted,
		"duplicates": res.Duplicates,
		"invalid":    res.Invalid,
		"non_option": res.NonOption,
		"days":       len(res.Days),
	}
	if auditErr := s.audit.Log(ctx, "import_batch", detail); auditErr != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", auditErr.Error()))
	}
	s.publish(ctx, domain.ChannelImports, "import_completed", detail)

	s.logger.InfoContext(ctx, "import complete",
		slog.String("batch_id", res.BatchID),
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped()),
		slog.Int("non_option", res.NonOption),
		slog.Int("days", len(res.Days)),
	)
	return res, nil
}

// RecomputeDay re-derives the round trips and summary for one trade date
// from its stored executions. Writes for a date are serialized by a lock so
// concurrent runs never interleave their replace.
func (s *JournalService) RecomputeDay(ctx context.Context, date time.Time) (domain.DayResult, error) {
	date = domain.TradeDate(date)
	day := date.Format(domain.DateLayout)
	ctx, span := trace.StartSpan(ctx, "journal.RecomputeDay")
	defer span.End()

	unlock, err := s.acquire(ctx, dayLockKey(date))
	if err != nil {
		return domain.DayResult{}, fmt.Errorf("journal_service: lock %s: %w", day, err)
	}
	defer unlock()

	start := time.Now()
	execs, err := s.execs.ListByDate(ctx, date)
	if err != nil {
		return domain.DayResult{}, fmt.Errorf("journal_service: list executions %s: %w", day, err)
	}

	matched := journal.MatchDay(date, execs)
	res := domain.DayResult{
		Date:       date,
		Executions: len(execs),
		RoundTrips: len(matched.Trips),
		Leftovers:  matched.Leftovers,
	}
	if summary, ok := journal.Summarize(date, matched.Trips); ok {
		res.Summary = &summary
	}

	if err := s.days.ReplaceDay(ctx, date, matched.Trips, res.Summary); err != nil {
		return domain.DayResult{}, fmt.Errorf("journal_service: replace day %s: %w", day, err)
	}
	s.refreshCache(ctx, date)

	var long, short, openLeft, closeLeft int
	for _, t := range matched.Trips {
		if t.Direction == domain.DirectionShort {
			short++
		} else {
			long++
		}
	}
	for _, l := range matched.Leftovers {
		openLeft += l.OpenQty
		closeLeft += l.CloseQty
		s.logger.InfoContext(ctx, "unmatched quantity",
			slog.String("date", day),
			slog.String("contract", l.Contract.String()),
			slog.String("direction", string(l.Direction)),
			slog.Int("open_qty", l.OpenQty),
			slog.Int("close_qty", l.CloseQty),
		)
	}
	var net float64
	if res.Summary != nil {
		net = res.Summary.NetPnL.InexactFloat64()
	}
	metrics.RecordRecompute(time.Since(start), long, short, openLeft, closeLeft, net, res.Summary != nil)

	evt := map[string]any{
		"date":        day,
		"executions":  res.Executions,
		"round_trips": res.RoundTrips,
	}
	if res.Summary != nil {
		evt["net_pnl"] = res.Summary.NetPnL.StringFixed(2)
		evt["win_rate"] = res.Summary.WinRate.StringFixed(2)
	}
	if auditErr := s.audit.Log(ctx, "recompute_day", evt); auditErr != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.String("error", auditErr.Error()))
	}
	s.publish(ctx, domain.ChannelDays, "day_recomputed", evt)

	s.logger.DebugContext(ctx, "day recomputed",
		slog.String("date", day),
		slog.Int("executions", res.Executions),
		slog.Int("round_trips", res.RoundTrips),
	)
	return res, nil
}

// GetDailySummary returns the stored summary for date, or domain.ErrNotFound
// when nothing was traded that day. On a cache miss the store is read, and
// the cache filled, only while the date's lock is free; a reader racing a
// recompute gets the store's answer without caching it.
func (s *JournalService) GetDailySummary(ctx context.Context, date time.Time) (domain.DailySummary, error) {
	date = domain.TradeDate(date)
	if s.cache == nil {
		return s.storedSummary(ctx, date)
	}
	if cached, err := s.cache.Get(ctx, date); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "summary cache get failed", slog.String("error", err.Error()))
	}

	unlock, err := s.locks.Acquire(ctx, dayLockKey(date), s.cfg.LockTTL)
	if err != nil {
		return s.storedSummary(ctx, date)
	}
	defer unlock()

	summary, err := s.storedSummary(ctx, date)
	if err != nil {
		return domain.DailySummary{}, err
	}
	if cacheErr := s.cache.Set(ctx, summary); cacheErr != nil {
		s.logger.WarnContext(ctx, "summary cache set failed", slog.String("error", cacheErr.Error()))
	}
	return summary, nil
}

func (s *JournalService) storedSummary(ctx context.Context, date time.Time) (domain.DailySummary, error) {
	summary, err := s.days.Summary(ctx, date)
	if err != nil {
		return domain.DailySummary{}, fmt.Errorf("journal_service: summary %s: %w", date.Format(domain.DateLayout), err)
	}
	return summary, nil
}

// refreshCache writes the stored summary of date through to the cache, or
// drops the entry when there is none. Callers hold the date's lock.
func (s *JournalService) refreshCache(ctx context.Context, date time.Time) {
	if s.cache == nil {
		return
	}
	day := date.Format(domain.DateLayout)
	summary, err := s.days.Summary(ctx, date)
	if err == nil {
		err = s.cache.Set(ctx, summary)
		if err == nil {
			return
		}
	} else if errors.Is(err, domain.ErrNotFound) {
		err = nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "summary cache refresh failed",
			slog.String("date", day),
			slog.String("error", err.Error()),
		)
	}
	if invErr := s.cache.Invalidate(ctx, date); invErr != nil {
		s.logger.WarnContext(ctx, "summary cache invalidate failed",
			slog.String("date", day),
			slog.String("error", invErr.Error()),
		)
	}
}

// GetRoundTrips returns the round trips of date in matching order.
func (s *JournalService) GetRoundTrips(ctx context.Context, date time.Time) ([]domain.RoundTrip, error) {
	trips, err := s.days.RoundTrips(ctx, domain.TradeDate(date))
	if err != nil {
		return nil, fmt.Errorf("journal_service: round trips: %w", err)
	}
	return trips, nil
}

// GetWindowSummary aggregates the daily summaries in [start, end].
func (s *JournalService) GetWindowSummary(ctx context.Context, start, end time.Time) (domain.WindowSummary, error) {
	start, end = domain.TradeDate(start), domain.TradeDate(end)
	if end.Before(start) {
		return domain.WindowSummary{}, fmt.Errorf("journal_service: window %s..%s: %w",
			start.Format(domain.DateLayout), end.Format(domain.DateLayout), domain.ErrInvalidRange)
	}
	days, err := s.days.Summaries(ctx, start, end)
	if err != nil {
		return domain.WindowSummary{}, fmt.Errorf("journal_service: summaries: %w", err)
	}
	return journal.SummarizeWindow(start, end, days), nil
}

// RecentDays aggregates everything from n days before today through today.
func (s *JournalService) RecentDays(ctx context.Context, n int) (domain.WindowSummary, error) {
	if n <= 0 {
		return domain.WindowSummary{}, fmt.Errorf("journal_service: recent %d days: %w", n, domain.ErrInvalidRange)
	}
	today := domain.TradeDate(s.now())
	return s.GetWindowSummary(ctx, today.AddDate(0, 0, -n), today)
}

// SetDayNotes stores free-text notes on an existing daily summary.
func (s *JournalService) SetDayNotes(ctx context.Context, date time.Time, notes string) error {
	date = domain.TradeDate(date)
	unlock, err := s.acquire(ctx, dayLockKey(date))
	if err != nil {
		return fmt.Errorf("journal_service: lock %s: %w", date.Format(domain.DateLayout), err)
	}
	defer unlock()

	if err := s.days.SetDayNotes(ctx, date, notes); err != nil {
		return fmt.Errorf("journal_service: set notes: %w", err)
	}
	s.refreshCache(ctx, date)
	return nil
}

// Today returns the current trade date.
func (s *JournalService) Today() time.Time {
	return domain.TradeDate(s.now())
}

func dayLockKey(date time.Time) string {
	return "lock:journal:day:" + date.Format(domain.DateLayout)
}

// acquire takes the named lock, retrying while it is held until LockWait
// elapses.
func (s *JournalService) acquire(ctx context.Context, key string) (func(), error) {
	deadline := time.Now().Add(s.cfg.LockWait)
	for {
		unlock, err := s.locks.Acquire(ctx, key, s.cfg.LockTTL)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, domain.ErrLockHeld) || time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (s *JournalService) publish(ctx context.Context, channel, event string, detail map[string]any) {
	if s.bus == nil {
		return
	}
	payload := make(map[string]any, len(detail)+1)
	for k, v := range detail {
		payload[k] = v
	}
	payload["event"] = event
	evt, _ := json.Marshal(payload)
	if err := s.bus.Publish(ctx, channel, evt); err != nil {
		s.logger.WarnContext(ctx, "publish event failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

// affectedDates returns the distinct trade dates of execs in ascending order.
func affectedDates(execs []domain.Execution) []time.Time {
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, e := range execs {
		d := domain.TradeDate(e.TradeDate)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
