// Package pipeline runs the journal's background jobs: the scheduled export
// and the orchestration of long-running serve-mode tasks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ParseSchedule parses a standard five-field cron expression or a
// descriptor such as "@daily". Expressions that never fire are rejected.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("pipeline: cron %q: %w", expr, err)
	}
	if sched.Next(time.Now()).IsZero() {
		return nil, fmt.Errorf("pipeline: cron %q: never fires", expr)
	}
	return sched, nil
}

// ExportNotifier is told about finished exports.
type ExportNotifier interface {
	ExportCompleted(ctx context.Context, m domain.ExportManifest) error
}

// Exporter snapshots the trailing window of the journal to object storage.
type Exporter struct {
	archiver   domain.Archiver
	notifier   ExportNotifier
	windowDays int
	now        func() time.Time
	logger     *slog.Logger
}

// NewExporter creates an Exporter covering windowDays days up to and
// including today. notifier may be nil.
func NewExporter(archiver domain.Archiver, notifier ExportNotifier, windowDays int, logger *slog.Logger) *Exporter {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Exporter{
		archiver:   archiver,
		notifier:   notifier,
		windowDays: windowDays,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "exporter")),
	}
}

// Run performs one export of the trailing window.
func (e *Exporter) Run(ctx context.Context) (domain.ExportManifest, error) {
	end := domain.TradeDate(e.now())
	start := end.AddDate(0, 0, -(e.windowDays - 1))
	return e.Export(ctx, start, end)
}

// Export writes [start, end] and notifies on success.
func (e *Exporter) Export(ctx context.Context, start, end time.Time) (domain.ExportManifest, error) {
	e.logger.InfoContext(ctx, "export starting",
		slog.String("start", start.Format(domain.DateLayout)),
		slog.String("end", end.Format(domain.DateLayout)),
	)
	m, err := e.archiver.ExportJournal(ctx, start, end)
	if err != nil {
		return m, fmt.Errorf("pipeline: export: %w", err)
	}
	e.logger.InfoContext(ctx, "export complete",
		slog.Int("days", m.Days),
		slog.Int("round_trips", m.RoundTrips),
		slog.Any("paths", m.Paths),
	)
	if e.notifier != nil {
		if nErr := e.notifier.ExportCompleted(ctx, m); nErr != nil {
			e.logger.WarnContext(ctx, "export notification failed", slog.String("error", nErr.Error()))
		}
	}
	return m, nil
}

// RunCron exports on sched until ctx is cancelled. A failed run is logged
// and the next one still fires; a run still in progress skips the next tick.
func (e *Exporter) RunCron(ctx context.Context, sched cron.Schedule) error {
	logger := cronLogger{e.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		if _, err := e.Run(ctx); err != nil {
			e.logger.Error("scheduled export failed", slog.String("error", err.Error()))
		}
	}))

	e.logger.Info("export cron started", slog.Time("next_run", sched.Next(time.Now().UTC())))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes the scheduler's own messages into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err.Error())...)
}
