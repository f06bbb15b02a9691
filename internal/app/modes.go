package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
	"github.com/alanyoungcy/optjournal/internal/pipeline"
	"github.com/alanyoungcy/optjournal/internal/server"
	"github.com/alanyoungcy/optjournal/internal/server/handler"
	"github.com/alanyoungcy/optjournal/internal/server/ws"
	"github.com/alanyoungcy/optjournal/internal/watch"
)

// Import reads a local file or s3:// object and prints the batch result
// followed by every recomputed day.
func (a *App) Import(ctx context.Context, location string) error {
	res, err := a.deps.Imports.ImportLocation(ctx, location, a.deps.Blobs)
	if err != nil {
		return err
	}
	RenderImport(a.out, res)
	for _, d := range res.Days {
		if d.Summary == nil {
			continue
		}
		if err := a.ShowDay(ctx, d.Date); err != nil {
			return err
		}
	}
	return nil
}

// ShowDay prints the round trips and summary of one trade date.
func (a *App) ShowDay(ctx context.Context, date time.Time) error {
	summary, err := a.deps.Journal.GetDailySummary(ctx, date)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(a.out, "No trades found for %s\n", date.Format(domain.DateLayout))
		return nil
	}
	if err != nil {
		return err
	}
	trips, err := a.deps.Journal.GetRoundTrips(ctx, date)
	if err != nil {
		return err
	}
	RenderDay(a.out, summary, trips)
	return nil
}

// Stats prints the trailing n-day window ending today.
func (a *App) Stats(ctx context.Context, n int) error {
	sum, err := a.deps.Journal.RecentDays(ctx, n)
	if err != nil {
		return err
	}
	RenderWindow(a.out, fmt.Sprintf("%d-Day Performance", n), sum)
	return nil
}

// Window prints the aggregate of an inclusive date range.
func (a *App) Window(ctx context.Context, start, end time.Time) error {
	sum, err := a.deps.Journal.GetWindowSummary(ctx, start, end)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Performance %s to %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	RenderWindow(a.out, title, sum)
	return nil
}

// Recompute rebuilds one date from its stored executions.
func (a *App) Recompute(ctx context.Context, date time.Time) error {
	res, err := a.deps.Journal.RecomputeDay(ctx, date)
	if err != nil {
		return err
	}
	renderDayResult(a.out, res)
	if res.Summary == nil {
		return nil
	}
	return a.ShowDay(ctx, date)
}

// Note replaces the free-text notes of a trade date that has a summary.
func (a *App) Note(ctx context.Context, date time.Time, text string) error {
	err := a.deps.Journal.SetDayNotes(ctx, date, text)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("app: note: no summary for %s: %w", date.Format(domain.DateLayout), err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Note saved for %s\n", date.Format(domain.DateLayout))
	return nil
}

// Export writes a JSONL snapshot of [start, end] to object storage.
func (a *App) Export(ctx context.Context, start, end time.Time) error {
	if a.deps.Archiver == nil {
		return fmt.Errorf("app: export: object storage not configured: %w", domain.ErrUnsupported)
	}
	m, err := a.newExporter().Export(ctx, start, end)
	if err != nil {
		return err
	}
	RenderExport(a.out, m)
	return nil
}

// History prints the newest audit entries first.
func (a *App) History(ctx context.Context, limit int) error {
	entries, err := a.deps.Audit.List(ctx, domain.ListOpts{Limit: limit})
	if err != nil {
		return fmt.Errorf("app: history: %w", err)
	}
	RenderHistory(a.out, entries)
	return nil
}

// Watch imports CSV files dropped into the inbox until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	inbox, err := a.newInbox()
	if err != nil {
		return err
	}
	return inbox.Run(ctx)
}

// Serve starts the HTTP API, the WebSocket hub, the inbox watcher and, when
// configured, the export cron. It blocks until ctx is cancelled or one of
// them fails.
func (a *App) Serve(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("storage", a.deps.StorageName),
		slog.String("cache", a.deps.CacheName),
	)

	hub := ws.NewHub(a.deps.Bus, a.cfg.Server.CORSOrigins, a.logger)
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.deps.Checks, a.logger),
		Status: &handler.StatusHandler{
			Version: a.version,
			Storage: a.deps.StorageName,
			Cache:   a.deps.CacheName,
			Archive: a.deps.Archiver != nil,
		},
		Journal: handler.NewJournalHandler(a.deps.Journal, a.logger),
		Imports: handler.NewImportHandler(a.deps.Imports, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, a.deps.Limiter, a.logger)

	orch := pipeline.NewOrchestrator(a.logger)
	orch.Add("http", srv.Run)
	orch.Add("ws_hub", hub.Run)

	if a.cfg.Import.InboxDir != "" {
		inbox, err := a.newInbox()
		if err != nil {
			return err
		}
		orch.Add("inbox", inbox.Run)
	}

	if a.cfg.Export.Cron != "" {
		if a.deps.Archiver == nil {
			a.logger.WarnContext(ctx, "export cron set but object storage is not configured; skipping")
		} else {
			sched, err := pipeline.ParseSchedule(a.cfg.Export.Cron)
			if err != nil {
				return fmt.Errorf("app: export cron: %w", err)
			}
			exporter := a.newExporter()
			orch.Add("export_cron", func(ctx context.Context) error {
				return exporter.RunCron(ctx, sched)
			})
		}
	}

	return orch.Run(ctx)
}

func (a *App) newExporter() *pipeline.Exporter {
	return pipeline.NewExporter(a.deps.Archiver, a.deps.Notifier, a.cfg.Export.WindowDays, a.logger)
}

// newInbox creates the inbox directory if needed and returns a watcher that
// feeds every settled file through the import service.
func (a *App) newInbox() (*watch.Inbox, error) {
	dir := a.cfg.Import.InboxDir
	if dir == "" {
		return nil, fmt.Errorf("app: watch: import.inbox_dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("app: watch: create inbox: %w", err)
	}
	importFn := func(ctx context.Context, path string) error {
		_, err := a.deps.Imports.ImportLocation(ctx, path, nil)
		return err
	}
	return watch.NewInbox(watch.Config{
		Dir:            dir,
		Debounce:       a.cfg.Import.Debounce.Duration,
		ImportExisting: a.cfg.Import.ImportExisting,
	}, importFn, a.logger), nil
}
