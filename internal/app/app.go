// Package app provides the top-level lifecycle of the journal. It wires the
// stores, caches, object storage, services and notifications selected by
// configuration and runs one CLI command on top of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/optjournal/internal/config"
	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ErrUsage reports a command line that names no known command or carries
// the wrong arguments.
var ErrUsage = errors.New("app: usage")

// Usage is printed by the binary when a command line is rejected.
const Usage = `usage: journal [-config path] <command> [args]

commands:
  import <file|s3://key>     import an E*TRADE transaction export
  today                      show today's round trips and summary
  trades [YYYY-MM-DD]        show one trade date (default today)
  stats [days]               aggregate the last N days (default 7)
  window <start> <end>       aggregate an inclusive date range
  recompute <YYYY-MM-DD>     rebuild a date from its executions
  note <YYYY-MM-DD> <text>   attach notes to a trade date
  export <start> <end>       write a JSONL snapshot to object storage
  history [n]                list the latest audit log entries (default 20)
  watch                      import CSV files dropped into the inbox
  serve                      run the HTTP API, inbox watcher and export cron
`

const (
	defaultStatsDays    = 7
	defaultHistoryLimit = 20
)

// App is the root application object. It owns the configuration, logger,
// wired dependencies and a list of cleanup functions that are called in
// reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string
	out     io.Writer
	now     func() time.Time

	deps    *Dependencies
	closers []func()
}

// New creates an App. Command output goes to out; logs go to logger.
func New(cfg *config.Config, logger *slog.Logger, version string, out io.Writer) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "app")),
		version: version,
		out:     out,
		now:     time.Now,
	}
}

// Run executes one command. Dependencies are wired on the first call and
// reused by later ones until Close.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]
	if err := checkArgs(cmd, rest); err != nil {
		return err
	}

	if a.deps == nil {
		deps, cleanup, err := Wire(ctx, a.cfg, a.version, a.logger)
		if err != nil {
			return fmt.Errorf("app: wire dependencies: %w", err)
		}
		a.deps = deps
		a.closers = append(a.closers, cleanup)
	}

	a.logger.DebugContext(ctx, "running command", slog.String("command", cmd), slog.Any("args", rest))

	switch cmd {
	case "import":
		return a.Import(ctx, rest[0])
	case "today":
		return a.ShowDay(ctx, a.today())
	case "trades":
		date := a.today()
		if len(rest) == 1 {
			d, err := a.parseDate(rest[0])
			if err != nil {
				return err
			}
			date = d
		}
		return a.ShowDay(ctx, date)
	case "stats":
		days := defaultStatsDays
		if len(rest) == 1 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 1 {
				return fmt.Errorf("%w: stats: days must be a positive integer, got %q", ErrUsage, rest[0])
			}
			days = n
		}
		return a.Stats(ctx, days)
	case "window", "export":
		start, err := a.parseDate(rest[0])
		if err != nil {
			return err
		}
		end, err := a.parseDate(rest[1])
		if err != nil {
			return err
		}
		if cmd == "window" {
			return a.Window(ctx, start, end)
		}
		return a.Export(ctx, start, end)
	case "recompute":
		date, err := a.parseDate(rest[0])
		if err != nil {
			return err
		}
		return a.Recompute(ctx, date)
	case "note":
		date, err := a.parseDate(rest[0])
		if err != nil {
			return err
		}
		return a.Note(ctx, date, strings.Join(rest[1:], " "))
	case "history":
		limit := defaultHistoryLimit
		if len(rest) == 1 {
			n, err := strconv.Atoi(rest[0])
			if err != nil || n < 1 {
				return fmt.Errorf("%w: history: n must be a positive integer, got %q", ErrUsage, rest[0])
			}
			limit = n
		}
		return a.History(ctx, limit)
	case "watch":
		return a.Watch(ctx)
	case "serve":
		return a.Serve(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
}

// checkArgs validates the argument count of cmd before anything is wired.
func checkArgs(cmd string, args []string) error {
	var lo, hi int
	switch cmd {
	case "today", "watch", "serve":
		lo, hi = 0, 0
	case "trades", "stats", "history":
		lo, hi = 0, 1
	case "import", "recompute":
		lo, hi = 1, 1
	case "window", "export":
		lo, hi = 2, 2
	case "note":
		lo, hi = 2, -1
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return fmt.Errorf("%w: %s: wrong number of arguments", ErrUsage, cmd)
	}
	return nil
}

func (a *App) today() time.Time {
	return domain.TradeDate(a.now())
}

// parseDate accepts YYYY-MM-DD or "today".
func (a *App) parseDate(s string) (time.Time, error) {
	if strings.EqualFold(s, "today") {
		return a.today(), nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrUsage, s)
	}
	return d, nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.deps = nil
}
