// Package watch imports broker exports dropped into an inbox directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ImportFunc imports the file at path.
type ImportFunc func(ctx context.Context, path string) error

// Config controls the inbox watcher.
type Config struct {
	Dir string
	// Debounce is how long a file must stay quiet before it is imported, so
	// half-written downloads are not read.
	Debounce time.Duration
	// ImportExisting imports *.csv files already present at start.
	ImportExisting bool
}

// Inbox watches Dir for new or rewritten *.csv files.
type Inbox struct {
	cfg    Config
	fn     ImportFunc
	logger *slog.Logger
}

func NewInbox(cfg Config, fn ImportFunc, logger *slog.Logger) *Inbox {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	return &Inbox{
		cfg:    cfg,
		fn:     fn,
		logger: logger.With(slog.String("component", "inbox"), slog.String("dir", cfg.Dir)),
	}
}

// Run blocks until ctx is cancelled. Import failures are logged and the
// watcher keeps running.
func (in *Inbox) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(in.cfg.Dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", in.cfg.Dir, err)
	}
	in.logger.Info("watching inbox", slog.Duration("debounce", in.cfg.Debounce))

	pending := newDebouncer(in.cfg.Debounce)
	if in.cfg.ImportExisting {
		existing, err := filepath.Glob(filepath.Join(in.cfg.Dir, "*"))
		if err != nil {
			return fmt.Errorf("watch: scan %s: %w", in.cfg.Dir, err)
		}
		now := time.Now()
		for _, p := range existing {
			if isCSV(p) {
				pending.touch(p, now.Add(-in.cfg.Debounce))
			}
		}
	}

	ticker := time.NewTicker(in.cfg.Debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if isCSV(ev.Name) && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending.touch(ev.Name, time.Now())
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Warn("watcher error", slog.String("error", err.Error()))

		case now := <-ticker.C:
			for _, p := range pending.due(now) {
				in.importFile(ctx, p)
			}
		}
	}
}

func (in *Inbox) importFile(ctx context.Context, path string) {
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	in.logger.Info("importing", slog.String("file", filepath.Base(path)))
	if err := in.fn(ctx, path); err != nil {
		in.logger.Error("inbox import failed",
			slog.String("file", filepath.Base(path)),
			slog.String("error", err.Error()),
		)
	}
}

func isCSV(p string) bool {
	base := filepath.Base(p)
	return strings.EqualFold(filepath.Ext(base), ".csv") && !strings.HasPrefix(base, ".")
}

// debouncer tracks the last event time per path.
type debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	last  map[string]time.Time
}

func newDebouncer(quiet time.Duration) *debouncer {
	return &debouncer{quiet: quiet, last: make(map[string]time.Time)}
}

func (d *debouncer) touch(path string, at time.Time) {
	d.mu.Lock()
	d.last[path] = at
	d.mu.Unlock()
}

// due removes and returns, sorted, the paths quiet for at least the
// debounce interval.
func (d *debouncer) due(now time.Time) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for p, t := range d.last {
		if now.Sub(t) >= d.quiet {
			out = append(out, p)
			delete(d.last, p)
		}
	}
	sort.Strings(out)
	return out
}
