// Package sqlite implements the journal store interfaces on an embedded
// SQLite file through database/sql and the pure-Go modernc.org/sqlite
// driver. Dates are stored as YYYY-MM-DD text and money as decimal text so
// values read back exactly as they were written.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// DB wraps the SQLite handle shared by the stores in this package.
type DB struct {
	sql *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	memory := path == ":memory:"
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if !memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite: create data dir: %w", err)
			}
		}
		dsn += "&_pragma=journal_mode(WAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if memory {
		// Each connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}

	d := &DB{sql: sqlDB}
	if err := d.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks the database handle.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS executions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    natural_key  TEXT    NOT NULL UNIQUE,
    trade_date   TEXT    NOT NULL,
    kind         TEXT    NOT NULL,
    label        TEXT    NOT NULL,
    symbol       TEXT    NOT NULL,
    underlying   TEXT    NOT NULL,
    expiration   TEXT    NOT NULL,
    strike       TEXT    NOT NULL,
    option_type  TEXT    NOT NULL,
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    price        TEXT    NOT NULL,
    amount       TEXT    NOT NULL,
    commission   TEXT    NOT NULL,
    description  TEXT    NOT NULL DEFAULT '',
    created_at   TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_executions_trade_date ON executions (trade_date, id);

CREATE TABLE IF NOT EXISTS round_trips (
    trade_date      TEXT    NOT NULL,
    seq             INTEGER NOT NULL,
    underlying      TEXT    NOT NULL,
    expiration      TEXT    NOT NULL,
    strike          TEXT    NOT NULL,
    option_type     TEXT    NOT NULL,
    direction       TEXT    NOT NULL,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    entry_price     TEXT    NOT NULL,
    exit_price      TEXT    NOT NULL,
    entry_proceeds  TEXT    NOT NULL,
    exit_proceeds   TEXT    NOT NULL,
    gross_pnl       TEXT    NOT NULL,
    net_pnl         TEXT    NOT NULL,
    commission      TEXT    NOT NULL,
    pnl_percent     TEXT    NOT NULL,
    setup_type      TEXT    NOT NULL DEFAULT '',
    notes           TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (trade_date, seq)
);

CREATE TABLE IF NOT EXISTS daily_summaries (
    trade_date     TEXT    PRIMARY KEY,
    total_trades   INTEGER NOT NULL,
    winners        INTEGER NOT NULL,
    losers         INTEGER NOT NULL,
    scratches      INTEGER NOT NULL,
    win_rate       TEXT    NOT NULL,
    gross_pnl      TEXT    NOT NULL,
    commissions    TEXT    NOT NULL,
    net_pnl        TEXT    NOT NULL,
    largest_win    TEXT    NOT NULL,
    largest_loss   TEXT    NOT NULL,
    avg_winner     TEXT    NOT NULL,
    avg_loser      TEXT    NOT NULL,
    avg_trade      TEXT    NOT NULL,
    gross_wins     TEXT    NOT NULL,
    gross_losses   TEXT    NOT NULL,
    profit_factor  TEXT    NOT NULL,
    notes          TEXT    NOT NULL DEFAULT '',
    updated_at     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    event       TEXT NOT NULL,
    detail      TEXT,
    created_at  TEXT NOT NULL
);
`

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

func dateArg(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: bad stored date %q: %w", s, err)
	}
	return t, nil
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
