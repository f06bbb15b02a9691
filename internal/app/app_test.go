package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/optjournal/internal/config"
	"github.com/alanyoungcy/optjournal/internal/domain"
)

const tradesCSV = `TransactionDate,TransactionType,SecurityType,Symbol,Quantity,Amount,Price,Commission,Description
02/05/26,Bought,OPTN,QQQ---260205C00609000,2,-201.30,1.00,1.30,CALL QQQ
02/05/26,Sold,OPTN,QQQ---260205C00609000,-2,298.70,1.50,1.30,CALL QQQ
02/05/26,Sold Short,OPTN,SPY---260213P00600000,-1,299.35,3.00,0.65,PUT SPY
02/05/26,Bought To Cover,OPTN,SPY---260213P00600000,1,-400.65,4.00,0.65,PUT SPY
`

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "journal.db")
	cfg.Import.InboxDir = ""

	var out bytes.Buffer
	a := New(&cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), "test", &out)
	a.now = func() time.Time { return time.Date(2026, 2, 5, 20, 0, 0, 0, time.UTC) }
	t.Cleanup(a.Close)
	return a, &out
}

func TestCommandsAgainstSQLite(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "trades.csv")
	if err := os.WriteFile(path, []byte(tradesCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		args []string
		want []string
	}{
		{
			args: []string{"import", path},
			want: []string{
				"Imported 4 executions from trades.csv",
				"2026-02-05  4 executions, 2 round trips, net $-3.90",
				"Net P/L:        $-3.90",
				"Win Rate:       50% (1W / 1L / 0S)",
			},
		},
		{
			args: []string{"import", path},
			want: []string{"Imported 0 executions from trades.csv (4 duplicates"},
		},
		{
			args: []string{"note", "2026-02-05", "chased", "the", "SPY", "put"},
			want: []string{"Note saved for 2026-02-05"},
		},
		{
			args: []string{"today"},
			want: []string{"Trading Journal 2026-02-05", "Notes: chased the SPY put"},
		},
		{
			args: []string{"trades", "2026-02-04"},
			want: []string{"No trades found for 2026-02-04"},
		},
		{
			args: []string{"window", "2026-02-01", "2026-02-28"},
			want: []string{"Performance 2026-02-01 to 2026-02-28", "Days Traded:    1", "Total Trades:   2"},
		},
		{
			args: []string{"recompute", "2026-02-05"},
			want: []string{"2026-02-05  4 executions, 2 round trips, net $-3.90", "Notes: chased the SPY put"},
		},
		{
			args: []string{"history", "5"},
			want: []string{"recompute_day", "import_batch", "date=2026-02-05", "inserted=4"},
		},
	}
	for _, st := range steps {
		out.Reset()
		if err := a.Run(ctx, st.args); err != nil {
			t.Fatalf("%v: %v", st.args, err)
		}
		for _, w := range st.want {
			if !strings.Contains(out.String(), w) {
				t.Errorf("%v: output missing %q:\n%s", st.args, w, out.String())
			}
		}
	}
}

func TestCommandErrors(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	tests := []struct {
		args []string
		want error
	}{
		{nil, ErrUsage},
		{[]string{"bogus"}, ErrUsage},
		{[]string{"import"}, ErrUsage},
		{[]string{"today", "extra"}, ErrUsage},
		{[]string{"trades", "05/02/2026"}, ErrUsage},
		{[]string{"stats", "0"}, ErrUsage},
		{[]string{"history", "-3"}, ErrUsage},
		{[]string{"note", "2026-02-06", "nothing traded"}, domain.ErrNotFound},
		{[]string{"export", "2026-02-01", "2026-02-28"}, domain.ErrUnsupported},
		{[]string{"import", "s3://imports/trades.csv"}, domain.ErrUnsupported},
	}
	for _, tt := range tests {
		err := a.Run(ctx, tt.args)
		if !errors.Is(err, tt.want) {
			t.Errorf("%v: err = %v, want %v", tt.args, err, tt.want)
		}
	}
}

func TestCheckArgs(t *testing.T) {
	tests := []struct {
		cmd  string
		n    int
		fail bool
	}{
		{"serve", 0, false},
		{"serve", 1, true},
		{"stats", 1, false},
		{"stats", 2, true},
		{"note", 1, true},
		{"note", 5, false},
		{"window", 2, false},
		{"window", 1, true},
		{"history", 0, false},
		{"history", 2, true},
	}
	for _, tt := range tests {
		err := checkArgs(tt.cmd, make([]string, tt.n))
		if (err != nil) != tt.fail {
			t.Errorf("checkArgs(%s, %d) = %v, want fail=%v", tt.cmd, tt.n, err, tt.fail)
		}
	}
}
