package app

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

var (
	wideRule   = strings.Repeat("=", 60)
	narrowRule = strings.Repeat("=", 50)
)

// RenderDay writes one trade date: its round trips followed by the summary.
func RenderDay(w io.Writer, summary domain.DailySummary, trips []domain.RoundTrip) {
	fmt.Fprintf(w, "\nTrading Journal %s\n", summary.Date.Format(domain.DateLayout))
	fmt.Fprintln(w, wideRule)

	for _, t := range trips {
		fmt.Fprintf(w, "  #%-3d %-5s %8s %-4s %-5s %3dx  $%s -> $%s  = $%8s %s\n",
			t.Seq,
			t.Contract.Underlying,
			t.Contract.Strike.StringFixed(2),
			t.Contract.Type,
			t.Direction,
			t.Quantity,
			t.EntryPrice.StringFixed(2),
			t.ExitPrice.StringFixed(2),
			signed(t.NetPnL),
			outcome(t.NetPnL),
		)
	}

	fmt.Fprintln(w, wideRule)
	fmt.Fprintf(w, "  Net P/L:        $%s\n", signed(summary.NetPnL))
	fmt.Fprintf(w, "  Gross P/L:      $%s\n", signed(summary.GrossPnL))
	fmt.Fprintf(w, "  Commissions:    $%s\n", summary.Commissions.StringFixed(2))
	fmt.Fprintf(w, "  Win Rate:       %s%% (%dW / %dL / %dS)\n",
		summary.WinRate.StringFixed(0), summary.Winners, summary.Losers, summary.Scratches)
	fmt.Fprintf(w, "  Profit Factor:  %s\n", summary.ProfitFactor.StringFixed(2))
	fmt.Fprintf(w, "  Largest Win:    $%s\n", signed(summary.LargestWin))
	fmt.Fprintf(w, "  Largest Loss:   $%s\n", signed(summary.LargestLoss))
	if summary.Notes != "" {
		fmt.Fprintf(w, "\n  Notes: %s\n", summary.Notes)
	}
	fmt.Fprintln(w)
}

// RenderWindow writes aggregate statistics for a date range, then one line
// per traded day, newest first, with the running equity.
func RenderWindow(w io.Writer, title string, ws domain.WindowSummary) {
	if ws.DaysTraded == 0 {
		fmt.Fprintf(w, "No trades between %s and %s\n",
			ws.Start.Format(domain.DateLayout), ws.End.Format(domain.DateLayout))
		return
	}

	fmt.Fprintf(w, "\n%s\n", title)
	fmt.Fprintln(w, narrowRule)
	fmt.Fprintf(w, "  Days Traded:    %d\n", ws.DaysTraded)
	fmt.Fprintf(w, "  Total Trades:   %d\n", ws.TotalTrades)
	fmt.Fprintf(w, "  Net P/L:        $%s\n", signed(ws.NetPnL))
	fmt.Fprintf(w, "  Commissions:    $%s\n", ws.Commissions.StringFixed(2))
	fmt.Fprintf(w, "  Win Rate:       %s%%\n", ws.WinRate.StringFixed(0))
	fmt.Fprintf(w, "  Profit Factor:  %s\n", ws.ProfitFactor.StringFixed(2))
	if ws.BestDay != nil {
		fmt.Fprintf(w, "  Best Day:       $%s (%s)\n", signed(ws.BestDay.NetPnL), ws.BestDay.Date.Format(domain.DateLayout))
	}
	if ws.WorstDay != nil {
		fmt.Fprintf(w, "  Worst Day:      $%s (%s)\n", signed(ws.WorstDay.NetPnL), ws.WorstDay.Date.Format(domain.DateLayout))
	}
	fmt.Fprintf(w, "  Avg Daily:      $%s\n", signed(ws.AvgDaily))

	fmt.Fprintln(w, "\n  Daily Breakdown:")
	for i := len(ws.Days) - 1; i >= 0; i-- {
		d := ws.Days[i]
		cumulative := d.NetPnL
		if i < len(ws.EquityCurve) {
			cumulative = ws.EquityCurve[i].Cumulative
		}
		fmt.Fprintf(w, "    %s  %2d trades  %dW/%dL  $%8s  equity $%9s\n",
			d.Date.Format(domain.DateLayout), d.TotalTrades, d.Winners, d.Losers,
			signed(d.NetPnL), signed(cumulative))
	}
	fmt.Fprintln(w)
}

// RenderImport writes the counts of one import batch and the days it
// recomputed.
func RenderImport(w io.Writer, res domain.ImportResult) {
	fmt.Fprintf(w, "Imported %d executions from %s (%d duplicates, %d invalid, %d non-option skipped)\n",
		res.Inserted, res.Source, res.Duplicates, res.Invalid, res.NonOption)
	if res.ArchivePath != "" {
		fmt.Fprintf(w, "Archived raw file to %s\n", res.ArchivePath)
	}
	for _, d := range res.Days {
		renderDayResult(w, d)
	}
}

func renderDayResult(w io.Writer, d domain.DayResult) {
	date := d.Date.Format(domain.DateLayout)
	if d.Summary == nil {
		fmt.Fprintf(w, "  %s  %d executions, no round trips\n", date, d.Executions)
	} else {
		fmt.Fprintf(w, "  %s  %d executions, %d round trips, net $%s\n",
			date, d.Executions, d.RoundTrips, signed(d.Summary.NetPnL))
	}
	for _, l := range d.Leftovers {
		fmt.Fprintf(w, "    unmatched %s %s: %d open, %d close\n", l.Direction, l.Contract, l.OpenQty, l.CloseQty)
	}
}

// RenderExport lists the objects written by an export.
func RenderExport(w io.Writer, m domain.ExportManifest) {
	fmt.Fprintf(w, "Exported %s to %s: %d days, %d round trips\n",
		m.Start.Format(domain.DateLayout), m.End.Format(domain.DateLayout), m.Days, m.RoundTrips)
	for _, p := range m.Paths {
		fmt.Fprintf(w, "  %s\n", p)
	}
}

// RenderHistory writes audit entries one per line with their details in key
// order.
func RenderHistory(w io.Writer, entries []domain.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries")
		return
	}
	for _, e := range entries {
		fields := make([]string, 0, len(e.Detail))
		for _, k := range slices.Sorted(maps.Keys(e.Detail)) {
			fields = append(fields, fmt.Sprintf("%s=%v", k, e.Detail[k]))
		}
		fmt.Fprintf(w, "  #%-5d %s  %-14s %s\n",
			e.ID, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), e.Event, strings.Join(fields, " "))
	}
}

// signed formats d with two decimals and an explicit sign.
func signed(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}

func outcome(net decimal.Decimal) string {
	switch {
	case net.IsPositive():
		return "W"
	case net.IsNegative():
		return "L"
	default:
		return "-"
	}
}
