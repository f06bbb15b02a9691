package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ImportCompleted announces a finished import with the net P/L of every day
// it touched.
func (n *Notifier) ImportCompleted(ctx context.Context, source string, res domain.ImportResult) error {
	title, msg := ImportMessage(source, res)
	return n.Notify(ctx, EventImportCompleted, title, msg)
}

// ImportFailed announces an import that aborted on a structural error.
func (n *Notifier) ImportFailed(ctx context.Context, source string, err error) error {
	return n.Notify(ctx, EventImportFailed, "Import failed", fmt.Sprintf("%s\n%v", source, err))
}

// ExportCompleted announces a journal export.
func (n *Notifier) ExportCompleted(ctx context.Context, m domain.ExportManifest) error {
	title := fmt.Sprintf("Journal export %s to %s", m.Start.Format(domain.DateLayout), m.End.Format(domain.DateLayout))
	msg := fmt.Sprintf("%d days, %d round trips\n%s", m.Days, m.RoundTrips, strings.Join(m.Paths, "\n"))
	return n.Notify(ctx, EventExportCompleted, title, msg)
}

// ImportMessage renders the title and body of an import notification.
func ImportMessage(source string, res domain.ImportResult) (string, string) {
	title := "Import completed"
	if source != "" {
		title += ": " + source
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d inserted, %d duplicate, %d invalid, %d non-option\n",
		res.Inserted, res.Duplicates, res.Invalid, res.NonOption)
	for _, d := range res.Days {
		date := d.Date.Format(domain.DateLayout)
		if d.Summary == nil {
			fmt.Fprintf(&b, "%s: no round trips\n", date)
			continue
		}
		fmt.Fprintf(&b, "%s: %d trades, net %s, win rate %s%%\n",
			date, d.Summary.TotalTrades, d.Summary.NetPnL.StringFixed(2), d.Summary.WinRate.StringFixed(1))
	}
	return title, strings.TrimRight(b.String(), "\n")
}
