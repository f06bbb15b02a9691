package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// DayStore implements domain.DayStore on SQLite. ReplaceDay runs in a single
// write transaction; with WAL, readers keep seeing the previous state of the
// date until it commits.
type DayStore struct {
	db *sql.DB
}

// NewDayStore creates a DayStore on d.
func NewDayStore(d *DB) *DayStore {
	return &DayStore{db: d.sql}
}

const roundTripSelectCols = `seq, trade_date, underlying, expiration, strike, option_type,
	direction, quantity, entry_price, exit_price, entry_proceeds, exit_proceeds,
	gross_pnl, net_pnl, commission, pnl_percent, setup_type, notes`

const summarySelectCols = `trade_date, total_trades, winners, losers, scratches, win_rate,
	gross_pnl, commissions, net_pnl, largest_win, largest_loss,
	avg_winner, avg_loser, avg_trade, gross_wins, gross_losses, profit_factor, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRoundTrip(sc scanner) (domain.RoundTrip, error) {
	var (
		t                  domain.RoundTrip
		tradeDate, expiry  string
		optType, direction string
	)
	if err := sc.Scan(
		&t.Seq, &tradeDate, &t.Contract.Underlying, &expiry, &t.Contract.Strike, &optType,
		&direction, &t.Quantity, &t.EntryPrice, &t.ExitPrice, &t.EntryProceeds, &t.ExitProceeds,
		&t.GrossPnL, &t.NetPnL, &t.Commission, &t.PnLPercent, &t.SetupType, &t.Notes,
	); err != nil {
		return domain.RoundTrip{}, err
	}
	var err error
	if t.TradeDate, err = parseDate(tradeDate); err != nil {
		return domain.RoundTrip{}, err
	}
	if t.Contract.Expiration, err = parseDate(expiry); err != nil {
		return domain.RoundTrip{}, err
	}
	t.Contract.Type = domain.OptionType(optType)
	t.Direction = domain.Direction(direction)
	return t, nil
}

func scanSummary(sc scanner) (domain.DailySummary, error) {
	var (
		s    domain.DailySummary
		date string
	)
	if err := sc.Scan(
		&date, &s.TotalTrades, &s.Winners, &s.Losers, &s.Scratches, &s.WinRate,
		&s.GrossPnL, &s.Commissions, &s.NetPnL, &s.LargestWin, &s.LargestLoss,
		&s.AvgWinner, &s.AvgLoser, &s.AvgTrade, &s.GrossWins, &s.GrossLosses, &s.ProfitFactor, &s.Notes,
	); err != nil {
		return domain.DailySummary{}, err
	}
	var err error
	s.Date, err = parseDate(date)
	return s, err
}

// ReplaceDay deletes the date's round trips, inserts trips and upserts the
// summary in one transaction. Existing summary notes are kept.
func (s *DayStore) ReplaceDay(ctx context.Context, date time.Time, trips []domain.RoundTrip, summary *domain.DailySummary) error {
	day := dateArg(date)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin replace day %s: %w", day, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM round_trips WHERE trade_date = ?`, day); err != nil {
		return fmt.Errorf("sqlite: delete round trips %s: %w", day, err)
	}

	if len(trips) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO round_trips (
				trade_date, seq, underlying, expiration, strike, option_type,
				direction, quantity, entry_price, exit_price, entry_proceeds, exit_proceeds,
				gross_pnl, net_pnl, commission, pnl_percent
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("sqlite: prepare insert round trip: %w", err)
		}
		defer stmt.Close()

		for _, t := range trips {
			if _, err := stmt.ExecContext(ctx,
				day, t.Seq, t.Contract.Underlying, dateArg(t.Contract.Expiration), t.Contract.Strike, string(t.Contract.Type),
				string(t.Direction), t.Quantity, t.EntryPrice, t.ExitPrice, t.EntryProceeds, t.ExitProceeds,
				t.GrossPnL, t.NetPnL, t.Commission, t.PnLPercent,
			); err != nil {
				return fmt.Errorf("sqlite: insert round trip %s #%d: %w", day, t.Seq, err)
			}
		}
	}

	if summary != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_summaries (
				trade_date, total_trades, winners, losers, scratches, win_rate,
				gross_pnl, commissions, net_pnl, largest_win, largest_loss,
				avg_winner, avg_loser, avg_trade, gross_wins, gross_losses, profit_factor, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (trade_date) DO UPDATE SET
				total_trades = excluded.total_trades,
				winners = excluded.winners,
				losers = excluded.losers,
				scratches = excluded.scratches,
				win_rate = excluded.win_rate,
				gross_pnl = excluded.gross_pnl,
				commissions = excluded.commissions,
				net_pnl = excluded.net_pnl,
				largest_win = excluded.largest_win,
				largest_loss = excluded.largest_loss,
				avg_winner = excluded.avg_winner,
				avg_loser = excluded.avg_loser,
				avg_trade = excluded.avg_trade,
				gross_wins = excluded.gross_wins,
				gross_losses = excluded.gross_losses,
				profit_factor = excluded.profit_factor,
				updated_at = excluded.updated_at`,
			day, summary.TotalTrades, summary.Winners, summary.Losers, summary.Scratches, summary.WinRate,
			summary.GrossPnL, summary.Commissions, summary.NetPnL, summary.LargestWin, summary.LargestLoss,
			summary.AvgWinner, summary.AvgLoser, summary.AvgTrade, summary.GrossWins, summary.GrossLosses, summary.ProfitFactor,
			nowText(),
		); err != nil {
			return fmt.Errorf("sqlite: upsert summary %s: %w", day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit replace day %s: %w", day, err)
	}
	return nil
}

func (s *DayStore) queryRoundTrips(ctx context.Context, query string, args ...any) ([]domain.RoundTrip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.RoundTrip
	for rows.Next() {
		t, err := scanRoundTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// RoundTrips returns a date's round trips ordered by seq.
func (s *DayStore) RoundTrips(ctx context.Context, date time.Time) ([]domain.RoundTrip, error) {
	trips, err := s.queryRoundTrips(ctx,
		`SELECT `+roundTripSelectCols+` FROM round_trips WHERE trade_date = ? ORDER BY seq`, dateArg(date))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list round trips: %w", err)
	}
	return trips, nil
}

// RoundTripsInRange returns round trips in [start, end] ordered by date and seq.
func (s *DayStore) RoundTripsInRange(ctx context.Context, start, end time.Time) ([]domain.RoundTrip, error) {
	trips, err := s.queryRoundTrips(ctx,
		`SELECT `+roundTripSelectCols+` FROM round_trips
		 WHERE trade_date BETWEEN ? AND ? ORDER BY trade_date, seq`, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list round trips in range: %w", err)
	}
	return trips, nil
}

// Summary returns the summary for date or domain.ErrNotFound.
func (s *DayStore) Summary(ctx context.Context, date time.Time) (domain.DailySummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summarySelectCols+` FROM daily_summaries WHERE trade_date = ?`, dateArg(date))
	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DailySummary{}, domain.ErrNotFound
		}
		return domain.DailySummary{}, fmt.Errorf("sqlite: get summary: %w", err)
	}
	return summary, nil
}

// Summaries returns the summaries in [start, end] ordered by date.
func (s *DayStore) Summaries(ctx context.Context, start, end time.Time) ([]domain.DailySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+summarySelectCols+` FROM daily_summaries
		 WHERE trade_date BETWEEN ? AND ? ORDER BY trade_date`, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan summary: %w", err)
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// SetDayNotes updates the notes of an existing summary.
func (s *DayStore) SetDayNotes(ctx context.Context, date time.Time, notes string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE daily_summaries SET notes = ?, updated_at = ? WHERE trade_date = ?`, notes, nowText(), dateArg(date))
	if err != nil {
		return fmt.Errorf("sqlite: set day notes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.DayStore = (*DayStore)(nil)
