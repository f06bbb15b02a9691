package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// DayStore implements domain.DayStore using PostgreSQL. A day's round trips
// and summary are rewritten in one transaction, so concurrent readers see
// either the old or the new state of a date.
type DayStore struct {
	pool *pgxpool.Pool
}

// NewDayStore creates a new DayStore backed by the given connection pool.
func NewDayStore(pool *pgxpool.Pool) *DayStore {
	return &DayStore{pool: pool}
}

const roundTripSelectCols = `seq, trade_date, underlying, expiration, strike, option_type,
	direction, quantity, entry_price, exit_price, entry_proceeds, exit_proceeds,
	gross_pnl, net_pnl, commission, pnl_percent, setup_type, notes`

const summarySelectCols = `trade_date, total_trades, winners, losers, scratches, win_rate,
	gross_pnl, commissions, net_pnl, largest_win, largest_loss,
	avg_winner, avg_loser, avg_trade, gross_wins, gross_losses, profit_factor, notes`

func scanRoundTripRows(rows pgx.Rows) ([]domain.RoundTrip, error) {
	var trips []domain.RoundTrip
	for rows.Next() {
		var (
			t         domain.RoundTrip
			optType   string
			direction string
		)
		if err := rows.Scan(
			&t.Seq, &t.TradeDate, &t.Contract.Underlying, &t.Contract.Expiration, &t.Contract.Strike, &optType,
			&direction, &t.Quantity, &t.EntryPrice, &t.ExitPrice, &t.EntryProceeds, &t.ExitProceeds,
			&t.GrossPnL, &t.NetPnL, &t.Commission, &t.PnLPercent, &t.SetupType, &t.Notes,
		); err != nil {
			return nil, err
		}
		t.Contract.Type = domain.OptionType(optType)
		t.Direction = domain.Direction(direction)
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func scanSummary(row pgx.Row) (domain.DailySummary, error) {
	var s domain.DailySummary
	err := row.Scan(
		&s.Date, &s.TotalTrades, &s.Winners, &s.Losers, &s.Scratches, &s.WinRate,
		&s.GrossPnL, &s.Commissions, &s.NetPnL, &s.LargestWin, &s.LargestLoss,
		&s.AvgWinner, &s.AvgLoser, &s.AvgTrade, &s.GrossWins, &s.GrossLosses, &s.ProfitFactor, &s.Notes,
	)
	return s, err
}

// ReplaceDay deletes the date's round trips, inserts trips and upserts the
// summary, all in one transaction. Existing summary notes are kept.
func (s *DayStore) ReplaceDay(ctx context.Context, date time.Time, trips []domain.RoundTrip, summary *domain.DailySummary) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM round_trips WHERE trade_date = $1`, date); err != nil {
			return fmt.Errorf("delete round trips: %w", err)
		}

		if len(trips) > 0 {
			batch := &pgx.Batch{}
			const insert = `
				INSERT INTO round_trips (
					trade_date, seq, underlying, expiration, strike, option_type,
					direction, quantity, entry_price, exit_price, entry_proceeds, exit_proceeds,
					gross_pnl, net_pnl, commission, pnl_percent
				) VALUES (
					$1, $2, $3, $4, $5, $6,
					$7, $8, $9, $10, $11, $12,
					$13, $14, $15, $16
				)`
			for _, t := range trips {
				batch.Queue(insert,
					date, t.Seq, t.Contract.Underlying, t.Contract.Expiration, t.Contract.Strike, string(t.Contract.Type),
					string(t.Direction), t.Quantity, t.EntryPrice, t.ExitPrice, t.EntryProceeds, t.ExitProceeds,
					t.GrossPnL, t.NetPnL, t.Commission, t.PnLPercent,
				)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert round trips: %w", err)
			}
		}

		if summary == nil {
			return nil
		}
		const upsert = `
			INSERT INTO daily_summaries (
				trade_date, total_trades, winners, losers, scratches, win_rate,
				gross_pnl, commissions, net_pnl, largest_win, largest_loss,
				avg_winner, avg_loser, avg_trade, gross_wins, gross_losses, profit_factor
			) VALUES (
				$1, $2, $3, $4, $5, $6,
				$7, $8, $9, $10, $11,
				$12, $13, $14, $15, $16, $17
			) ON CONFLICT (trade_date) DO UPDATE SET
				total_trades = EXCLUDED.total_trades,
				winners = EXCLUDED.winners,
				losers = EXCLUDED.losers,
				scratches = EXCLUDED.scratches,
				win_rate = EXCLUDED.win_rate,
				gross_pnl = EXCLUDED.gross_pnl,
				commissions = EXCLUDED.commissions,
				net_pnl = EXCLUDED.net_pnl,
				largest_win = EXCLUDED.largest_win,
				largest_loss = EXCLUDED.largest_loss,
				avg_winner = EXCLUDED.avg_winner,
				avg_loser = EXCLUDED.avg_loser,
				avg_trade = EXCLUDED.avg_trade,
				gross_wins = EXCLUDED.gross_wins,
				gross_losses = EXCLUDED.gross_losses,
				profit_factor = EXCLUDED.profit_factor,
				updated_at = NOW()`
		if _, err := tx.Exec(ctx, upsert,
			date, summary.TotalTrades, summary.Winners, summary.Losers, summary.Scratches, summary.WinRate,
			summary.GrossPnL, summary.Commissions, summary.NetPnL, summary.LargestWin, summary.LargestLoss,
			summary.AvgWinner, summary.AvgLoser, summary.AvgTrade, summary.GrossWins, summary.GrossLosses, summary.ProfitFactor,
		); err != nil {
			return fmt.Errorf("upsert summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: replace day %s: %w", date.Format(domain.DateLayout), err)
	}
	return nil
}

// RoundTrips returns a date's round trips ordered by seq.
func (s *DayStore) RoundTrips(ctx context.Context, date time.Time) ([]domain.RoundTrip, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+roundTripSelectCols+` FROM round_trips WHERE trade_date = $1 ORDER BY seq`, date)
	if err != nil {
		return nil, fmt.Errorf("postgres: list round trips: %w", err)
	}
	defer rows.Close()

	trips, err := scanRoundTripRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan round trips: %w", err)
	}
	return trips, nil
}

// RoundTripsInRange returns round trips in [start, end] ordered by date and seq.
func (s *DayStore) RoundTripsInRange(ctx context.Context, start, end time.Time) ([]domain.RoundTrip, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+roundTripSelectCols+` FROM round_trips
		 WHERE trade_date BETWEEN $1 AND $2 ORDER BY trade_date, seq`, start, end)
	if err != nil {
		return nil, fmt.Errorf("postgres: list round trips in range: %w", err)
	}
	defer rows.Close()

	trips, err := scanRoundTripRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan round trips in range: %w", err)
	}
	return trips, nil
}

// Summary returns the summary for date or domain.ErrNotFound.
func (s *DayStore) Summary(ctx context.Context, date time.Time) (domain.DailySummary, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+summarySelectCols+` FROM daily_summaries WHERE trade_date = $1`, date)
	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DailySummary{}, domain.ErrNotFound
		}
		return domain.DailySummary{}, fmt.Errorf("postgres: get summary: %w", err)
	}
	return summary, nil
}

// Summaries returns the summaries in [start, end] ordered by date.
func (s *DayStore) Summaries(ctx context.Context, start, end time.Time) ([]domain.DailySummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+summarySelectCols+` FROM daily_summaries
		 WHERE trade_date BETWEEN $1 AND $2 ORDER BY trade_date`, start, end)
	if err != nil {
		return nil, fmt.Errorf("postgres: list summaries: %w", err)
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan summary: %w", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list summaries rows: %w", err)
	}
	return out, nil
}

// SetDayNotes updates the notes of an existing summary.
func (s *DayStore) SetDayNotes(ctx context.Context, date time.Time, notes string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE daily_summaries SET notes = $2, updated_at = NOW() WHERE trade_date = $1`, date, notes)
	if err != nil {
		return fmt.Errorf("postgres: set day notes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.DayStore = (*DayStore)(nil)
