package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ExecutionStore implements domain.ExecutionStore on SQLite.
type ExecutionStore struct {
	db *sql.DB
}

// NewExecutionStore creates an ExecutionStore on d.
func NewExecutionStore(d *DB) *ExecutionStore {
	return &ExecutionStore{db: d.sql}
}

const executionSelectCols = `id, natural_key, trade_date, kind, label, symbol,
	underlying, expiration, strike, option_type,
	quantity, price, amount, commission, description`

func scanExecutionRows(rows *sql.Rows) ([]domain.Execution, error) {
	var execs []domain.Execution
	for rows.Next() {
		var (
			e                 domain.Execution
			tradeDate, expiry string
			kind, optType     string
		)
		if err := rows.Scan(
			&e.ID, &e.NaturalKey, &tradeDate, &kind, &e.Label, &e.Symbol,
			&e.Contract.Underlying, &expiry, &e.Contract.Strike, &optType,
			&e.Quantity, &e.Price, &e.Amount, &e.Commission, &e.Description,
		); err != nil {
			return nil, err
		}
		var err error
		if e.TradeDate, err = parseDate(tradeDate); err != nil {
			return nil, err
		}
		if e.Contract.Expiration, err = parseDate(expiry); err != nil {
			return nil, err
		}
		e.Kind = domain.TransactionKind(kind)
		e.Contract.Type = domain.OptionType(optType)
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

// InsertBatch inserts executions in one transaction with INSERT OR IGNORE and
// returns how many were new.
func (s *ExecutionStore) InsertBatch(ctx context.Context, execs []domain.Execution) (int, error) {
	if len(execs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin insert executions: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO executions (
			natural_key, trade_date, kind, label, symbol,
			underlying, expiration, strike, option_type,
			quantity, price, amount, commission, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prepare insert execution: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i, e := range execs {
		res, err := stmt.ExecContext(ctx,
			e.NaturalKey, dateArg(e.TradeDate), string(e.Kind), e.Label, e.Symbol,
			e.Contract.Underlying, dateArg(e.Contract.Expiration), e.Contract.Strike, string(e.Contract.Type),
			e.Quantity, e.Price, e.Amount, e.Commission, e.Description,
		)
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert execution %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert execution %d: %w", i, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit executions: %w", err)
	}
	return inserted, nil
}

// ListByDate returns a trade date's executions in insertion order.
func (s *ExecutionStore) ListByDate(ctx context.Context, date time.Time) ([]domain.Execution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+executionSelectCols+` FROM executions WHERE trade_date = ? ORDER BY id`, dateArg(date))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list executions: %w", err)
	}
	defer rows.Close()

	execs, err := scanExecutionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("sqlite: scan executions: %w", err)
	}
	return execs, nil
}

// Dates returns the distinct trade dates with executions in [start, end].
func (s *ExecutionStore) Dates(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT trade_date FROM executions WHERE trade_date BETWEEN ? AND ? ORDER BY trade_date`,
		dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list execution dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("sqlite: scan execution date: %w", err)
		}
		d, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

var _ domain.ExecutionStore = (*ExecutionStore)(nil)
