package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/optjournal/internal/domain"
)

// ExecutionStore implements domain.ExecutionStore using PostgreSQL.
type ExecutionStore struct {
	pool *pgxpool.Pool
}

// NewExecutionStore creates a new ExecutionStore backed by the given connection pool.
func NewExecutionStore(pool *pgxpool.Pool) *ExecutionStore {
	return &ExecutionStore{pool: pool}
}

const executionSelectCols = `id, natural_key, trade_date, kind, label, symbol,
	underlying, expiration, strike, option_type,
	quantity, price, amount, commission, description`

func scanExecutionRows(rows pgx.Rows) ([]domain.Execution, error) {
	var execs []domain.Execution
	for rows.Next() {
		var (
			e       domain.Execution
			kind    string
			optType string
		)
		if err := rows.Scan(
			&e.ID, &e.NaturalKey, &e.TradeDate, &kind, &e.Label, &e.Symbol,
			&e.Contract.Underlying, &e.Contract.Expiration, &e.Contract.Strike, &optType,
			&e.Quantity, &e.Price, &e.Amount, &e.Commission, &e.Description,
		); err != nil {
			return nil, err
		}
		e.Kind = domain.TransactionKind(kind)
		e.Contract.Type = domain.OptionType(optType)
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

// InsertBatch inserts executions with one pgx Batch. Rows whose natural key
// already exists are skipped by ON CONFLICT DO NOTHING and not counted.
func (s *ExecutionStore) InsertBatch(ctx context.Context, execs []domain.Execution) (int, error) {
	if len(execs) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO executions (
			natural_key, trade_date, kind, label, symbol,
			underlying, expiration, strike, option_type,
			quantity, price, amount, commission, description
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		) ON CONFLICT (natural_key) DO NOTHING`

	for _, e := range execs {
		batch.Queue(query,
			e.NaturalKey, e.TradeDate, string(e.Kind), e.Label, e.Symbol,
			e.Contract.Underlying, e.Contract.Expiration, e.Contract.Strike, string(e.Contract.Type),
			e.Quantity, e.Price, e.Amount, e.Commission, e.Description,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for i := range execs {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("postgres: insert execution batch item %d: %w", i, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListByDate returns a trade date's executions in insertion order.
func (s *ExecutionStore) ListByDate(ctx context.Context, date time.Time) ([]domain.Execution, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+executionSelectCols+` FROM executions WHERE trade_date = $1 ORDER BY id`, date)
	if err != nil {
		return nil, fmt.Errorf("postgres: list executions: %w", err)
	}
	defer rows.Close()

	execs, err := scanExecutionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan executions: %w", err)
	}
	return execs, nil
}

// Dates returns the distinct trade dates with executions in [start, end].
func (s *ExecutionStore) Dates(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT trade_date FROM executions WHERE trade_date BETWEEN $1 AND $2 ORDER BY trade_date`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("postgres: list execution dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("postgres: scan execution date: %w", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list execution dates rows: %w", err)
	}
	return dates, nil
}

var _ domain.ExecutionStore = (*ExecutionStore)(nil)
