package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"tidemark/internal/backtest"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       TEXT NOT NULL,
	symbol           TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	timeframe        TEXT NOT NULL,
	start_date       TEXT NOT NULL,
	end_date         TEXT NOT NULL,
	commission_rate  REAL NOT NULL,
	initial_capital  REAL NOT NULL,
	final_value      REAL NOT NULL,
	total_pnl        REAL NOT NULL,
	returns_pct      REAL NOT NULL,
	num_buys         INTEGER NOT NULL,
	num_sells        INTEGER NOT NULL,
	closed_trades    INTEGER NOT NULL,
	winning_trades   INTEGER NOT NULL,
	losing_trades    INTEGER NOT NULL,
	win_rate         REAL NOT NULL,
	avg_pnl          REAL,
	max_drawdown_pct REAL NOT NULL,
	sharpe_ratio     REAL,
	sortino_ratio    REAL,
	profit_factor    REAL,
	expectancy       REAL NOT NULL,
	has_benchmark    INTEGER NOT NULL,
	up_capture       REAL,
	down_capture     REAL
);

CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	entry_time  TEXT NOT NULL,
	exit_time   TEXT,
	entry_price REAL NOT NULL,
	exit_price  REAL,
	quantity    REAL NOT NULL,
	entry_cost  REAL NOT NULL,
	commission  REAL NOT NULL,
	pnl         REAL,
	closed      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies
// the schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run summary and its trade ledger in one transaction
// and returns the new run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord, trades []backtest.Trade) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rep := run.Report
	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (
			created_at, symbol, strategy, timeframe, start_date, end_date,
			commission_rate, initial_capital, final_value, total_pnl,
			returns_pct, num_buys, num_sells, closed_trades, winning_trades,
			losing_trades, win_rate, avg_pnl, max_drawdown_pct, sharpe_ratio,
			sortino_ratio, profit_factor, expectancy, has_benchmark,
			up_capture, down_capture
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.UTC().Format(time.RFC3339), run.Symbol, run.Strategy,
		run.Timeframe, run.StartDate, run.EndDate, run.CommissionRate,
		rep.InitialCapital, rep.FinalTotalValue, rep.TotalPnL, rep.ReturnsPct,
		rep.NumBuys, rep.NumSells, rep.ClosedTrades, rep.WinningTrades,
		rep.LosingTrades, rep.WinRate, nullIfNonFinite(rep.AvgPnLPerTrade),
		rep.MaxDrawdownPct, nullIfNonFinite(rep.SharpeRatio),
		nullIfNonFinite(rep.SortinoRatio), nullIfNonFinite(rep.ProfitFactor),
		rep.Expectancy, run.Report.HasBenchmark,
		nullIfNonFinite(rep.UpCapture), nullIfNonFinite(rep.DownCapture),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, tr := range trades {
		var exitTime, exitPrice, pnl any
		if tr.Closed {
			exitTime = tr.ExitTime.UTC().Format(time.RFC3339)
			exitPrice = tr.ExitPrice
			pnl = tr.PnL
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trades (
				run_id, entry_time, exit_time, entry_price, exit_price,
				quantity, entry_cost, commission, pnl, closed
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, tr.EntryTime.UTC().Format(time.RFC3339), exitTime,
			tr.EntryPrice, exitPrice, tr.Quantity, tr.EntryCost,
			tr.Commission, pnl, tr.Closed,
		); err != nil {
			return 0, fmt.Errorf("inserting trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, symbol, strategy, timeframe, start_date,
			end_date, commission_rate, initial_capital, final_value,
			total_pnl, returns_pct, num_buys, num_sells, closed_trades,
			winning_trades, losing_trades, win_rate, avg_pnl,
			max_drawdown_pct, sharpe_ratio, sortino_ratio, profit_factor,
			expectancy, has_benchmark, up_capture, down_capture
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var createdAt string
		var avgPnL, sharpe, sortino, pf, up, down sql.NullFloat64
		if err := rows.Scan(
			&r.ID, &createdAt, &r.Symbol, &r.Strategy, &r.Timeframe,
			&r.StartDate, &r.EndDate, &r.CommissionRate,
			&r.Report.InitialCapital, &r.Report.FinalTotalValue,
			&r.Report.TotalPnL, &r.Report.ReturnsPct, &r.Report.NumBuys,
			&r.Report.NumSells, &r.Report.ClosedTrades,
			&r.Report.WinningTrades, &r.Report.LosingTrades,
			&r.Report.WinRate, &avgPnL, &r.Report.MaxDrawdownPct,
			&sharpe, &sortino, &pf, &r.Report.Expectancy,
			&r.Report.HasBenchmark, &up, &down,
		); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.Report.AvgPnLPerTrade = floatOrNaN(avgPnL)
		r.Report.SharpeRatio = floatOrNaN(sharpe)
		r.Report.SortinoRatio = floatOrNaN(sortino)
		r.Report.ProfitFactor = floatOrNaN(pf)
		r.Report.UpCapture = floatOrNaN(up)
		r.Report.DownCapture = floatOrNaN(down)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListTrades returns the trade ledger of a run, ordered by entry time.
func (s *SQLiteStore) ListTrades(ctx context.Context, runID int64) ([]backtest.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_time, exit_time, entry_price, exit_price, quantity,
			entry_cost, commission, pnl, closed
		FROM trades WHERE run_id = ? ORDER BY entry_time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var tr backtest.Trade
		var entryTime string
		var exitTime sql.NullString
		var exitPrice, pnl sql.NullFloat64
		if err := rows.Scan(&entryTime, &exitTime, &tr.EntryPrice, &exitPrice,
			&tr.Quantity, &tr.EntryCost, &tr.Commission, &pnl, &tr.Closed,
		); err != nil {
			return nil, err
		}
		tr.EntryTime, _ = time.Parse(time.RFC3339, entryTime)
		if exitTime.Valid {
			tr.ExitTime, _ = time.Parse(time.RFC3339, exitTime.String)
		}
		tr.ExitPrice = exitPrice.Float64
		tr.PnL = pnl.Float64
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

// nullIfNonFinite maps NaN and ±Inf to SQL NULL so undefined metrics stay
// distinguishable from measured zeros.
func nullIfNonFinite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// floatOrNaN restores the NaN sentinel for NULL columns.
func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
