// Package store provides persistence for candle data and completed
// backtest runs.
package store

import (
	"context"
	"time"

	"tidemark/internal/backtest"
	"tidemark/internal/domain"
)

// BarCache persists and retrieves candle data keyed by symbol and timeframe.
type BarCache interface {
	// WriteBars persists a batch of bars, merging with any already cached.
	WriteBars(ctx context.Context, symbol, timeframe string, bars []domain.Bar) error

	// ReadBars returns cached bars for the symbol and timeframe within
	// [start, end], ordered by timestamp.
	ReadBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols present in the cache.
	ListSymbols(ctx context.Context) ([]string, error)
}

// RunRecord is the persisted summary of one completed backtest run.
// Non-finite metric values (NaN sentinels, +Inf profit factor) round-trip
// through SQL NULL.
type RunRecord struct {
	ID             int64
	CreatedAt      time.Time
	Symbol         string
	Strategy       string
	Timeframe      string
	StartDate      string
	EndDate        string
	CommissionRate float64
	Report         backtest.Report
}

// RunStore persists completed backtest runs and their trade ledgers.
type RunStore interface {
	// SaveRun inserts the run summary and its trades, returning the new
	// run ID.
	SaveRun(ctx context.Context, run *RunRecord, trades []backtest.Trade) (int64, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// ListTrades returns the trade ledger of a run, ordered by entry time.
	ListTrades(ctx context.Context, runID int64) ([]backtest.Trade, error)
}
