// Package backtest replays historical bars against a precomputed signal
// sequence to simulate portfolio evolution, and derives standardized
// performance statistics from the finished run.
package backtest

import (
	"errors"
	"time"
)

// Sentinel errors. Callers distinguish fatal configuration problems from
// structural input problems with errors.Is.
var (
	// ErrConfig marks invalid constructor or metrics parameters.
	ErrConfig = errors.New("invalid backtest configuration")

	// ErrAlignment marks bar/signal sequences that differ in length or
	// timestamps, or are not strictly increasing.
	ErrAlignment = errors.New("misaligned bar/signal sequences")
)

// PortfolioState is a snapshot of the portfolio after processing one bar.
// TotalValue == Cash + HoldingsValue and HoldingsValue == UnitsHeld * Close
// at every recorded point. BenchmarkClose is carried through from the bar
// unmodified; zero means no benchmark series was supplied.
type PortfolioState struct {
	Timestamp      time.Time
	Cash           float64
	UnitsHeld      float64
	HoldingsValue  float64
	TotalValue     float64
	Close          float64
	BenchmarkClose float64
}

// Trade records one long round trip. A trade is open between the BUY
// execution and the matching SELL; exit fields and PnL are meaningful only
// once Closed is true. EntryCost is the cash debited at entry, entry
// commission included, and Commission accumulates both legs.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	EntryCost  float64
	Commission float64
	PnL        float64
	Closed     bool
}

// Result is the frozen output of one simulation run: one PortfolioState per
// input bar, the trade ledger ordered by entry time, and the executed
// transition counts (signals that were policy no-ops are not counted).
type Result struct {
	History  []PortfolioState
	Ledger   []Trade
	NumBuys  int
	NumSells int
}
