package backtest

import (
	"fmt"
	"log/slog"
	"math"

	"tidemark/internal/domain"
)

// Simulator replays bars and their aligned signals through a binary
// FLAT/LONG position model: all-in integer-unit buys, full-position sells,
// commission charged on both legs. It processes bars strictly in timestamp
// order and never looks past the current index.
type Simulator struct {
	initialCapital float64
	commissionRate float64
	log            *slog.Logger
}

// NewSimulator creates a Simulator. It fails with ErrConfig when
// initialCapital is not positive or commissionRate is outside [0, 1).
func NewSimulator(initialCapital, commissionRate float64) (*Simulator, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) || math.IsInf(initialCapital, 0) {
		return nil, fmt.Errorf("%w: initial capital %v must be > 0", ErrConfig, initialCapital)
	}
	if commissionRate < 0 || commissionRate >= 1 || math.IsNaN(commissionRate) {
		return nil, fmt.Errorf("%w: commission rate %v must be in [0, 1)", ErrConfig, commissionRate)
	}
	return &Simulator{
		initialCapital: initialCapital,
		commissionRate: commissionRate,
		log:            slog.Default().With("component", "simulator"),
	}, nil
}

// Run simulates the full bar sequence and returns the frozen history and
// ledger. Alignment is validated before any state is touched; a violation
// returns ErrAlignment with zero mutation. Insufficient cash on a BUY, a
// SELL with no holdings, and redundant signals are policy no-ops, not
// errors. An open position at the last bar stays open: it is marked to
// market in the final PortfolioState but never force-liquidated.
func (s *Simulator) Run(bars []domain.Bar, signals []domain.Signal) (*Result, error) {
	if err := checkAlignment(bars, signals); err != nil {
		return nil, err
	}

	res := &Result{
		History: make([]PortfolioState, 0, len(bars)),
		Ledger:  []Trade{},
	}

	cash := s.initialCapital
	units := 0.0
	open := -1 // index of the open trade in the ledger, -1 when FLAT

	for i := range bars {
		price := bars[i].Close

		switch signals[i].Action {
		case domain.ActionBuy:
			if open >= 0 {
				break // already LONG, redundant buy
			}
			qty := math.Floor(cash / (price * (1 + s.commissionRate)))
			if qty < 1 {
				s.log.Debug("buy skipped, insufficient cash",
					"timestamp", bars[i].Timestamp, "cash", cash, "close", price)
				break
			}
			cost := qty * price * (1 + s.commissionRate)
			cash -= cost
			units = qty
			res.Ledger = append(res.Ledger, Trade{
				EntryTime:  bars[i].Timestamp,
				EntryPrice: price,
				Quantity:   qty,
				EntryCost:  cost,
				Commission: qty * price * s.commissionRate,
			})
			open = len(res.Ledger) - 1
			res.NumBuys++

		case domain.ActionSell:
			if open < 0 {
				break // nothing held, redundant sell
			}
			proceeds := units * price * (1 - s.commissionRate)
			cash += proceeds
			tr := &res.Ledger[open]
			tr.ExitTime = bars[i].Timestamp
			tr.ExitPrice = price
			tr.Commission += units * price * s.commissionRate
			tr.PnL = proceeds - tr.EntryCost
			tr.Closed = true
			units = 0
			open = -1
			res.NumSells++
		}

		res.History = append(res.History, PortfolioState{
			Timestamp:      bars[i].Timestamp,
			Cash:           cash,
			UnitsHeld:      units,
			HoldingsValue:  units * price,
			TotalValue:     cash + units*price,
			Close:          price,
			BenchmarkClose: bars[i].BenchmarkClose,
		})
	}

	return res, nil
}

// checkAlignment verifies the structural input contract: non-empty sequences
// of equal length, pairwise-equal strictly increasing timestamps, and
// positive close prices.
func checkAlignment(bars []domain.Bar, signals []domain.Signal) error {
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty bar sequence", ErrAlignment)
	}
	if len(bars) != len(signals) {
		return fmt.Errorf("%w: %d bars, %d signals", ErrAlignment, len(bars), len(signals))
	}
	for i := range bars {
		if !bars[i].Timestamp.Equal(signals[i].Timestamp) {
			return fmt.Errorf("%w: bar[%d] at %s has signal at %s",
				ErrAlignment, i, bars[i].Timestamp, signals[i].Timestamp)
		}
		if i > 0 && !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("%w: timestamps not strictly increasing at index %d", ErrAlignment, i)
		}
		if bars[i].Close <= 0 || math.IsNaN(bars[i].Close) {
			return fmt.Errorf("%w: bar[%d] close %v must be > 0", ErrAlignment, i, bars[i].Close)
		}
	}
	return nil
}
