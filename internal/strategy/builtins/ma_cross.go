// Package builtins provides the strategy implementations that ship with
// tidemark.
package builtins

import (
	"fmt"

	"tidemark/internal/domain"
	"tidemark/internal/strategy"
)

// Register adds all built-in strategy factories to the given registry.
func Register(r *strategy.Registry) {
	r.Register("ma-cross", NewMACross)
	r.Register("mean-reversion", NewMeanReversion)
}

// Compile-time interface check.
var _ strategy.Strategy = (*MACross)(nil)

// MACross is a simple moving average crossover strategy: BUY when the
// short-period SMA crosses above the long-period SMA, SELL when it crosses
// below. Both averages use an expanding warmup, so signals can fire before
// a full long window has elapsed.
type MACross struct {
	shortWindow int
	longWindow  int
}

// NewMACross builds an MACross from parameters short_window (default 10)
// and long_window (default 30).
func NewMACross(p strategy.Params) (strategy.Strategy, error) {
	short := int(p.Get("short_window", 10))
	long := int(p.Get("long_window", 30))
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("ma-cross: windows must be positive (short=%d long=%d)", short, long)
	}
	if short >= long {
		return nil, fmt.Errorf("ma-cross: short_window %d must be less than long_window %d", short, long)
	}
	return &MACross{shortWindow: short, longWindow: long}, nil
}

// Name returns "ma-cross".
func (s *MACross) Name() string { return "ma-cross" }

// GenerateSignals emits a signal per bar, flagging only the crossover
// transitions: the first bar and bars where the SMA ordering is unchanged
// are HOLD.
func (s *MACross) GenerateSignals(bars []domain.Bar) ([]domain.Signal, error) {
	prices := closePrices(bars)
	shortMA := rollingMean(prices, s.shortWindow)
	longMA := rollingMean(prices, s.longWindow)

	signals := make([]domain.Signal, 0, len(bars))
	for i := range bars {
		action := domain.ActionHold
		if i > 0 {
			switch {
			case shortMA[i-1] <= longMA[i-1] && shortMA[i] > longMA[i]:
				action = domain.ActionBuy
			case shortMA[i-1] >= longMA[i-1] && shortMA[i] < longMA[i]:
				action = domain.ActionSell
			}
		}
		signals = append(signals, domain.Signal{
			Timestamp: bars[i].Timestamp,
			Action:    action,
			Indicators: map[string]float64{
				"short_ma": shortMA[i],
				"long_ma":  longMA[i],
			},
		})
	}
	return signals, nil
}

func closePrices(bars []domain.Bar) []float64 {
	prices := make([]float64, len(bars))
	for i := range bars {
		prices[i] = bars[i].Close
	}
	return prices
}
