package builtins

import (
	"fmt"
	"math"

	"tidemark/internal/domain"
	"tidemark/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MeanReversion)(nil)

// MeanReversion trades Bollinger-band re-entries: BUY when the close crosses
// back above the lower band after dipping below it, SELL when it crosses
// back below the upper band after piercing it. Bands are undefined (NaN)
// until two samples exist, and NaN comparisons never fire a signal.
type MeanReversion struct {
	window     int
	stdDevMult float64
}

// NewMeanReversion builds a MeanReversion from parameters window (default
// 20) and std_dev_multiplier (default 2).
func NewMeanReversion(p strategy.Params) (strategy.Strategy, error) {
	window := int(p.Get("window", 20))
	mult := p.Get("std_dev_multiplier", 2)
	if window < 2 {
		return nil, fmt.Errorf("mean-reversion: window %d must be at least 2", window)
	}
	if mult <= 0 || math.IsNaN(mult) {
		return nil, fmt.Errorf("mean-reversion: std_dev_multiplier %v must be positive", mult)
	}
	return &MeanReversion{window: window, stdDevMult: mult}, nil
}

// Name returns "mean-reversion".
func (s *MeanReversion) Name() string { return "mean-reversion" }

// GenerateSignals emits a signal per bar based on band crossings of the
// close price.
func (s *MeanReversion) GenerateSignals(bars []domain.Bar) ([]domain.Signal, error) {
	prices := closePrices(bars)
	middle := rollingMean(prices, s.window)
	std := rollingStd(prices, s.window)

	upper := make([]float64, len(bars))
	lower := make([]float64, len(bars))
	for i := range bars {
		upper[i] = middle[i] + std[i]*s.stdDevMult
		lower[i] = middle[i] - std[i]*s.stdDevMult
	}

	signals := make([]domain.Signal, 0, len(bars))
	for i := range bars {
		action := domain.ActionHold
		if i > 0 {
			switch {
			case prices[i] > lower[i] && prices[i-1] <= lower[i-1]:
				action = domain.ActionBuy
			case prices[i] < upper[i] && prices[i-1] >= upper[i-1]:
				action = domain.ActionSell
			}
		}
		signals = append(signals, domain.Signal{
			Timestamp: bars[i].Timestamp,
			Action:    action,
			Indicators: map[string]float64{
				"middle_band": middle[i],
				"std_dev":     std[i],
				"upper_band":  upper[i],
				"lower_band":  lower[i],
			},
		})
	}
	return signals, nil
}
