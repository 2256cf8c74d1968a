package backtest

import (
	"fmt"
	"math"
)

// Report is the fixed set of performance statistics derived from a finished
// run. Metrics with an undefined denominator (zero return variance, no
// losing trades, no closed trades) are NaN rather than zero, so a consumer
// can tell "not computed" from an actual measurement. ProfitFactor is +Inf
// when there are winning trades but no losing ones. UpCapture and
// DownCapture are meaningful only when HasBenchmark is true.
type Report struct {
	InitialCapital  float64
	FinalTotalValue float64
	TotalPnL        float64
	ReturnsPct      float64

	NumBuys       int
	NumSells      int
	ClosedTrades  int
	WinningTrades int
	LosingTrades  int

	WinRate        float64 // fraction in [0, 1]; 0 when no closed trades
	AvgPnLPerTrade float64
	MaxDrawdownPct float64 // non-positive
	SharpeRatio    float64
	SortinoRatio   float64
	ProfitFactor   float64
	Expectancy     float64

	HasBenchmark bool
	UpCapture    float64
	DownCapture  float64
}

// ComputeMetrics derives a Report from a frozen portfolio history and trade
// ledger. It never mutates its inputs. barsPerYear is the annualization
// factor for Sharpe and Sortino (1h bars => 24*365). Fails with ErrConfig
// on non-positive initialCapital or barsPerYear, and rejects an empty
// history, since no final value exists to report.
func ComputeMetrics(history []PortfolioState, ledger []Trade, initialCapital, barsPerYear float64) (*Report, error) {
	if initialCapital <= 0 || math.IsNaN(initialCapital) {
		return nil, fmt.Errorf("%w: initial capital %v must be > 0", ErrConfig, initialCapital)
	}
	if barsPerYear <= 0 || math.IsNaN(barsPerYear) {
		return nil, fmt.Errorf("%w: bars per year %v must be > 0", ErrConfig, barsPerYear)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: empty portfolio history", ErrConfig)
	}

	rep := &Report{InitialCapital: initialCapital}

	rep.FinalTotalValue = history[len(history)-1].TotalValue
	rep.TotalPnL = rep.FinalTotalValue - initialCapital
	rep.ReturnsPct = rep.TotalPnL / initialCapital * 100

	// Trade statistics over the closed subset. Every ledger entry starts
	// with an executed BUY; closed ones also carry the matching SELL.
	var sumPnL, sumWin, sumLossAbs float64
	for _, tr := range ledger {
		rep.NumBuys++
		if !tr.Closed {
			continue
		}
		rep.NumSells++
		rep.ClosedTrades++
		sumPnL += tr.PnL
		switch {
		case tr.PnL > 0:
			rep.WinningTrades++
			sumWin += tr.PnL
		case tr.PnL < 0:
			rep.LosingTrades++
			sumLossAbs += -tr.PnL
		}
	}

	rep.AvgPnLPerTrade = math.NaN()
	if rep.ClosedTrades > 0 {
		rep.WinRate = float64(rep.WinningTrades) / float64(rep.ClosedTrades)
		rep.AvgPnLPerTrade = sumPnL / float64(rep.ClosedTrades)
	}

	switch {
	case rep.ClosedTrades == 0:
		rep.ProfitFactor = math.NaN()
	case sumLossAbs == 0 && sumWin > 0:
		rep.ProfitFactor = math.Inf(1)
	case sumLossAbs == 0:
		rep.ProfitFactor = math.NaN()
	default:
		rep.ProfitFactor = sumWin / sumLossAbs
	}

	// Expectancy uses loss magnitude, so a losing system yields a negative
	// value. Empty win/loss subsets contribute zero.
	var avgWin, avgLoss float64
	if rep.WinningTrades > 0 {
		avgWin = sumWin / float64(rep.WinningTrades)
	}
	if rep.LosingTrades > 0 {
		avgLoss = sumLossAbs / float64(rep.LosingTrades)
	}
	rep.Expectancy = rep.WinRate*avgWin - (1-rep.WinRate)*avgLoss

	// Per-bar return series and drawdowns, single pass over the history.
	returns := make([]float64, 0, len(history)-1)
	peak := history[0].TotalValue
	maxDD := 0.0
	for i := 1; i < len(history); i++ {
		// Total value is always positive: cash never goes negative and a
		// held position has a positive close.
		returns = append(returns, history[i].TotalValue/history[i-1].TotalValue-1)
		if history[i].TotalValue > peak {
			peak = history[i].TotalValue
		}
		if peak > 0 {
			if dd := (history[i].TotalValue - peak) / peak * 100; dd < maxDD {
				maxDD = dd
			}
		}
	}
	rep.MaxDrawdownPct = maxDD

	annualize := math.Sqrt(barsPerYear)
	rep.SharpeRatio = math.NaN()
	if sd := stddev(returns); len(returns) >= 2 && sd > 0 {
		rep.SharpeRatio = mean(returns) / sd * annualize
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	rep.SortinoRatio = math.NaN()
	if sd := stddev(downside); len(downside) >= 2 && sd > 0 {
		rep.SortinoRatio = mean(returns) / sd * annualize
	}

	rep.UpCapture, rep.DownCapture = math.NaN(), math.NaN()
	if benchReturns, ok := benchmarkReturns(history); ok {
		rep.HasBenchmark = true
		rep.UpCapture = captureRatio(returns, benchReturns, func(b float64) bool { return b > 0 })
		rep.DownCapture = captureRatio(returns, benchReturns, func(b float64) bool { return b < 0 })
	}

	return rep, nil
}

// benchmarkReturns builds the per-bar benchmark return series. The series
// counts as supplied only when every state carries a positive benchmark
// close.
func benchmarkReturns(history []PortfolioState) ([]float64, bool) {
	for _, st := range history {
		if st.BenchmarkClose <= 0 {
			return nil, false
		}
	}
	if len(history) < 2 {
		return nil, false
	}
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		returns = append(returns, history[i].BenchmarkClose/history[i-1].BenchmarkClose-1)
	}
	return returns, true
}

// captureRatio is mean(strategy return) / mean(benchmark return) over the
// bars selected by pick. NaN when no bar matches or the benchmark mean is
// zero.
func captureRatio(strat, bench []float64, pick func(float64) bool) float64 {
	var stratSel, benchSel []float64
	for i, b := range bench {
		if pick(b) {
			stratSel = append(stratSel, strat[i])
			benchSel = append(benchSel, b)
		}
	}
	if len(benchSel) == 0 {
		return math.NaN()
	}
	bm := mean(benchSel)
	if bm == 0 {
		return math.NaN()
	}
	return mean(stratSel) / bm
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator). Zero when
// fewer than two observations exist.
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
