// Package report renders portfolio histories, trade ledgers, and metric
// reports for the console.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"tidemark/internal/backtest"
)

const timeLayout = "2006-01-02 15:04"

// WriteSummary writes the metric report as a labelled block. Undefined
// metrics print as "n/a" and an infinite profit factor prints as "+inf",
// so a consumer can tell "not computed" from a measured zero.
func WriteSummary(w io.Writer, symbol string, rep *backtest.Report) {
	fmt.Fprintf(w, "\n--- Backtest Summary: %s ---\n", symbol)
	fmt.Fprintf(w, "Initial Capital:   $%.2f\n", rep.InitialCapital)
	fmt.Fprintf(w, "Final Capital:     $%.2f\n", rep.FinalTotalValue)
	fmt.Fprintf(w, "Total PnL:         $%.2f\n", rep.TotalPnL)
	fmt.Fprintf(w, "Total Returns:     %.2f%%\n", rep.ReturnsPct)
	fmt.Fprintf(w, "Buys / Sells:      %d / %d\n", rep.NumBuys, rep.NumSells)
	fmt.Fprintf(w, "Closed Trades:     %d (%d won, %d lost)\n",
		rep.ClosedTrades, rep.WinningTrades, rep.LosingTrades)
	fmt.Fprintf(w, "Win Rate:          %.2f%%\n", rep.WinRate*100)
	fmt.Fprintf(w, "Avg PnL per Trade: %s\n", formatMoney(rep.AvgPnLPerTrade))
	fmt.Fprintf(w, "Max Drawdown:      %.2f%%\n", rep.MaxDrawdownPct)
	fmt.Fprintf(w, "Sharpe Ratio:      %s\n", formatMetric(rep.SharpeRatio))
	fmt.Fprintf(w, "Sortino Ratio:     %s\n", formatMetric(rep.SortinoRatio))
	fmt.Fprintf(w, "Profit Factor:     %s\n", formatMetric(rep.ProfitFactor))
	fmt.Fprintf(w, "Expectancy:        $%.2f\n", rep.Expectancy)
	if rep.HasBenchmark {
		fmt.Fprintf(w, "Up Capture:        %s\n", formatMetric(rep.UpCapture))
		fmt.Fprintf(w, "Down Capture:      %s\n", formatMetric(rep.DownCapture))
	} else {
		fmt.Fprintf(w, "Up/Down Capture:   n/a (no benchmark)\n")
	}
}

// WriteTrades writes the first and last n ledger entries as a table.
func WriteTrades(w io.Writer, ledger []backtest.Trade, n int) {
	if len(ledger) == 0 {
		fmt.Fprintln(w, "\nNo trades were executed.")
		return
	}

	fmt.Fprintf(w, "\n--- Trades (%d total) ---\n", len(ledger))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tEXIT\tENTRY PX\tEXIT PX\tQTY\tCOMMISSION\tPNL")
	for _, tr := range headTail(ledger, n) {
		exitTime, exitPx, pnl := "open", "-", "-"
		if tr.Closed {
			exitTime = tr.ExitTime.Format(timeLayout)
			exitPx = fmt.Sprintf("%.2f", tr.ExitPrice)
			pnl = fmt.Sprintf("%.2f", tr.PnL)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%.0f\t%.2f\t%s\n",
			tr.EntryTime.Format(timeLayout), exitTime, tr.EntryPrice, exitPx,
			tr.Quantity, tr.Commission, pnl)
	}
	tw.Flush()
}

// WriteHistory writes the first and last n portfolio states as a table.
func WriteHistory(w io.Writer, history []backtest.PortfolioState, n int) {
	if len(history) == 0 {
		return
	}

	fmt.Fprintf(w, "\n--- Portfolio History (%d bars) ---\n", len(history))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tCASH\tUNITS\tHOLDINGS\tTOTAL\tCLOSE")
	for _, st := range headTail(history, n) {
		fmt.Fprintf(tw, "%s\t%.2f\t%.0f\t%.2f\t%.2f\t%.2f\n",
			st.Timestamp.Format(timeLayout), st.Cash, st.UnitsHeld,
			st.HoldingsValue, st.TotalValue, st.Close)
	}
	tw.Flush()
}

// headTail returns the first and last n elements of xs, or all of xs when
// it has at most 2n elements.
func headTail[T any](xs []T, n int) []T {
	if len(xs) <= 2*n {
		return xs
	}
	out := make([]T, 0, 2*n)
	out = append(out, xs[:n]...)
	out = append(out, xs[len(xs)-n:]...)
	return out
}

func formatMetric(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", v)
}

// RunLine formats one persisted run for the runs listing.
func RunLine(created time.Time, id int64, symbol, strat string, returnsPct, sharpe float64) string {
	return fmt.Sprintf("%-5d %s  %-10s %-16s ret=%7.2f%%  sharpe=%s",
		id, created.Format("2006-01-02 15:04"), symbol, strat, returnsPct, formatMetric(sharpe))
}
