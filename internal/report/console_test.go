package report

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"tidemark/internal/backtest"
)

func TestWriteSummaryUndefinedMetrics(t *testing.T) {
	rep := &backtest.Report{
		InitialCapital:  1000,
		FinalTotalValue: 1000,
		AvgPnLPerTrade:  math.NaN(),
		SharpeRatio:     math.NaN(),
		SortinoRatio:    math.NaN(),
		ProfitFactor:    math.NaN(),
		UpCapture:       math.NaN(),
		DownCapture:     math.NaN(),
	}

	var sb strings.Builder
	WriteSummary(&sb, "BTCUSD", rep)
	out := sb.String()

	if !strings.Contains(out, "BTCUSD") {
		t.Error("summary should name the symbol")
	}
	if !strings.Contains(out, "Sharpe Ratio:      n/a") {
		t.Errorf("undefined sharpe should print n/a:\n%s", out)
	}
	if !strings.Contains(out, "n/a (no benchmark)") {
		t.Errorf("missing benchmark note:\n%s", out)
	}
	if strings.Contains(out, "NaN") {
		t.Errorf("raw NaN leaked into the summary:\n%s", out)
	}
}

func TestWriteSummaryInfiniteProfitFactor(t *testing.T) {
	rep := &backtest.Report{
		ProfitFactor: math.Inf(1),
		SharpeRatio:  1.25,
		HasBenchmark: true,
		UpCapture:    1.1,
		DownCapture:  0.8,
	}

	var sb strings.Builder
	WriteSummary(&sb, "ETHUSD", rep)
	out := sb.String()

	if !strings.Contains(out, "Profit Factor:     +inf") {
		t.Errorf("infinite profit factor should print +inf:\n%s", out)
	}
	if !strings.Contains(out, "Sharpe Ratio:      1.2500") {
		t.Errorf("finite sharpe lost:\n%s", out)
	}
	if !strings.Contains(out, "Up Capture:") || !strings.Contains(out, "Down Capture:") {
		t.Errorf("benchmark captures missing:\n%s", out)
	}
}

func TestWriteTradesEmpty(t *testing.T) {
	var sb strings.Builder
	WriteTrades(&sb, nil, 5)
	if !strings.Contains(sb.String(), "No trades were executed") {
		t.Errorf("empty ledger output = %q", sb.String())
	}
}

func TestWriteTradesOpenPosition(t *testing.T) {
	entry := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ledger := []backtest.Trade{
		{EntryTime: entry, EntryPrice: 100, Quantity: 10, EntryCost: 1000, Commission: 1},
	}

	var sb strings.Builder
	WriteTrades(&sb, ledger, 5)
	out := sb.String()

	if !strings.Contains(out, "open") {
		t.Errorf("open trade should print an open exit:\n%s", out)
	}
	if !strings.Contains(out, "2025-01-01 12:00") {
		t.Errorf("entry time missing:\n%s", out)
	}
}

func TestHeadTail(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5, 6, 7, 8}

	if got := headTail(xs, 2); !reflect.DeepEqual(got, []int{1, 2, 7, 8}) {
		t.Errorf("headTail(8 elems, 2) = %v", got)
	}
	if got := headTail(xs, 4); !reflect.DeepEqual(got, xs) {
		t.Errorf("headTail should return all of a short slice, got %v", got)
	}
	if got := headTail(xs, 10); !reflect.DeepEqual(got, xs) {
		t.Errorf("headTail with oversized n = %v", got)
	}
}

func TestRunLine(t *testing.T) {
	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	line := RunLine(created, 7, "BTCUSD", "ma-cross", 12.5, math.NaN())

	for _, want := range []string{"7", "2025-06-01 09:30", "BTCUSD", "ma-cross", "12.50%", "sharpe=n/a"} {
		if !strings.Contains(line, want) {
			t.Errorf("RunLine = %q, missing %q", line, want)
		}
	}
}
