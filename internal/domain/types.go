// Package domain defines the market data and signal types shared by the
// feed, strategy, and backtest packages.
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Action is the trading instruction carried by a Signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Bar is a single OHLCV candle. BenchmarkClose is the benchmark asset's
// close at the same timestamp; zero means no benchmark series was supplied.
type Bar struct {
	Symbol         string
	Timestamp      time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         float64
	BenchmarkClose float64
}

// Signal is a trading instruction aligned 1:1 with a Bar. Indicators holds
// strategy-specific values (moving averages, bands, predictions) that ride
// along for reporting; the simulator and metrics engine never read them.
type Signal struct {
	Timestamp  time.Time
	Action     Action
	Indicators map[string]float64
}

// TimeframeSeconds parses a timeframe string like "1m", "15m", "1h", "4h",
// or "1d" into its duration in seconds.
func TimeframeSeconds(tf string) (int, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	switch tf[len(tf)-1] {
	case 'm':
		return n * 60, nil
	case 'h':
		return n * 3600, nil
	case 'd':
		return n * 86400, nil
	}
	return 0, fmt.Errorf("invalid timeframe %q", tf)
}

// BarsPerYear returns the annualization factor for the given timeframe,
// assuming a 24/7 market (crypto convention: 1h bars => 24*365).
func BarsPerYear(tf string) (float64, error) {
	secs, err := TimeframeSeconds(tf)
	if err != nil {
		return 0, err
	}
	return float64(365*86400) / float64(secs), nil
}
