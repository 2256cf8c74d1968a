package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tidemark/internal/domain"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches historical bars from the Alpaca market-data API.
type AlpacaSource struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials. An
// empty dataURL selects the SDK default endpoint.
func NewAlpacaSource(apiKey, apiSecret, dataURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("component", "alpaca-feed"),
	}
}

// FetchBars retrieves bars for the symbol and maps them to domain bars.
func (s *AlpacaSource) FetchBars(_ context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	tf, err := alpacaTimeFrame(timeframe)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: tf,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars for %s: %w", symbol, err)
	}
	s.log.Debug("fetched alpaca bars", "symbol", symbol, "bars", len(raw))

	bars := make([]domain.Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: b.Timestamp.UTC(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		})
	}
	return bars, nil
}

// alpacaTimeFrame maps a timeframe string like "15m", "1h", or "1d" to the
// SDK's TimeFrame type.
func alpacaTimeFrame(tf string) (marketdata.TimeFrame, error) {
	if len(tf) < 2 {
		return marketdata.TimeFrame{}, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return marketdata.TimeFrame{}, fmt.Errorf("invalid timeframe %q", tf)
	}
	switch tf[len(tf)-1] {
	case 'm':
		return marketdata.NewTimeFrame(n, marketdata.Min), nil
	case 'h':
		return marketdata.NewTimeFrame(n, marketdata.Hour), nil
	case 'd':
		return marketdata.NewTimeFrame(n, marketdata.Day), nil
	}
	return marketdata.TimeFrame{}, fmt.Errorf("invalid timeframe %q", tf)
}
