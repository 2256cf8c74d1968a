// Command tidemark-fetch prefetches candle history for the configured
// tickers into the Parquet cache, so later backtests run without network
// access.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tidemark/internal/config"
	"tidemark/internal/feed"
	"tidemark/internal/store"
	"tidemark/internal/util"
)

func main() {
	defaultCfg := "config/tidemark.yaml"
	if p := os.Getenv("TIDEMARK_CONFIG"); p != "" {
		defaultCfg = p
	}
	cfgPath := flag.String("config", defaultCfg, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	var src feed.Source
	switch cfg.Feed.Provider {
	case "", "delta":
		src = feed.NewDeltaClient(cfg.Feed.DeltaBaseURL, cfg.Feed.RateLimitPerMin)
	case "alpaca":
		a := cfg.Feed.Alpaca
		src = feed.NewAlpacaSource(a.APIKey, a.APISecret, a.DataURL)
	default:
		log.Fatalf("unknown feed provider %q", cfg.Feed.Provider)
	}

	cache := store.NewParquetStore(cfg.Storage.DataDir)
	start, _ := cfg.Backtest.StartTime()
	end, _ := cfg.Backtest.EndTime()

	ctx := context.Background()
	for _, ticker := range cfg.Backtest.Tickers {
		bars, err := src.FetchBars(ctx, ticker, cfg.Backtest.Timeframe, start, end)
		if err != nil {
			logger.Error("fetch failed", "symbol", ticker, "error", err)
			continue
		}
		if err := cache.WriteBars(ctx, ticker, cfg.Backtest.Timeframe, bars); err != nil {
			logger.Error("cache write failed", "symbol", ticker, "error", err)
			continue
		}
		fmt.Printf("%s: cached %d bars\n", ticker, len(bars))
	}
}
