// Command tidemark runs a full backtest from configuration: fetch candles
// (through the Parquet cache), generate signals with the configured
// strategy, simulate the portfolio, compute performance metrics, render the
// report, and persist the run to SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"tidemark/internal/backtest"
	"tidemark/internal/config"
	"tidemark/internal/domain"
	"tidemark/internal/feed"
	"tidemark/internal/report"
	"tidemark/internal/store"
	"tidemark/internal/strategy"
	"tidemark/internal/strategy/builtins"
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

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("backtest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	registry := strategy.NewRegistry()
	builtins.Register(registry)

	runStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer runStore.Close()

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	cache := store.NewParquetStore(cfg.Storage.DataDir)
	source := feed.NewCachedSource(src, cache)

	start, _ := cfg.Backtest.StartTime()
	end, _ := cfg.Backtest.EndTime()
	barsPerYear, _ := domain.BarsPerYear(cfg.Backtest.Timeframe)
	params := cfg.Strategy.Params(cfg.Strategy.Name)

	for _, ticker := range cfg.Backtest.Tickers {
		if err := runTicker(ctx, cfg, logger, registry, source, runStore,
			ticker, start, end, barsPerYear, params); err != nil {
			logger.Error("ticker skipped", "symbol", ticker, "error", err)
		}
	}
	return nil
}

func runTicker(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	registry *strategy.Registry,
	source feed.Source,
	runStore store.RunStore,
	ticker string,
	start, end time.Time,
	barsPerYear float64,
	params strategy.Params,
) error {
	logger.Info("running backtest", "symbol", ticker,
		"strategy", cfg.Strategy.Name, "timeframe", cfg.Backtest.Timeframe)

	bars, err := source.FetchBars(ctx, ticker, cfg.Backtest.Timeframe, start, end)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		logger.Warn("no historical data", "symbol", ticker)
		return nil
	}

	// Buy-and-hold of the asset itself serves as the benchmark series.
	if cfg.Backtest.Benchmark {
		for i := range bars {
			bars[i].BenchmarkClose = bars[i].Close
		}
	}

	strat, err := registry.Create(cfg.Strategy.Name, params)
	if err != nil {
		return err
	}
	signals, err := strat.GenerateSignals(bars)
	if err != nil {
		return fmt.Errorf("generating signals: %w", err)
	}

	sim, err := backtest.NewSimulator(cfg.Backtest.InitialCapital, cfg.Backtest.CommissionRate)
	if err != nil {
		return err
	}
	res, err := sim.Run(bars, signals)
	if err != nil {
		return err
	}

	rep, err := backtest.ComputeMetrics(res.History, res.Ledger,
		cfg.Backtest.InitialCapital, barsPerYear)
	if err != nil {
		return err
	}

	report.WriteSummary(os.Stdout, ticker, rep)
	report.WriteTrades(os.Stdout, res.Ledger, 5)
	report.WriteHistory(os.Stdout, res.History, 5)

	id, err := runStore.SaveRun(ctx, &store.RunRecord{
		CreatedAt:      time.Now(),
		Symbol:         ticker,
		Strategy:       cfg.Strategy.Name,
		Timeframe:      cfg.Backtest.Timeframe,
		StartDate:      cfg.Backtest.StartDate,
		EndDate:        cfg.Backtest.EndDate,
		CommissionRate: cfg.Backtest.CommissionRate,
		Report:         *rep,
	}, res.Ledger)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	logger.Info("run saved", "symbol", ticker, "run_id", id,
		"final_value", rep.FinalTotalValue, "trades", rep.ClosedTrades)
	return nil
}

// newSource builds the configured market data provider.
func newSource(cfg *config.Config) (feed.Source, error) {
	switch cfg.Feed.Provider {
	case "", "delta":
		return feed.NewDeltaClient(cfg.Feed.DeltaBaseURL, cfg.Feed.RateLimitPerMin), nil
	case "alpaca":
		a := cfg.Feed.Alpaca
		return feed.NewAlpacaSource(a.APIKey, a.APISecret, a.DataURL), nil
	}
	return nil, fmt.Errorf("unknown feed provider %q", cfg.Feed.Provider)
}
