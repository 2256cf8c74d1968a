// Command tidemark-runs lists backtest runs persisted in the SQLite run
// store, newest first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tidemark/internal/config"
	"tidemark/internal/report"
	"tidemark/internal/store"
)

func main() {
	defaultCfg := "config/tidemark.yaml"
	if p := os.Getenv("TIDEMARK_CONFIG"); p != "" {
		defaultCfg = p
	}
	cfgPath := flag.String("config", defaultCfg, "path to the YAML config file")
	limit := flag.Int("limit", 20, "maximum runs to list")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	runStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening run store: %v", err)
	}
	defer runStore.Close()

	runs, err := runStore.ListRuns(context.Background(), *limit)
	if err != nil {
		log.Fatalf("listing runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}

	for _, r := range runs {
		fmt.Println(report.RunLine(r.CreatedAt, r.ID, r.Symbol, r.Strategy,
			r.Report.ReturnsPct, r.Report.SharpeRatio))
	}
}
