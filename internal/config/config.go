// Package config loads and validates the tidemark YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tidemark/internal/backtest"
	"tidemark/internal/domain"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a tidemark run.
type Config struct {
	Storage  Storage        `yaml:"storage"`
	Logging  Logging        `yaml:"logging"`
	Feed     FeedConfig     `yaml:"feed"`
	Backtest BacktestConfig `yaml:"backtest"`
	Strategy StrategyConfig `yaml:"strategy"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FeedConfig selects and configures the market data provider.
type FeedConfig struct {
	Provider        string `yaml:"provider"` // "delta" or "alpaca"
	DeltaBaseURL    string `yaml:"delta_base_url"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
	Alpaca          Alpaca `yaml:"alpaca"`
}

// Alpaca holds credentials and endpoint for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// BacktestConfig defines the dataset and the simulator parameters.
type BacktestConfig struct {
	Tickers        []string `yaml:"tickers"`
	Timeframe      string   `yaml:"timeframe"`
	StartDate      string   `yaml:"start_date"` // YYYY-MM-DD
	EndDate        string   `yaml:"end_date"`   // YYYY-MM-DD
	InitialCapital float64  `yaml:"initial_capital"`
	CommissionRate float64  `yaml:"commission_rate"`
	Benchmark      bool     `yaml:"benchmark"` // buy-and-hold of the asset itself
}

// StrategyConfig names the strategy to run and its per-strategy parameters.
type StrategyConfig struct {
	Name       string                        `yaml:"name"`
	Parameters map[string]map[string]float64 `yaml:"parameters"`
}

// Params returns the parameter set configured for the named strategy, or an
// empty set when none is configured.
func (s StrategyConfig) Params(name string) map[string]float64 {
	if p, ok := s.Parameters[name]; ok {
		return p
	}
	return map[string]float64{}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DELTA_BASE_URL"); v != "" {
		cfg.Feed.DeltaBaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Feed.Alpaca.DataURL = v
	}

	// Standard Alpaca env vars (canonical names used by the SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Feed.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Feed.Alpaca.APISecret = v
	}
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

const dateLayout = "2006-01-02"

// Validate checks the configuration before any simulation step executes.
// Simulator parameter problems are reported as backtest.ErrConfig so callers
// see the same error class the simulator constructor produces.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital %v must be > 0", backtest.ErrConfig, c.Backtest.InitialCapital)
	}
	if c.Backtest.CommissionRate < 0 || c.Backtest.CommissionRate >= 1 {
		return fmt.Errorf("%w: commission_rate %v must be in [0, 1)", backtest.ErrConfig, c.Backtest.CommissionRate)
	}
	if _, err := domain.BarsPerYear(c.Backtest.Timeframe); err != nil {
		return fmt.Errorf("%w: %v", backtest.ErrConfig, err)
	}
	if len(c.Backtest.Tickers) == 0 {
		return fmt.Errorf("no tickers configured")
	}

	start, err := c.Backtest.StartTime()
	if err != nil {
		return err
	}
	end, err := c.Backtest.EndTime()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("start_date %s must be before end_date %s", c.Backtest.StartDate, c.Backtest.EndDate)
	}

	switch c.Feed.Provider {
	case "", "delta", "alpaca":
	default:
		return fmt.Errorf("unknown feed provider %q", c.Feed.Provider)
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("no strategy configured")
	}
	return nil
}

// StartTime parses the configured start date.
func (b BacktestConfig) StartTime() (time.Time, error) {
	t, err := time.Parse(dateLayout, b.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start_date %q: %w", b.StartDate, err)
	}
	return t, nil
}

// EndTime parses the configured end date.
func (b BacktestConfig) EndTime() (time.Time, error) {
	t, err := time.Parse(dateLayout, b.EndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing end_date %q: %w", b.EndDate, err)
	}
	return t, nil
}
