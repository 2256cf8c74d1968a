// Package feed retrieves ordered historical candle sequences from market
// data providers.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tidemark/internal/domain"
	"tidemark/internal/store"
)

// Source fetches ordered bars for a symbol, timeframe, and time range.
// Implementations return bars sorted by timestamp, strictly increasing,
// with no duplicates.
type Source interface {
	FetchBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error)
}

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// CachedSource is a read-through Parquet cache over a remote Source: cache
// hits skip the network entirely, misses fetch remotely and populate the
// cache. A cache write failure degrades to a warning, never a fetch error.
type CachedSource struct {
	source Source
	cache  store.BarCache
	log    *slog.Logger
}

// NewCachedSource wraps the given source with the given cache.
func NewCachedSource(source Source, cache store.BarCache) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache,
		log:    slog.Default().With("component", "feed-cache"),
	}
}

// FetchBars returns cached bars when any exist for the range, otherwise
// fetches from the underlying source and populates the cache.
func (c *CachedSource) FetchBars(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	cached, err := c.cache.ReadBars(ctx, symbol, timeframe, start, end)
	if err == nil && len(cached) > 0 {
		c.log.Debug("cache hit", "symbol", symbol, "timeframe", timeframe, "bars", len(cached))
		return cached, nil
	}

	bars, err := c.source.FetchBars(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", symbol, timeframe, err)
	}
	if err := c.cache.WriteBars(ctx, symbol, timeframe, bars); err != nil {
		c.log.Warn("caching bars failed", "symbol", symbol, "error", err)
	}
	return bars, nil
}
