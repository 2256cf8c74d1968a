package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"tidemark/internal/domain"
)

// Compile-time interface check.
var _ BarCache = (*ParquetStore)(nil)

// ParquetStore implements BarCache using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// CandleRecord is the Parquet schema for cached candle data.
type CandleRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// WriteBars writes candles to Parquet files organized by symbol, timeframe,
// and year. Each combination produces a separate file at:
//
//	<DataDir>/candles/<SYMBOL>/<TF>/<YYYY>.parquet
//
// Existing records are merged and deduplicated by timestamp, preferring the
// incoming batch.
func (s *ParquetStore) WriteBars(_ context.Context, symbol, timeframe string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	groups := make(map[int][]CandleRecord)
	for _, b := range bars {
		year := b.Timestamp.Year()
		groups[year] = append(groups[year], CandleRecord{
			Symbol:    symbol,
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for year, records := range groups {
		path := s.candlePath(symbol, timeframe, year)

		// Read existing records to merge.
		existing, _ := readParquetFile[CandleRecord](path)
		merged := mergeCandleRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing candles for %s/%s/%d: %w", symbol, timeframe, year, err)
		}
	}
	return nil
}

// ReadBars reads cached candles for the given symbol, timeframe, and time
// range.
func (s *ParquetStore) ReadBars(_ context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	for year := start.Year(); year <= end.Year(); year++ {
		path := s.candlePath(symbol, timeframe, year)

		records, err := readParquetFile[CandleRecord](path)
		if err != nil {
			// No cache file for this year.
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				bars = append(bars, domain.Bar{
					Symbol:    r.Symbol,
					Timestamp: ts,
					Open:      r.Open,
					High:      r.High,
					Low:       r.Low,
					Close:     r.Close,
					Volume:    r.Volume,
				})
			}
		}
	}
	return bars, nil
}

// ListSymbols lists all symbols that have cached candle data.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "candles")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// candlePath returns the filesystem path for a candle Parquet file.
// Layout: <dataDir>/candles/<SYMBOL>/<TF>/<YYYY>.parquet
func (s *ParquetStore) candlePath(symbol, timeframe string, year int) string {
	return filepath.Join(s.DataDir, "candles", strings.ToUpper(symbol), timeframe,
		fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeCandleRecords deduplicates candle records by timestamp, preferring
// incoming records over existing ones. Results are sorted by timestamp.
func mergeCandleRecords(existing, incoming []CandleRecord) []CandleRecord {
	seen := make(map[int64]CandleRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]CandleRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
