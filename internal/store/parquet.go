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

	"goetrade/internal/domain"
)

// Compile-time interface check.
var _ QuoteStore = (*ParquetStore)(nil)

// ParquetStore implements QuoteStore using Parquet files on disk, one file
// per symbol and day.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// Close implements QuoteStore; the store holds no open resources.
func (s *ParquetStore) Close() error { return nil }

// QuoteRecord is the Parquet schema for quote snapshots.
type QuoteRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Bid       float64 `parquet:"bid"`
	BidSize   int64   `parquet:"bid_size"`
	Ask       float64 `parquet:"ask"`
	AskSize   int64   `parquet:"ask_size"`
	Last      float64 `parquet:"last"`
	Volume    int64   `parquet:"volume"`
}

// WriteQuotes writes snapshots to Parquet files organized by symbol and
// day. Each symbol+day combination produces a separate file at:
//
//	<DataDir>/quotes/<SYMBOL>/<YYYY-MM-DD>.parquet
//
// Existing records in a file are merged and deduplicated by
// (symbol, timestamp), preferring new records.
func (s *ParquetStore) WriteQuotes(_ context.Context, quotes []domain.QuoteSnapshot) error {
	if len(quotes) == 0 {
		return nil
	}

	type key struct {
		symbol string
		date   string // YYYY-MM-DD
	}
	groups := make(map[key][]QuoteRecord)
	for _, q := range quotes {
		k := key{symbol: q.Symbol, date: q.Timestamp.UTC().Format("2006-01-02")}
		groups[k] = append(groups[k], QuoteRecord{
			Symbol:    q.Symbol,
			Timestamp: q.Timestamp.UnixMilli(),
			Bid:       q.Bid,
			BidSize:   q.BidSize,
			Ask:       q.Ask,
			AskSize:   q.AskSize,
			Last:      q.Last,
			Volume:    q.Volume,
		})
	}

	for k, records := range groups {
		t, _ := time.Parse("2006-01-02", k.date)
		path := s.quotePath(k.symbol, t)

		existing, _ := readParquetFile[QuoteRecord](path)
		merged := mergeQuoteRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing quotes for %s/%s: %w", k.symbol, k.date, err)
		}
	}
	return nil
}

// ReadQuotes reads snapshots from Parquet files for the given symbol and
// time range.
func (s *ParquetStore) ReadQuotes(_ context.Context, symbol string, start, end time.Time) ([]domain.QuoteSnapshot, error) {
	var quotes []domain.QuoteSnapshot
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
		path := s.quotePath(symbol, d)
		records, err := readParquetFile[QuoteRecord](path)
		if err != nil {
			// File doesn't exist for this day — skip.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				quotes = append(quotes, domain.QuoteSnapshot{
					Symbol:    r.Symbol,
					Timestamp: ts,
					Bid:       r.Bid,
					BidSize:   r.BidSize,
					Ask:       r.Ask,
					AskSize:   r.AskSize,
					Last:      r.Last,
					Volume:    r.Volume,
				})
			}
		}
	}
	return quotes, nil
}

// ListSymbols lists all symbols that have quote data.
func (s *ParquetStore) ListSymbols(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "quotes")
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

// quotePath returns the filesystem path for a quote Parquet file.
// Layout: <dataDir>/quotes/<SYMBOL>/<YYYY-MM-DD>.parquet
func (s *ParquetStore) quotePath(symbol string, t time.Time) string {
	date := t.Format("2006-01-02")
	return filepath.Join(s.DataDir, "quotes", strings.ToUpper(symbol), date+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

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

// mergeQuoteRecords deduplicates records by (symbol, timestamp), preferring
// new records over existing ones. Results are sorted by timestamp.
func mergeQuoteRecords(existing, incoming []QuoteRecord) []QuoteRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]QuoteRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]QuoteRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
