// Package store defines storage for captured quote snapshots, with SQLite
// and Parquet implementations.
package store

import (
	"context"
	"time"

	"goetrade/internal/domain"
)

// QuoteStore persists and retrieves quote snapshots.
type QuoteStore interface {
	// WriteQuotes persists a batch of snapshots. Re-writing a
	// (symbol, timestamp) pair replaces the earlier record.
	WriteQuotes(ctx context.Context, quotes []domain.QuoteSnapshot) error

	// ReadQuotes returns snapshots for the given symbol within [start, end],
	// ordered by timestamp.
	ReadQuotes(ctx context.Context, symbol string, start, end time.Time) ([]domain.QuoteSnapshot, error)

	// ListSymbols returns all distinct symbols present in the store.
	ListSymbols(ctx context.Context) ([]string, error)

	// Close releases the underlying resources.
	Close() error
}
