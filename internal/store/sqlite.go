package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"goetrade/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ QuoteStore = (*SQLiteStore)(nil)

const quotesSchema = `
CREATE TABLE IF NOT EXISTS quotes (
	symbol   TEXT    NOT NULL,
	ts       INTEGER NOT NULL,
	bid      REAL    NOT NULL,
	bid_size INTEGER NOT NULL,
	ask      REAL    NOT NULL,
	ask_size INTEGER NOT NULL,
	last     REAL    NOT NULL,
	volume   INTEGER NOT NULL,
	PRIMARY KEY (symbol, ts)
);`

// SQLiteStore implements QuoteStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, ensures
// the quotes table exists, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(quotesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating quotes table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteQuotes inserts a batch of snapshots in one transaction, replacing
// existing rows with the same (symbol, ts).
func (s *SQLiteStore) WriteQuotes(ctx context.Context, quotes []domain.QuoteSnapshot) error {
	if len(quotes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO quotes (symbol, ts, bid, bid_size, ask, ask_size, last, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quotes {
		_, err := stmt.ExecContext(ctx,
			q.Symbol, q.Timestamp.UnixMilli(),
			q.Bid, q.BidSize, q.Ask, q.AskSize, q.Last, q.Volume)
		if err != nil {
			return fmt.Errorf("inserting quote for %s: %w", q.Symbol, err)
		}
	}
	return tx.Commit()
}

// ReadQuotes returns snapshots for the symbol within [start, end], ordered
// by timestamp.
func (s *SQLiteStore) ReadQuotes(ctx context.Context, symbol string, start, end time.Time) ([]domain.QuoteSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, ts, bid, bid_size, ask, ask_size, last, volume
		FROM quotes
		WHERE symbol = ? AND ts BETWEEN ? AND ?
		ORDER BY ts`,
		symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []domain.QuoteSnapshot
	for rows.Next() {
		var q domain.QuoteSnapshot
		var ts int64
		if err := rows.Scan(&q.Symbol, &ts, &q.Bid, &q.BidSize, &q.Ask, &q.AskSize, &q.Last, &q.Volume); err != nil {
			return nil, err
		}
		q.Timestamp = time.UnixMilli(ts).UTC()
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// ListSymbols returns all distinct symbols present in the store.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM quotes ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}
