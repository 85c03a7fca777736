// Package record periodically captures quote snapshots from the market
// client into one or more quote stores.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"goetrade/internal/domain"
	"goetrade/internal/store"
)

// QuoteSource supplies current quote snapshots for a set of symbols.
// *etrade.Market satisfies it.
type QuoteSource interface {
	Snapshots(ctx context.Context, symbols []string) ([]domain.QuoteSnapshot, error)
}

// Recorder polls a QuoteSource at a fixed interval and writes the
// snapshots to every configured store. One capture runs at a time.
type Recorder struct {
	src      QuoteSource
	stores   []store.QuoteStore
	symbols  []string
	interval time.Duration
	log      *slog.Logger
}

// New creates a recorder. At least one symbol and one store are required;
// a non-positive interval defaults to one minute.
func New(src QuoteSource, stores []store.QuoteStore, symbols []string, interval time.Duration, log *slog.Logger) (*Recorder, error) {
	if src == nil {
		return nil, errors.New("record: quote source is required")
	}
	if len(stores) == 0 {
		return nil, errors.New("record: at least one store is required")
	}
	if len(symbols) == 0 {
		return nil, errors.New("record: at least one symbol is required")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		src:      src,
		stores:   stores,
		symbols:  symbols,
		interval: interval,
		log:      log,
	}, nil
}

// Capture performs a single poll-and-write cycle.
func (r *Recorder) Capture(ctx context.Context) error {
	quotes, err := r.src.Snapshots(ctx, r.symbols)
	if err != nil {
		return fmt.Errorf("fetching snapshots: %w", err)
	}
	if len(quotes) == 0 {
		r.log.Debug("no quotes returned", "symbols", len(r.symbols))
		return nil
	}

	for _, st := range r.stores {
		if err := st.WriteQuotes(ctx, quotes); err != nil {
			return fmt.Errorf("writing snapshots: %w", err)
		}
	}
	r.log.Info("captured quotes", "count", len(quotes))
	return nil
}

// Run captures immediately, then on every interval tick until the context
// is cancelled. A failed capture is logged and the loop continues; each
// cycle is independent.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.Capture(ctx); err != nil {
		r.log.Error("capture failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.log.Info("recorder stopped")
			return nil
		case <-ticker.C:
			if err := r.Capture(ctx); err != nil {
				r.log.Error("capture failed", "err", err)
			}
		}
	}
}
