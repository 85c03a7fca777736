// etrade-record periodically captures real-time quotes for the configured
// symbols and persists them to SQLite and/or Parquet. It runs until
// interrupted.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"goetrade/internal/config"
	"goetrade/internal/record"
	"goetrade/internal/store"
	"goetrade/internal/util"
	"goetrade/pkg/etrade"
)

func main() {
	_ = godotenv.Load()

	cfgPath := "config/goetrade.yaml"
	if p := os.Getenv("GOETRADE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	token := etrade.AccessToken{
		Token:  os.Getenv("ETRADE_TOKEN"),
		Secret: os.Getenv("ETRADE_TOKEN_SECRET"),
	}
	if token.Token == "" || token.Secret == "" {
		log.Fatal("ETRADE_TOKEN and ETRADE_TOKEN_SECRET must be set, run etrade-login first")
	}

	opts := []etrade.SessionOption{etrade.WithLogger(logger)}
	if cfg.ETrade.Sandbox {
		opts = append(opts, etrade.WithSandbox())
	}
	session := etrade.NewSession(etrade.Credentials{
		ConsumerKey:    cfg.ETrade.ConsumerKey,
		ConsumerSecret: cfg.ETrade.ConsumerSecret,
	}, token, opts...)

	stores, err := openStores(cfg)
	if err != nil {
		log.Fatalf("failed to open stores: %v", err)
	}
	defer func() {
		for _, st := range stores {
			if err := st.Close(); err != nil {
				logger.Error("closing store", "err", err)
			}
		}
	}()

	interval := time.Duration(cfg.Record.IntervalSec) * time.Second
	rec, err := record.New(etrade.NewMarket(session), stores, cfg.Record.Symbols, interval, logger)
	if err != nil {
		log.Fatalf("failed to create recorder: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("recorder starting",
		"symbols", len(cfg.Record.Symbols),
		"interval", interval,
		"backend", cfg.Record.Backend)

	if err := rec.Run(ctx); err != nil {
		log.Fatalf("recorder error: %v", err)
	}
}

// openStores builds the store list selected by record.backend.
func openStores(cfg *config.Config) ([]store.QuoteStore, error) {
	var stores []store.QuoteStore

	switch cfg.Record.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	case "parquet":
		stores = append(stores, store.NewParquetStore(cfg.Storage.DataDir))
	case "both", "":
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s, store.NewParquetStore(cfg.Storage.DataDir))
	default:
		log.Fatalf("unknown record backend: %q", cfg.Record.Backend)
	}

	return stores, nil
}
