// etrade-cli is an ad-hoc command line client for the E-Trade API. It
// expects access tokens in ETRADE_TOKEN / ETRADE_TOKEN_SECRET (obtain them
// with etrade-login) and consumer credentials in the config file or
// environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"goetrade/internal/config"
	"goetrade/internal/util"
	"goetrade/pkg/etrade"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: etrade-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version       Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  accounts      List brokerage accounts\n")
	fmt.Fprintf(os.Stderr, "  balance       Show the balance of one account\n")
	fmt.Fprintf(os.Stderr, "  transactions  List transactions of one account\n")
	fmt.Fprintf(os.Stderr, "  orders        List orders of one account\n")
	fmt.Fprintf(os.Stderr, "  quote         Get quotes for symbols\n")
	fmt.Fprintf(os.Stderr, "  lookup        Look up products by name\n")
	fmt.Fprintf(os.Stderr, "  chains        Get the option chain for a symbol\n")
	fmt.Fprintf(os.Stderr, "  expiry        Get option expiration dates for a symbol\n")
	fmt.Fprintf(os.Stderr, "  place         Place an equity order\n")
	fmt.Fprintf(os.Stderr, "  cancel        Cancel an order\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Printf("etrade-cli %s\n", version)
		return
	}

	_ = godotenv.Load()

	session := newSession()
	ctx := context.Background()

	switch os.Args[1] {
	case "accounts":
		fs := flag.NewFlagSet("accounts", flag.ExitOnError)
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewAccounts(session).List(ctx, respFormat(*xmlOut)))

	case "balance":
		fs := flag.NewFlagSet("balance", flag.ExitOnError)
		account := fs.String("account", "", "account ID key (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewAccounts(session).Balance(ctx, *account, respFormat(*xmlOut)))

	case "transactions":
		fs := flag.NewFlagSet("transactions", flag.ExitOnError)
		account := fs.String("account", "", "account ID key (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewAccounts(session).Transactions(ctx, *account, respFormat(*xmlOut)))

	case "orders":
		fs := flag.NewFlagSet("orders", flag.ExitOnError)
		account := fs.String("account", "", "account ID key (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewOrders(session).List(ctx, *account, respFormat(*xmlOut)))

	case "quote":
		fs := flag.NewFlagSet("quote", flag.ExitOnError)
		symbols := fs.String("symbols", "", "comma-separated symbols (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewMarket(session).Quote(ctx, splitSymbols(*symbols), respFormat(*xmlOut)))

	case "lookup":
		fs := flag.NewFlagSet("lookup", flag.ExitOnError)
		search := fs.String("search", "", "company name or partial symbol (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewMarket(session).LookUpProduct(ctx, *search, respFormat(*xmlOut)))

	case "chains":
		fs := flag.NewFlagSet("chains", flag.ExitOnError)
		symbol := fs.String("symbol", "", "underlying symbol (required)")
		year := fs.Int("year", 0, "expiry year")
		month := fs.Int("month", 0, "expiry month")
		day := fs.Int("day", 0, "expiry day")
		strikes := fs.Int("strikes", 0, "number of strikes")
		chainType := fs.String("type", "", "chain type: CALL, PUT, or CALLPUT")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewMarket(session).OptionChains(ctx, *symbol, etrade.OptionChainsRequest{
			ExpiryYear:   *year,
			ExpiryMonth:  *month,
			ExpiryDay:    *day,
			NoOfStrikes:  *strikes,
			SkipAdjusted: true,
			ChainType:    *chainType,
		}, respFormat(*xmlOut)))

	case "expiry":
		fs := flag.NewFlagSet("expiry", flag.ExitOnError)
		symbol := fs.String("symbol", "", "underlying symbol (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewMarket(session).OptionExpireDates(ctx, *symbol, respFormat(*xmlOut)))

	case "place":
		fs := flag.NewFlagSet("place", flag.ExitOnError)
		account := fs.String("account", "", "account ID key (required)")
		symbol := fs.String("symbol", "", "equity symbol (required)")
		quantity := fs.Int64("quantity", 0, "number of shares (required)")
		action := fs.String("action", "BUY", "BUY, SELL, BUY_TO_COVER, or SELL_SHORT")
		priceType := fs.String("price-type", "MARKET", "MARKET, LIMIT, STOP, or STOP_LIMIT")
		limit := fs.Float64("limit", 0, "limit price")
		stop := fs.Float64("stop", 0, "stop price")
		term := fs.String("term", "GOOD_FOR_DAY", "order term")
		preview := fs.Bool("preview", false, "preview instead of placing")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])

		order := etrade.EquityOrder{
			Symbol:     *symbol,
			Quantity:   *quantity,
			Action:     etrade.OrderAction(*action),
			PriceType:  etrade.PriceType(*priceType),
			LimitPrice: *limit,
			StopPrice:  *stop,
			OrderTerm:  etrade.OrderTerm(*term),
		}
		orders := etrade.NewOrders(session)
		if *preview {
			printResp(orders.PreviewEquity(ctx, *account, order, respFormat(*xmlOut)))
		} else {
			printResp(orders.PlaceEquity(ctx, *account, order, respFormat(*xmlOut)))
		}

	case "cancel":
		fs := flag.NewFlagSet("cancel", flag.ExitOnError)
		account := fs.String("account", "", "account ID key (required)")
		orderID := fs.Int64("order", 0, "order ID (required)")
		xmlOut := formatFlag(fs)
		fs.Parse(os.Args[2:])
		printResp(etrade.NewOrders(session).Cancel(ctx, *account, *orderID, respFormat(*xmlOut)))

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

// newSession builds a signed session from config plus environment tokens.
func newSession() *etrade.Session {
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
	return etrade.NewSession(etrade.Credentials{
		ConsumerKey:    cfg.ETrade.ConsumerKey,
		ConsumerSecret: cfg.ETrade.ConsumerSecret,
	}, token, opts...)
}

// formatFlag registers the shared -xml output flag on a flag set.
func formatFlag(fs *flag.FlagSet) *bool {
	return fs.Bool("xml", false, "output raw XML instead of JSON")
}

// respFormat resolves the -xml flag to a ResponseFormat.
func respFormat(xml bool) etrade.ResponseFormat {
	if xml {
		return etrade.FormatXML
	}
	return etrade.FormatJSON
}

// splitSymbols turns "AAPL,MSFT" into a symbol slice.
func splitSymbols(s string) []string {
	var symbols []string
	for _, sym := range strings.Split(s, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			symbols = append(symbols, sym)
		}
	}
	return symbols
}

// printResp writes the raw response body or exits on error.
func printResp(resp *etrade.Response, err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
	fmt.Println(resp.Raw)
}
