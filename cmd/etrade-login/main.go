// etrade-login runs the OAuth1 authorization sequence and prints the
// resulting access tokens as shell export lines. By default the verifier
// code is obtained by driving an automated browser through the E-Trade
// login and consent pages; -manual prints the authorize URL and reads the
// verifier from stdin instead.
//
// Usage:
//
//	etrade-login [-manual] [-renew] [-revoke]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"goetrade/internal/config"
	"goetrade/internal/util"
	"goetrade/pkg/etrade"
)

func main() {
	manual := flag.Bool("manual", false, "print the authorize URL and read the verifier from stdin")
	renew := flag.Bool("renew", false, "renew the access tokens from ETRADE_TOKEN / ETRADE_TOKEN_SECRET")
	revoke := flag.Bool("revoke", false, "revoke the access tokens from ETRADE_TOKEN / ETRADE_TOKEN_SECRET")
	timeout := flag.Duration("timeout", 2*time.Minute, "browser automation timeout")
	flag.Parse()

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

	creds := etrade.Credentials{
		ConsumerKey:    cfg.ETrade.ConsumerKey,
		ConsumerSecret: cfg.ETrade.ConsumerSecret,
	}
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		log.Fatal("consumer key and secret are required (config or ETRADE_CONSUMER_KEY / ETRADE_CONSUMER_SECRET)")
	}

	ctx := context.Background()

	if *renew || *revoke {
		manageTokens(ctx, cfg, creds, *renew)
		return
	}

	oauth := etrade.NewOAuth(creds)

	var token etrade.AccessToken
	if *manual {
		token, err = manualFlow(oauth)
	} else {
		login := etrade.BrowserLogin{
			Username: cfg.ETrade.WebUsername,
			Password: cfg.ETrade.WebPassword,
			Headless: cfg.ETrade.Headless,
			Timeout:  *timeout,
		}
		if cfg.ETrade.Cookie.Name != "" {
			login.Cookie = &etrade.SessionCookie{
				Name:   cfg.ETrade.Cookie.Name,
				Value:  cfg.ETrade.Cookie.Value,
				Domain: cfg.ETrade.Cookie.Domain,
			}
		}
		token, err = oauth.Authorize(ctx, login)
	}
	if err != nil {
		log.Fatalf("authorization failed: %v", err)
	}

	fmt.Printf("export ETRADE_TOKEN=%s\n", token.Token)
	fmt.Printf("export ETRADE_TOKEN_SECRET=%s\n", token.Secret)
}

// manualFlow prints the authorize URL and reads the verifier code typed by
// the user.
func manualFlow(oauth *etrade.OAuth) (etrade.AccessToken, error) {
	authURL, err := oauth.RequestToken()
	if err != nil {
		return etrade.AccessToken{}, err
	}

	fmt.Fprintf(os.Stderr, "Open the following URL, log in, and accept:\n\n  %s\n\nVerifier code: ", authURL)

	reader := bufio.NewReader(os.Stdin)
	verifier, err := reader.ReadString('\n')
	if err != nil {
		return etrade.AccessToken{}, fmt.Errorf("reading verifier: %w", err)
	}

	return oauth.AccessToken(strings.TrimSpace(verifier))
}

// manageTokens renews or revokes the tokens held in the environment.
func manageTokens(ctx context.Context, cfg *config.Config, creds etrade.Credentials, renew bool) {
	token := etrade.AccessToken{
		Token:  os.Getenv("ETRADE_TOKEN"),
		Secret: os.Getenv("ETRADE_TOKEN_SECRET"),
	}
	if token.Token == "" || token.Secret == "" {
		log.Fatal("ETRADE_TOKEN and ETRADE_TOKEN_SECRET must be set")
	}

	var opts []etrade.SessionOption
	if cfg.ETrade.Sandbox {
		opts = append(opts, etrade.WithSandbox())
	}
	session := etrade.NewSession(creds, token, opts...)

	if renew {
		if err := session.RenewAccessToken(ctx); err != nil {
			log.Fatalf("renew failed: %v", err)
		}
		fmt.Println("access token renewed")
		return
	}

	if err := session.RevokeAccessToken(ctx); err != nil {
		log.Fatalf("revoke failed: %v", err)
	}
	fmt.Println("access token revoked")
}
