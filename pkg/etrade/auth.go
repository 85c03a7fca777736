package etrade

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"
)

// OAuth endpoint URLs. The oauth endpoints live on the production host for
// both production and sandbox consumer keys.
const (
	requestTokenURL = prodBaseURL + "/oauth/request_token"
	accessTokenURL  = prodBaseURL + "/oauth/access_token"
	authorizeURL    = "https://us.etrade.com/e/t/etws/authorize"
)

// OAuth performs the one-time authorization sequence: request token ->
// verifier -> access token. The verifier can come from the automated
// browser login (Authorize / VerifierFromBrowser) or from a human pasting
// the code shown on the consent page.
type OAuth struct {
	creds        Credentials
	conf         *oauth1.Config
	authorizeURL string
	log          *slog.Logger

	// Request token state, populated by RequestToken and consumed exactly
	// once by AccessToken.
	requestToken  string
	requestSecret string
}

// OAuthOption customizes an OAuth flow at construction time.
type OAuthOption func(*OAuth)

// WithAuthEndpoints overrides the request-token and access-token URLs.
// Used by tests against mock servers.
func WithAuthEndpoints(requestTokenURL, accessTokenURL string) OAuthOption {
	return func(o *OAuth) {
		o.conf.Endpoint.RequestTokenURL = requestTokenURL
		o.conf.Endpoint.AccessTokenURL = accessTokenURL
	}
}

// WithAuthorizeURL overrides the consent page URL.
func WithAuthorizeURL(u string) OAuthOption {
	return func(o *OAuth) { o.authorizeURL = u }
}

// WithAuthLogger sets the logger used by the flow.
func WithAuthLogger(l *slog.Logger) OAuthOption {
	return func(o *OAuth) { o.log = l }
}

// NewOAuth creates an authorization flow for the given consumer
// credentials. The callback is always "oob": E-Trade shows the verifier
// code on the consent page instead of redirecting.
func NewOAuth(creds Credentials, opts ...OAuthOption) *OAuth {
	o := &OAuth{
		creds: creds,
		conf: &oauth1.Config{
			ConsumerKey:    creds.ConsumerKey,
			ConsumerSecret: creds.ConsumerSecret,
			CallbackURL:    "oob",
			Endpoint: oauth1.Endpoint{
				RequestTokenURL: requestTokenURL,
				AuthorizeURL:    authorizeURL,
				AccessTokenURL:  accessTokenURL,
			},
		},
		authorizeURL: authorizeURL,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RequestToken obtains an OAuth1 request token and returns the authorize
// URL to visit. E-Trade uses its own URL format, key and token instead of
// the standard oauth_token parameter.
func (o *OAuth) RequestToken() (string, error) {
	token, secret, err := o.conf.RequestToken()
	if err != nil {
		return "", fmt.Errorf("etrade: requesting token: %w", err)
	}
	o.requestToken = token
	o.requestSecret = secret

	u := fmt.Sprintf("%s?key=%s&token=%s",
		o.authorizeURL, url.QueryEscape(o.creds.ConsumerKey), url.QueryEscape(token))
	o.log.Debug("obtained request token", "authorize_url", u)

	return u, nil
}

// AccessToken exchanges the verifier code for session tokens. The verifier
// is consumed exactly once; an empty verifier or a missing request token
// fails locally without sending a request.
func (o *OAuth) AccessToken(verifier string) (AccessToken, error) {
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return AccessToken{}, ErrMissingVerifier
	}
	if o.requestToken == "" {
		return AccessToken{}, ErrNoRequestToken
	}

	token, secret, err := o.conf.AccessToken(o.requestToken, o.requestSecret, verifier)
	if err != nil {
		return AccessToken{}, fmt.Errorf("etrade: exchanging verifier for access token: %w", err)
	}
	o.log.Info("access token obtained")

	return AccessToken{Token: token, Secret: secret}, nil
}

// Authorize runs the whole sequence without human interaction: request
// token, automated browser login and consent, verifier extraction, access
// token exchange.
func (o *OAuth) Authorize(ctx context.Context, login BrowserLogin) (AccessToken, error) {
	authURL, err := o.RequestToken()
	if err != nil {
		return AccessToken{}, err
	}

	verifier, err := o.VerifierFromBrowser(ctx, authURL, login)
	if err != nil {
		return AccessToken{}, err
	}

	return o.AccessToken(verifier)
}
