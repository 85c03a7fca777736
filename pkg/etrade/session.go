// Package etrade is a client library for the E-Trade brokerage REST API.
// It covers the OAuth1 authorization sequence (including an automated
// browser login that obtains the verifier code without human interaction),
// account listing, equity order placement and cancellation, and market
// data: product lookup, quotes, and option chains.
//
// Every authenticated call is signed with OAuth1 using the consumer
// key/secret supplied at construction and the access token/secret obtained
// from the login flow. Components share nothing beyond the Session they
// are built on and are independently callable once tokens exist.
package etrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"
)

// Production and sandbox API hosts.
const (
	prodBaseURL    = "https://api.etrade.com"
	sandboxBaseURL = "https://apisb.etrade.com"
)

const defaultTimeout = 30 * time.Second

// Credentials holds the consumer key/secret issued by E-Trade. They are
// process-wide, supplied at construction, and never mutated.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

// AccessToken is the OAuth token/secret pair granted after a successful
// login sequence. Both values are opaque; expiry is enforced by the remote
// service only.
type AccessToken struct {
	Token  string
	Secret string
}

// ResponseFormat selects how API response bodies are returned to the caller.
type ResponseFormat string

const (
	// FormatJSON requests a JSON body and parses it into Response.Data.
	// This is the default when the format is left empty.
	FormatJSON ResponseFormat = "json"
	// FormatXML requests the API's native XML body and returns it verbatim
	// in Response.Raw without parsing.
	FormatXML ResponseFormat = "xml"
)

// orDefault maps the zero value to FormatJSON.
func (f ResponseFormat) orDefault() ResponseFormat {
	if f == "" {
		return FormatJSON
	}
	return f
}

// Response is the outcome of a single API call. Raw always holds the body
// as received. Data is populated only for FormatJSON.
type Response struct {
	Raw  string
	Data map[string]any
}

// Session is the OAuth1-signed HTTP core shared by the Accounts, Orders,
// and Market components. A Session is safe to reuse across calls; it holds
// no mutable state beyond the immutable credential/token pair.
type Session struct {
	creds      Credentials
	token      AccessToken
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *slog.Logger
}

// SessionOption customizes a Session at construction time.
type SessionOption func(*Session)

// WithSandbox points the session at the E-Trade sandbox host.
func WithSandbox() SessionOption {
	return func(s *Session) { s.baseURL = sandboxBaseURL }
}

// WithBaseURL overrides the API host entirely. Used by tests against mock
// servers.
func WithBaseURL(u string) SessionOption {
	return func(s *Session) { s.baseURL = u }
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// WithHTTPClient replaces the signed HTTP client. The replacement is used
// as-is, so the caller is responsible for request signing.
func WithHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) { s.httpClient = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// NewSession creates a signed session for the production API. Apply
// WithSandbox to target the sandbox instead.
func NewSession(creds Credentials, token AccessToken, opts ...SessionOption) *Session {
	s := &Session{
		creds:   creds,
		token:   token,
		baseURL: prodBaseURL,
		timeout: defaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.httpClient == nil {
		conf := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
		s.httpClient = conf.Client(context.Background(), oauth1.NewToken(token.Token, token.Secret))
	}
	s.httpClient.Timeout = s.timeout

	return s
}

// get issues a signed GET for the given resource path.
func (s *Session) get(ctx context.Context, path string, query url.Values, format ResponseFormat) (*Response, error) {
	return s.do(ctx, http.MethodGet, path, query, nil, format)
}

// post issues a signed POST with an XML request body.
func (s *Session) post(ctx context.Context, path string, query url.Values, body []byte, format ResponseFormat) (*Response, error) {
	return s.do(ctx, http.MethodPost, path, query, body, format)
}

// put issues a signed PUT with an XML request body.
func (s *Session) put(ctx context.Context, path string, query url.Values, body []byte, format ResponseFormat) (*Response, error) {
	return s.do(ctx, http.MethodPut, path, query, body, format)
}

// do builds, signs, and executes a single API request. JSON-format requests
// get the ".json" path suffix per the E-Trade convention. Non-2xx responses
// are returned as *APIError with the status and the remote message; there
// is no retry.
func (s *Session) do(ctx context.Context, method, path string, query url.Values, body []byte, format ResponseFormat) (*Response, error) {
	format = format.orDefault()

	u := s.baseURL + path
	if format == FormatJSON {
		u += ".json"
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/xml")
	}
	if format == FormatJSON {
		req.Header.Set("Accept", "application/json")
	}

	s.log.Debug("etrade api call", "method", method, "path", path)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	out := &Response{Raw: string(raw)}
	if format == FormatJSON && len(raw) > 0 {
		data := map[string]any{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
		out.Data = data
	}
	return out, nil
}

// RenewAccessToken asks E-Trade to extend the lifetime of the session's
// access tokens. The tokens themselves do not change.
func (s *Session) RenewAccessToken(ctx context.Context) error {
	if _, err := s.get(ctx, "/oauth/renew_access_token", nil, FormatXML); err != nil {
		return fmt.Errorf("renewing access token: %w", err)
	}
	return nil
}

// RevokeAccessToken invalidates the session's access tokens with E-Trade.
// Every subsequent call on this session will fail with an authorization
// error from the remote API.
func (s *Session) RevokeAccessToken(ctx context.Context) error {
	if _, err := s.get(ctx, "/oauth/revoke_access_token", nil, FormatXML); err != nil {
		return fmt.Errorf("revoking access token: %w", err)
	}
	return nil
}
