package etrade

import (
	"context"
	"net/url"
)

// Accounts lists brokerage accounts and account details for the
// authenticated principal. Every call requires valid session tokens;
// otherwise the remote API answers with an authorization error.
type Accounts struct {
	s *Session
}

// NewAccounts creates the accounts component on top of a signed session.
func NewAccounts(s *Session) *Accounts {
	return &Accounts{s: s}
}

// List returns all brokerage accounts for the authenticated user.
func (a *Accounts) List(ctx context.Context, format ResponseFormat) (*Response, error) {
	return a.s.get(ctx, "/v1/accounts/list", nil, format)
}

// Balance returns the real-time balance for one account, identified by its
// opaque accountIdKey from List.
func (a *Accounts) Balance(ctx context.Context, accountIDKey string, format ResponseFormat) (*Response, error) {
	if accountIDKey == "" {
		return nil, ErrMissingAccountID
	}
	query := url.Values{}
	query.Set("instType", "BROKERAGE")
	query.Set("realTimeNAV", "true")
	return a.s.get(ctx, "/v1/accounts/"+accountIDKey+"/balance", query, format)
}

// Transactions returns the transaction history for one account.
func (a *Accounts) Transactions(ctx context.Context, accountIDKey string, format ResponseFormat) (*Response, error) {
	if accountIDKey == "" {
		return nil, ErrMissingAccountID
	}
	return a.s.get(ctx, "/v1/accounts/"+accountIDKey+"/transactions", nil, format)
}
