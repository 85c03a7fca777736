package etrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"goetrade/internal/domain"
)

// The quote endpoint accepts at most 25 symbols per request.
const maxQuoteSymbols = 25

// Market retrieves read-only market data: product lookup, real-time
// quotes, and option chains.
type Market struct {
	s *Session
}

// NewMarket creates the market component on top of a signed session.
func NewMarket(s *Session) *Market {
	return &Market{s: s}
}

// LookUpProduct searches products by company name or partial symbol.
func (m *Market) LookUpProduct(ctx context.Context, search string, format ResponseFormat) (*Response, error) {
	if search == "" {
		return nil, errors.New("etrade: search string is required")
	}
	return m.s.get(ctx, "/v1/market/lookup/"+url.PathEscape(search), nil, format)
}

// Quote returns real-time quotes for up to 25 symbols. Longer lists are
// truncated to the first 25 with a warning, matching the API limit.
func (m *Market) Quote(ctx context.Context, symbols []string, format ResponseFormat) (*Response, error) {
	if len(symbols) == 0 {
		return nil, errors.New("etrade: at least one symbol is required")
	}
	if len(symbols) > maxQuoteSymbols {
		m.s.log.Warn("quote request truncated", "requested", len(symbols), "max", maxQuoteSymbols)
		symbols = symbols[:maxQuoteSymbols]
	}
	return m.s.get(ctx, "/v1/market/quote/"+strings.Join(symbols, ","), nil, format)
}

// OptionChainsRequest narrows an option chain query. Zero-value fields are
// omitted from the request and the API defaults apply, except for
// IncludeWeekly and SkipAdjusted which are always sent.
type OptionChainsRequest struct {
	ExpiryYear      int
	ExpiryMonth     int
	ExpiryDay       int
	StrikePriceNear float64
	NoOfStrikes     int
	IncludeWeekly   bool
	SkipAdjusted    bool
	// ChainType is CALL, PUT, or CALLPUT.
	ChainType string
	// PriceType is ATNM or ALL.
	PriceType string
}

// OptionChains returns the option chain for an underlying symbol.
func (m *Market) OptionChains(ctx context.Context, symbol string, req OptionChainsRequest, format ResponseFormat) (*Response, error) {
	if symbol == "" {
		return nil, errors.New("etrade: symbol is required")
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	if req.ExpiryYear > 0 {
		query.Set("expiryYear", strconv.Itoa(req.ExpiryYear))
	}
	if req.ExpiryMonth > 0 {
		query.Set("expiryMonth", strconv.Itoa(req.ExpiryMonth))
	}
	if req.ExpiryDay > 0 {
		query.Set("expiryDay", strconv.Itoa(req.ExpiryDay))
	}
	if req.StrikePriceNear > 0 {
		query.Set("strikePriceNear", strconv.FormatFloat(req.StrikePriceNear, 'f', -1, 64))
	}
	if req.NoOfStrikes > 0 {
		query.Set("noOfStrikes", strconv.Itoa(req.NoOfStrikes))
	}
	query.Set("includeWeekly", strconv.FormatBool(req.IncludeWeekly))
	query.Set("skipAdjusted", strconv.FormatBool(req.SkipAdjusted))
	if req.ChainType != "" {
		query.Set("chainType", req.ChainType)
	}
	if req.PriceType != "" {
		query.Set("priceType", req.PriceType)
	}

	return m.s.get(ctx, "/v1/market/optionchains", query, format)
}

// OptionExpireDates returns the option expiration dates for a symbol.
func (m *Market) OptionExpireDates(ctx context.Context, symbol string, format ResponseFormat) (*Response, error) {
	if symbol == "" {
		return nil, errors.New("etrade: symbol is required")
	}
	query := url.Values{}
	query.Set("symbol", symbol)
	return m.s.get(ctx, "/v1/market/optionexpiredate", query, format)
}

// quoteResponse is the subset of the JSON QuoteResponse envelope needed
// for typed snapshots.
type quoteResponse struct {
	QuoteResponse struct {
		QuoteData []struct {
			DateTimeUTC int64 `json:"dateTimeUTC"`
			All         struct {
				Ask         float64 `json:"ask"`
				AskSize     int64   `json:"askSize"`
				Bid         float64 `json:"bid"`
				BidSize     int64   `json:"bidSize"`
				LastTrade   float64 `json:"lastTrade"`
				TotalVolume int64   `json:"totalVolume"`
			} `json:"All"`
			Product struct {
				Symbol       string `json:"symbol"`
				SecurityType string `json:"securityType"`
			} `json:"Product"`
		} `json:"QuoteData"`
	} `json:"QuoteResponse"`
}

// Snapshots fetches quotes for the given symbols and decodes them into
// typed records, one per symbol returned by the API.
func (m *Market) Snapshots(ctx context.Context, symbols []string) ([]domain.QuoteSnapshot, error) {
	resp, err := m.Quote(ctx, symbols, FormatJSON)
	if err != nil {
		return nil, err
	}

	var decoded quoteResponse
	if err := json.Unmarshal([]byte(resp.Raw), &decoded); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}

	snapshots := make([]domain.QuoteSnapshot, 0, len(decoded.QuoteResponse.QuoteData))
	for _, q := range decoded.QuoteResponse.QuoteData {
		snapshots = append(snapshots, domain.QuoteSnapshot{
			Symbol:    q.Product.Symbol,
			Timestamp: time.Unix(q.DateTimeUTC, 0).UTC(),
			Bid:       q.All.Bid,
			BidSize:   q.All.BidSize,
			Ask:       q.All.Ask,
			AskSize:   q.All.AskSize,
			Last:      q.All.LastTrade,
			Volume:    q.All.TotalVolume,
		})
	}
	return snapshots, nil
}
