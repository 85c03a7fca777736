// Package domain holds the record types shared between the market client
// and the storage layer.
package domain

import "time"

// QuoteSnapshot is a point-in-time quote for one symbol as returned by the
// quote endpoint.
type QuoteSnapshot struct {
	Symbol    string
	Timestamp time.Time
	Bid       float64
	BidSize   int64
	Ask       float64
	AskSize   int64
	Last      float64
	Volume    int64
}
