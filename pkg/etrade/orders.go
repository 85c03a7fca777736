package etrade

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// OrderAction is the side of an equity order.
type OrderAction string

// Equity order actions accepted by the API.
const (
	ActionBuy        OrderAction = "BUY"
	ActionSell       OrderAction = "SELL"
	ActionBuyToCover OrderAction = "BUY_TO_COVER"
	ActionSellShort  OrderAction = "SELL_SHORT"
)

// PriceType is the pricing mode of an order.
type PriceType string

// Order price types.
const (
	PriceMarket    PriceType = "MARKET"
	PriceLimit     PriceType = "LIMIT"
	PriceStop      PriceType = "STOP"
	PriceStopLimit PriceType = "STOP_LIMIT"
)

// OrderTerm is how long an order stays working.
type OrderTerm string

// Order terms.
const (
	TermGoodForDay        OrderTerm = "GOOD_FOR_DAY"
	TermGoodUntilCancel   OrderTerm = "GOOD_UNTIL_CANCEL"
	TermImmediateOrCancel OrderTerm = "IMMEDIATE_OR_CANCEL"
	TermFillOrKill        OrderTerm = "FILL_OR_KILL"
)

// MarketSession selects regular or extended trading hours.
type MarketSession string

// Market sessions.
const (
	SessionRegular  MarketSession = "REGULAR"
	SessionExtended MarketSession = "EXTENDED"
)

// EquityOrder is an order specification for a single equity instrument.
// The zero values of PriceType, OrderTerm, and MarketSession default to
// MARKET, GOOD_FOR_DAY, and REGULAR. A blank ClientOrderID is filled with
// a generated unique ID before submission.
type EquityOrder struct {
	Symbol        string
	Quantity      int64
	Action        OrderAction
	PriceType     PriceType
	LimitPrice    float64
	StopPrice     float64
	OrderTerm     OrderTerm
	MarketSession MarketSession
	AllOrNone     bool
	ClientOrderID string
}

// withDefaults returns a copy with zero-value fields resolved.
func (o EquityOrder) withDefaults() EquityOrder {
	if o.PriceType == "" {
		o.PriceType = PriceMarket
	}
	if o.OrderTerm == "" {
		o.OrderTerm = TermGoodForDay
	}
	if o.MarketSession == "" {
		o.MarketSession = SessionRegular
	}
	if o.ClientOrderID == "" {
		o.ClientOrderID = uuid.NewString()
	}
	return o
}

// Validate checks the order specification locally. A malformed order never
// reaches the network, so an invalid trade cannot be submitted by mistake.
func (o EquityOrder) Validate() error {
	if o.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	}

	switch o.Action {
	case ActionBuy, ActionSell, ActionBuyToCover, ActionSellShort:
	default:
		return fmt.Errorf("%w: unknown order action %q", ErrInvalidOrder, o.Action)
	}

	switch o.PriceType {
	case PriceMarket:
		if o.LimitPrice != 0 || o.StopPrice != 0 {
			return fmt.Errorf("%w: market orders must not carry limit or stop prices", ErrInvalidOrder)
		}
	case PriceLimit:
		if o.LimitPrice <= 0 {
			return fmt.Errorf("%w: limit orders require a positive limit price", ErrInvalidOrder)
		}
	case PriceStop:
		if o.StopPrice <= 0 {
			return fmt.Errorf("%w: stop orders require a positive stop price", ErrInvalidOrder)
		}
	case PriceStopLimit:
		if o.LimitPrice <= 0 || o.StopPrice <= 0 {
			return fmt.Errorf("%w: stop-limit orders require positive limit and stop prices", ErrInvalidOrder)
		}
	default:
		return fmt.Errorf("%w: unknown price type %q", ErrInvalidOrder, o.PriceType)
	}

	switch o.OrderTerm {
	case TermGoodForDay, TermGoodUntilCancel, TermImmediateOrCancel, TermFillOrKill:
	default:
		return fmt.Errorf("%w: unknown order term %q", ErrInvalidOrder, o.OrderTerm)
	}

	switch o.MarketSession {
	case SessionRegular, SessionExtended:
	default:
		return fmt.Errorf("%w: unknown market session %q", ErrInvalidOrder, o.MarketSession)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Request payloads (E-Trade order endpoints take XML bodies)
// ---------------------------------------------------------------------------

type orderProduct struct {
	SecurityType string `xml:"securityType"`
	Symbol       string `xml:"symbol"`
}

type orderInstrument struct {
	Product      orderProduct `xml:"Product"`
	OrderAction  OrderAction  `xml:"orderAction"`
	QuantityType string       `xml:"quantityType"`
	Quantity     int64        `xml:"quantity"`
}

type orderDetail struct {
	AllOrNone     bool            `xml:"allOrNone"`
	PriceType     PriceType       `xml:"priceType"`
	OrderTerm     OrderTerm       `xml:"orderTerm"`
	MarketSession MarketSession   `xml:"marketSession"`
	StopPrice     string          `xml:"stopPrice"`
	LimitPrice    string          `xml:"limitPrice"`
	Instrument    orderInstrument `xml:"Instrument"`
}

type placeOrderRequest struct {
	XMLName       xml.Name    `xml:"PlaceOrderRequest"`
	OrderType     string      `xml:"orderType"`
	ClientOrderID string      `xml:"clientOrderId"`
	Order         orderDetail `xml:"Order"`
}

type previewOrderRequest struct {
	XMLName       xml.Name    `xml:"PreviewOrderRequest"`
	OrderType     string      `xml:"orderType"`
	ClientOrderID string      `xml:"clientOrderId"`
	Order         orderDetail `xml:"Order"`
}

type cancelOrderRequest struct {
	XMLName xml.Name `xml:"CancelOrderRequest"`
	OrderID int64    `xml:"orderId"`
}

// equityOrderDetail maps a validated EquityOrder onto the XML payload
// shape. Prices are rendered with two decimals, empty when unset.
func equityOrderDetail(o EquityOrder) orderDetail {
	return orderDetail{
		AllOrNone:     o.AllOrNone,
		PriceType:     o.PriceType,
		OrderTerm:     o.OrderTerm,
		MarketSession: o.MarketSession,
		StopPrice:     formatPrice(o.StopPrice),
		LimitPrice:    formatPrice(o.LimitPrice),
		Instrument: orderInstrument{
			Product: orderProduct{
				SecurityType: "EQ",
				Symbol:       o.Symbol,
			},
			OrderAction:  o.Action,
			QuantityType: "QUANTITY",
			Quantity:     o.Quantity,
		},
	}
}

func formatPrice(p float64) string {
	if p == 0 {
		return ""
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// ---------------------------------------------------------------------------
// Orders component
// ---------------------------------------------------------------------------

// Orders lists, previews, places, and cancels orders on a brokerage
// account. Each operation is a parameter-validated pass-through to the
// corresponding endpoint.
type Orders struct {
	s *Session
}

// NewOrders creates the orders component on top of a signed session.
func NewOrders(s *Session) *Orders {
	return &Orders{s: s}
}

// List returns the orders of one account.
func (o *Orders) List(ctx context.Context, accountIDKey string, format ResponseFormat) (*Response, error) {
	if accountIDKey == "" {
		return nil, ErrMissingAccountID
	}
	return o.s.get(ctx, "/v1/accounts/"+accountIDKey+"/orders", nil, format)
}

// PreviewEquity submits an equity order for preview. The order is
// validated locally first, exactly like PlaceEquity.
func (o *Orders) PreviewEquity(ctx context.Context, accountIDKey string, order EquityOrder, format ResponseFormat) (*Response, error) {
	if accountIDKey == "" {
		return nil, ErrMissingAccountID
	}
	order = order.withDefaults()
	if err := order.Validate(); err != nil {
		return nil, err
	}

	body, err := xml.Marshal(previewOrderRequest{
		OrderType:     "EQ",
		ClientOrderID: order.ClientOrderID,
		Order:         equityOrderDetail(order),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding preview order request: %w", err)
	}
	return o.s.post(ctx, "/v1/accounts/"+accountIDKey+"/orders/preview", nil, body, format)
}

// PlaceEquity submits an equity order for execution. Malformed orders fail
// fast before the network call.
func (o *Orders) PlaceEquity(ctx context.Context, accountIDKey string, order EquityOrder, format ResponseFormat) (*Response, error) {
	if accountIDKey == "" {
		return nil, ErrMissingAccountID
	}
	order = order.withDefaults()
	if err := order.Validate(); err != nil {
		return nil, err
	}

	body, err := xml.Marshal(placeOrderRequest{
		OrderType:     "EQ",
		ClientOrderID: order.ClientOrderID,
		Order:         equityOrderDetail(order),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding place order request: %w", err)
	}

	o.s.log.Info("placing equity order",
		"symbol", order.Symbol, "action", order.Action,
		"quantity", order.Quantity, "price_type", order.PriceType)

	return o.s.post(ctx, "/v1/accounts/"+accountIDKey+"/orders/place", nil, body, format)
}

// Cancel requests cancellation of an open order by its numeric ID. Errors
// from the remote API, including "already cancelled", are surfaced to the
// caller as *APIError.
func (o *Orders) Cancel(ctx context.Context, accountIDKey string, orderID int64, format ResponseFormat) (*Response, error) {
	if accountIDKey == "" {
		return nil, ErrMissingAccountID
	}
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive, got %d", ErrInvalidOrder, orderID)
	}

	body, err := xml.Marshal(cancelOrderRequest{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("encoding cancel order request: %w", err)
	}
	return o.s.put(ctx, "/v1/accounts/"+accountIDKey+"/orders/cancel", nil, body, format)
}
