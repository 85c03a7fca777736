package etrade

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEquityOrderValidate(t *testing.T) {
	valid := EquityOrder{
		Symbol:    "AAPL",
		Quantity:  100,
		Action:    ActionBuy,
		PriceType: PriceLimit,
		LimitPrice: 185.50,
	}.withDefaults()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid order rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(o *EquityOrder)
	}{
		{"zero quantity", func(o *EquityOrder) { o.Quantity = 0 }},
		{"negative quantity", func(o *EquityOrder) { o.Quantity = -10 }},
		{"missing symbol", func(o *EquityOrder) { o.Symbol = "" }},
		{"unknown action", func(o *EquityOrder) { o.Action = "HOLD" }},
		{"unknown price type", func(o *EquityOrder) { o.PriceType = "FANCY" }},
		{"limit without price", func(o *EquityOrder) { o.LimitPrice = 0 }},
		{"market with limit price", func(o *EquityOrder) {
			o.PriceType = PriceMarket
		}},
		{"stop without stop price", func(o *EquityOrder) {
			o.PriceType = PriceStop
			o.LimitPrice = 0
		}},
		{"stop-limit without stop price", func(o *EquityOrder) { o.PriceType = PriceStopLimit }},
		{"unknown order term", func(o *EquityOrder) { o.OrderTerm = "FOREVER" }},
		{"unknown market session", func(o *EquityOrder) { o.MarketSession = "OVERNIGHT" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			order := valid
			tc.mutate(&order)
			if err := order.Validate(); !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("Validate() error = %v, want ErrInvalidOrder", err)
			}
		})
	}
}

func TestPlaceEquityRejectsInvalidOrderLocally(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"PlaceOrderResponse":{}}`)
	}))
	defer ts.Close()

	orders := NewOrders(newTestSession(ts))
	ctx := context.Background()

	for _, quantity := range []int64{0, -5} {
		_, err := orders.PlaceEquity(ctx, "acct-1", EquityOrder{
			Symbol:   "AAPL",
			Quantity: quantity,
			Action:   ActionBuy,
		}, FormatJSON)
		if !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("PlaceEquity(quantity=%d) error = %v, want ErrInvalidOrder", quantity, err)
		}
	}

	if hits != 0 {
		t.Errorf("server hit %d times, want 0 (invalid orders must not reach the network)", hits)
	}
}

func TestPlaceEquityPayload(t *testing.T) {
	var (
		gotPath        string
		gotContentType string
		gotBody        []byte
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"PlaceOrderResponse":{"OrderIds":[{"orderId":529}]}}`)
	}))
	defer ts.Close()

	orders := NewOrders(newTestSession(ts))
	_, err := orders.PlaceEquity(context.Background(), "acct-1", EquityOrder{
		Symbol:     "AAPL",
		Quantity:   100,
		Action:     ActionBuy,
		PriceType:  PriceLimit,
		LimitPrice: 185.5,
	}, FormatJSON)
	if err != nil {
		t.Fatalf("PlaceEquity() returned error: %v", err)
	}

	if gotPath != "/v1/accounts/acct-1/orders/place.json" {
		t.Errorf("path = %q, want %q", gotPath, "/v1/accounts/acct-1/orders/place.json")
	}
	if gotContentType != "application/xml" {
		t.Errorf("Content-Type = %q, want application/xml", gotContentType)
	}

	var req placeOrderRequest
	if err := xml.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("request body is not valid XML: %v\n%s", err, gotBody)
	}
	if req.OrderType != "EQ" {
		t.Errorf("orderType = %q, want EQ", req.OrderType)
	}
	if req.ClientOrderID == "" {
		t.Error("clientOrderId is empty, want generated ID")
	}
	inst := req.Order.Instrument
	if inst.Product.Symbol != "AAPL" || inst.Product.SecurityType != "EQ" {
		t.Errorf("product = %+v, want symbol AAPL, securityType EQ", inst.Product)
	}
	if inst.OrderAction != ActionBuy || inst.Quantity != 100 || inst.QuantityType != "QUANTITY" {
		t.Errorf("instrument = %+v, want BUY 100 QUANTITY", inst)
	}
	if req.Order.LimitPrice != "185.50" {
		t.Errorf("limitPrice = %q, want %q", req.Order.LimitPrice, "185.50")
	}
	if req.Order.StopPrice != "" {
		t.Errorf("stopPrice = %q, want empty", req.Order.StopPrice)
	}
	if req.Order.OrderTerm != TermGoodForDay || req.Order.MarketSession != SessionRegular {
		t.Errorf("defaults not applied: term=%q session=%q", req.Order.OrderTerm, req.Order.MarketSession)
	}
}

func TestPlaceEquityKeepsClientOrderID(t *testing.T) {
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"PlaceOrderResponse":{}}`)
	}))
	defer ts.Close()

	orders := NewOrders(newTestSession(ts))
	_, err := orders.PlaceEquity(context.Background(), "acct-1", EquityOrder{
		Symbol:        "MSFT",
		Quantity:      10,
		Action:        ActionSell,
		ClientOrderID: "my-order-42",
	}, FormatJSON)
	if err != nil {
		t.Fatalf("PlaceEquity() returned error: %v", err)
	}

	if !strings.Contains(string(gotBody), "<clientOrderId>my-order-42</clientOrderId>") {
		t.Errorf("caller-supplied clientOrderId not preserved:\n%s", gotBody)
	}
}

func TestCancelAlreadyCancelledSurfacesAPIError(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"CancelOrderResponse":{"orderId":529}}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `<Error><code>5001</code><message>Order already cancelled</message></Error>`)
	}))
	defer ts.Close()

	orders := NewOrders(newTestSession(ts))
	ctx := context.Background()

	if _, err := orders.Cancel(ctx, "acct-1", 529, FormatJSON); err != nil {
		t.Fatalf("first Cancel() returned error: %v", err)
	}

	_, err := orders.Cancel(ctx, "acct-1", 529, FormatJSON)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("second Cancel() error = %v, want *APIError", err)
	}
	if apiErr.Message != "Order already cancelled" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Order already cancelled")
	}
}

func TestCancelValidation(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	orders := NewOrders(newTestSession(ts))
	ctx := context.Background()

	if _, err := orders.Cancel(ctx, "", 529, FormatJSON); !errors.Is(err, ErrMissingAccountID) {
		t.Errorf("Cancel with empty account error = %v, want ErrMissingAccountID", err)
	}
	if _, err := orders.Cancel(ctx, "acct-1", 0, FormatJSON); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("Cancel with zero order ID error = %v, want ErrInvalidOrder", err)
	}
	if hits != 0 {
		t.Errorf("server hit %d times, want 0", hits)
	}
}
