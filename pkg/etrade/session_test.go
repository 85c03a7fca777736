package etrade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestSession points a signed session at a mock server.
func newTestSession(ts *httptest.Server) *Session {
	return NewSession(
		Credentials{ConsumerKey: "abc123", ConsumerSecret: "xyz789"},
		AccessToken{Token: "abctoken", Secret: "xyzsecret"},
		WithBaseURL(ts.URL),
	)
}

func TestJSONFormatParsesBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/list.json" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/v1/accounts/list.json")
		}
		if got := r.Header.Get("Authorization"); got == "" {
			t.Error("request is missing the OAuth Authorization header")
		}
		fmt.Fprint(w, `{"AccountListResponse":{"Accounts":{"Account":[{"accountId":"840104290"}]}}}`)
	}))
	defer ts.Close()

	resp, err := NewAccounts(newTestSession(ts)).List(context.Background(), FormatJSON)
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}

	if resp.Data == nil {
		t.Fatal("Data is nil, want parsed JSON")
	}
	if _, ok := resp.Data["AccountListResponse"]; !ok {
		t.Errorf("Data missing AccountListResponse key: %v", resp.Data)
	}
	if resp.Raw == "" {
		t.Error("Raw body should be retained alongside parsed data")
	}
}

func TestXMLFormatReturnsRawBody(t *testing.T) {
	const body = `<xml> returns </xml>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/list" {
			t.Errorf("path = %q, want %q (no .json suffix for XML)", r.URL.Path, "/v1/accounts/list")
		}
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	resp, err := NewAccounts(newTestSession(ts)).List(context.Background(), FormatXML)
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}

	if resp.Raw != body {
		t.Errorf("Raw = %q, want %q", resp.Raw, body)
	}
	if resp.Data != nil {
		t.Errorf("Data = %v, want nil for XML format", resp.Data)
	}
}

func TestAPIErrorSurfacesStatusAndMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `<Error><code>100</code><message>Invalid consumer key</message></Error>`)
	}))
	defer ts.Close()

	_, err := NewAccounts(newTestSession(ts)).List(context.Background(), FormatJSON)
	if err == nil {
		t.Fatal("List() returned nil error, want *APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusUnauthorized)
	}
	if apiErr.Code != 100 {
		t.Errorf("Code = %d, want 100", apiErr.Code)
	}
	if apiErr.Message != "Invalid consumer key" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Invalid consumer key")
	}
}

func TestAPIErrorJSONEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"Error":{"code":1023,"message":"Order already cancelled"}}`)
	}))
	defer ts.Close()

	_, err := NewAccounts(newTestSession(ts)).List(context.Background(), FormatJSON)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.Code != 1023 || apiErr.Message != "Order already cancelled" {
		t.Errorf("got code=%d message=%q, want code=1023 message=%q",
			apiErr.Code, apiErr.Message, "Order already cancelled")
	}
}

func TestRenewAndRevokeAccessToken(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, "Access Token has been renewed")
	}))
	defer ts.Close()

	s := newTestSession(ts)
	ctx := context.Background()

	if err := s.RenewAccessToken(ctx); err != nil {
		t.Errorf("RenewAccessToken() returned error: %v", err)
	}
	if err := s.RevokeAccessToken(ctx); err != nil {
		t.Errorf("RevokeAccessToken() returned error: %v", err)
	}

	want := []string{"/oauth/renew_access_token", "/oauth/revoke_access_token"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("request paths = %v, want %v", paths, want)
	}
}
