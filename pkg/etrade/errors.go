package etrade

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for local validation failures. All of them are raised
// before any network I/O happens.
var (
	// ErrMissingVerifier is returned when the access-token exchange is
	// attempted with an empty verifier code.
	ErrMissingVerifier = errors.New("etrade: verifier code is required")

	// ErrNoRequestToken is returned when the access-token exchange is
	// attempted before a request token was obtained.
	ErrNoRequestToken = errors.New("etrade: request token not obtained, call RequestToken first")

	// ErrMissingAccountID is returned when an operation that targets a
	// specific account is called with an empty account ID key.
	ErrMissingAccountID = errors.New("etrade: account ID key is required")

	// ErrInvalidOrder wraps every equity order validation failure.
	ErrInvalidOrder = errors.New("etrade: invalid order")
)

// APIError is a non-2xx response from the E-Trade API. The remote status
// and message are surfaced to the caller unchanged; calls are never
// retried automatically.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("etrade: api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("etrade: api error: status %d", e.StatusCode)
}

// newAPIError builds an APIError from a response body, extracting the
// remote error code and message from either the XML or the JSON error
// envelope. Unrecognized bodies are kept verbatim as the message.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: string(body)}

	var xmlErr struct {
		XMLName xml.Name `xml:"Error"`
		Code    int      `xml:"code"`
		Message string   `xml:"message"`
	}
	if err := xml.Unmarshal(body, &xmlErr); err == nil && xmlErr.Message != "" {
		e.Code = xmlErr.Code
		e.Message = xmlErr.Message
		return e
	}

	var jsonErr struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"Error"`
	}
	if err := json.Unmarshal(body, &jsonErr); err == nil && jsonErr.Error.Message != "" {
		e.Code = jsonErr.Error.Code
		e.Message = jsonErr.Error.Message
		return e
	}

	e.Message = strings.TrimSpace(string(body))
	return e
}

// AutomationError is a failure in the scripted browser login: an element
// was not found, a navigation failed, or the page sequence timed out. It
// usually means the remote login page markup changed or network conditions
// failed, not that the caller did anything wrong.
type AutomationError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *AutomationError) Error() string {
	return fmt.Sprintf("etrade: login automation failed at %s: %v", e.Step, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *AutomationError) Unwrap() error { return e.Err }

// automationErr wraps err with the step name, preserving nil.
func automationErr(step string, err error) error {
	if err == nil {
		return nil
	}
	return &AutomationError{Step: step, Err: err}
}
