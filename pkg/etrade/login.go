package etrade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Selectors on the E-Trade login and consent pages. The whole automation
// is coupled to the current page markup and breaks when E-Trade changes
// it; that is an external-dependency fragility, not something this code
// can guard against.
const (
	loginUserSelector     = `input[name="USER"]`
	loginPasswordSelector = `input[name="PASSWORD"]`
	loginButtonSelector   = `#logon_button`
	consentAcceptSelector = `input[name="submit"]`
	verifierSelector      = `div[style*="text-align:center"] input`
)

const defaultLoginTimeout = 2 * time.Minute

// SessionCookie is a pre-captured E-Trade web session cookie injected into
// the automated browser so the login is not challenged for a second
// factor.
type SessionCookie struct {
	Name   string
	Value  string
	Domain string
}

// BrowserLogin holds everything the automated login needs: the web
// credentials (distinct from the API consumer credentials) and browser
// settings.
type BrowserLogin struct {
	Username string
	Password string
	Cookie   *SessionCookie
	Headless bool
	// Timeout bounds the whole page sequence. Zero means two minutes.
	Timeout time.Duration
}

// VerifierFromBrowser drives a browser through the authorize URL: inject
// the session cookie, fill the login form, click through the consent
// screen, and scrape the verifier code from the resulting page. The call
// blocks until the sequence completes or the timeout expires. Failures are
// returned as *AutomationError naming the step that broke.
func (o *OAuth) VerifierFromBrowser(ctx context.Context, authURL string, login BrowserLogin) (string, error) {
	if login.Username == "" || login.Password == "" {
		return "", automationErr("setup", errors.New("web username and password are required"))
	}

	timeout := login.Timeout
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", login.Headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	o.log.Info("starting automated login", "headless", login.Headless)

	if err := chromedp.Run(browserCtx, chromedp.Navigate(authURL)); err != nil {
		return "", automationErr("navigate", err)
	}

	if login.Cookie != nil {
		err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetCookie(login.Cookie.Name, login.Cookie.Value).
				WithDomain(login.Cookie.Domain).
				WithPath("/").
				Do(ctx)
		}))
		if err != nil {
			return "", automationErr("set cookie", err)
		}
	}

	err := chromedp.Run(browserCtx,
		chromedp.WaitVisible(loginUserSelector, chromedp.ByQuery),
		chromedp.SendKeys(loginUserSelector, login.Username, chromedp.ByQuery),
		chromedp.SendKeys(loginPasswordSelector, login.Password, chromedp.ByQuery),
		chromedp.Click(loginButtonSelector, chromedp.ByQuery),
	)
	if err != nil {
		return "", automationErr("login form", err)
	}

	// The consent screen is not always shown; accept it when present and
	// move on when it is not.
	acceptCtx, cancelAccept := context.WithTimeout(browserCtx, 10*time.Second)
	defer cancelAccept()
	if err := chromedp.Run(acceptCtx,
		chromedp.WaitVisible(consentAcceptSelector, chromedp.ByQuery),
		chromedp.Click(consentAcceptSelector, chromedp.ByQuery),
	); err != nil {
		o.log.Debug("consent screen not found, continuing", "err", err)
	}

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.WaitVisible(verifierSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", automationErr("verifier page", err)
	}

	verifier, err := extractVerifier(html)
	if err != nil {
		return "", automationErr("verifier extraction", err)
	}
	o.log.Info("verifier code obtained")

	return verifier, nil
}

// extractVerifier pulls the verifier code out of the consent result page.
// E-Trade renders it as the value of an input inside a centered div.
func extractVerifier(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	input := doc.Find(verifierSelector).First()
	if input.Length() == 0 {
		return "", errors.New("verifier input not found on page")
	}

	verifier, _ := input.Attr("value")
	verifier = strings.TrimSpace(verifier)
	if verifier == "" {
		return "", errors.New("verifier input is empty")
	}
	return verifier, nil
}
