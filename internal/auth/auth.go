// Package auth classifies the current page as login-gated or not, from URL
// text and structural signals. Classification is pure; signal gathering
// probes the live page with short per-probe timeouts so absent elements
// fail fast instead of blocking.
package auth

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

const probeTimeout = 1000.0

var urlIndicators = []string{"login", "signin", "auth", "oauth"}

var loginPathFragments = []string{"/login", "/signin", "/auth"}

// loginButtonTexts are probed in order; common on homepages that gate
// features behind a sign-in click without presenting a form.
var loginButtonTexts = []string{
	"sign in", "log in", "login", "signin",
	"sign in with google", "continue with google",
	"get started", "sign up", "signup",
}

var loginAriaSelectors = []string{
	`button[aria-label*="sign in" i]`,
	`button[aria-label*="log in" i]`,
	`a[aria-label*="sign in" i]`,
	`button[aria-label*="login" i]`,
}

var loginClassSelectors = []string{
	`button[class*="sign-in" i]`,
	`button[class*="login" i]`,
	`a[class*="sign-in" i]`,
	`button[id*="sign-in" i]`,
	`button[id*="login" i]`,
}

// State is the derived authentication classification of a page. Computed
// fresh each time, never persisted.
type State struct {
	IsLoginPage      bool
	RequiresLogin    bool
	HasLoginButton   bool
	LoginButtonText  string
	HasEmailField    bool
	HasPasswordField bool
	URL              string
}

// Signals are the raw structural observations fed to Classify.
type Signals struct {
	HasEmailField    bool
	HasPasswordField bool
	LoginButtonText  string // empty when no login affordance is visible
}

// Classify derives the auth state from a URL and page signals. Pure: same
// inputs, same output.
func Classify(url string, sig Signals) State {
	lower := strings.ToLower(url)

	isLoginURL := false
	for _, ind := range urlIndicators {
		if strings.Contains(lower, ind) {
			isLoginURL = true
			break
		}
	}

	hasLoginForm := sig.HasEmailField && sig.HasPasswordField
	isLoginPage := isLoginURL ||
		(hasLoginForm && (strings.Contains(lower, "/login") || strings.Contains(lower, "/signin")))

	hasButton := sig.LoginButtonText != ""
	requiresLogin := isLoginPage || (hasButton && !hasLoginForm)

	return State{
		IsLoginPage:      isLoginPage,
		RequiresLogin:    requiresLogin,
		HasLoginButton:   hasButton,
		LoginButtonText:  sig.LoginButtonText,
		HasEmailField:    sig.HasEmailField,
		HasPasswordField: sig.HasPasswordField,
		URL:              url,
	}
}

// LoginPathURL reports whether the URL path itself carries a dedicated
// login indicator.
func LoginPathURL(url string) bool {
	lower := strings.ToLower(url)
	for _, frag := range loginPathFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Detect gathers signals from the live page and classifies them.
func Detect(pg playwright.Page) State {
	sig := Signals{
		HasEmailField:    hasAny(pg, `input[type="email"], input[name*="email" i], input[id*="email" i]`),
		HasPasswordField: hasAny(pg, `input[type="password"]`),
		LoginButtonText:  probeLoginButton(pg),
	}
	return Classify(pg.URL(), sig)
}

// probeLoginButton runs the three fallback tiers: literal text, aria-label
// substring, then class/id substring.
func probeLoginButton(pg playwright.Page) string {
	for _, text := range loginButtonTexts {
		btn := pg.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name:  text,
			Exact: playwright.Bool(false),
		}).First()
		if visible(btn) {
			return text
		}
		if visible(pg.GetByText(text, playwright.PageGetByTextOptions{Exact: playwright.Bool(false)}).First()) {
			return text
		}
	}
	for _, sel := range loginAriaSelectors {
		if visible(pg.Locator(sel).First()) {
			return "login button (aria-label)"
		}
	}
	for _, sel := range loginClassSelectors {
		if visible(pg.Locator(sel).First()) {
			return "login button (class/id)"
		}
	}
	return ""
}

func hasAny(pg playwright.Page, selector string) bool {
	count, err := pg.Locator(selector).Count()
	return err == nil && count > 0
}

func visible(loc playwright.Locator) bool {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(probeTimeout),
	})
	return err == nil
}
