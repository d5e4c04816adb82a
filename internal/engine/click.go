package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/uitrace/internal/auth"
	"github.com/polzovatel/uitrace/internal/page"
)

// Section nouns that suggest the click targets a navigation entry, which
// the matcher can resolve from the task instead of blind text search.
var navSectionWords = map[string]bool{
	"projects":  true,
	"issues":    true,
	"tasks":     true,
	"pages":     true,
	"documents": true,
}

// Sidebar and menu containers searched when a plain text match misses.
var sidebarSelectors = []string{
	"nav",
	"aside",
	`[role="navigation"]`,
	`[class*="sidebar" i]`,
	`[class*="nav" i]`,
	`[class*="menu" i]`,
}

const maxClickableScan = 50

// clickByText clicks an element by its visible text, walking a chain of
// strategies from precise to fuzzy. skipAuthCheck suppresses the login
// page guard, useful right after a manual login.
func (e *Engine) clickByText(ctx context.Context, text string, skipAuthCheck bool) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Action: ActionClickByText, Error: err.Error()}
	}

	// A dedicated login page has nothing clickable for the plan. Signal
	// the auth state instead of timing out on every strategy.
	if !skipAuthCheck {
		if st := auth.Detect(e.page); st.IsLoginPage && auth.LoginPathURL(e.page.URL()) {
			return Result{
				Success: false,
				Action:  ActionClickByText,
				Error:   fmt.Sprintf("Element with text '%s' not found - appears to be on login/authentication page", text),
				Auth:    &st,
			}
		}
	}

	// Strategy 1: context-aware navigation. When the plan clicks a section
	// name, the matcher confirms the link really belongs to the task.
	if navSectionWords[strings.ToLower(text)] {
		if link, ok := page.FindMatchingNavigation(e.page, e.task); ok &&
			strings.EqualFold(link.Text, text) {
			if e.clickTextLocator(link.Text) {
				return Result{Success: true, Action: ActionClickByText, Text: link.Text, Method: "context-aware"}
			}
		}
	}

	// Strategy 2: plain text match.
	if e.clickTextLocator(text) {
		return Result{Success: true, Action: ActionClickByText, Text: text, Method: "text-match"}
	}

	// Strategies 3 and 4: accessible roles.
	if e.clickRole(*playwright.AriaRoleButton, text) {
		return Result{Success: true, Action: ActionClickByText, Text: text, Method: "role-button"}
	}
	if e.clickRole(*playwright.AriaRoleLink, text) {
		return Result{Success: true, Action: ActionClickByText, Text: text, Method: "role-link"}
	}

	// Strategy 5: search inside sidebar and menu containers.
	for _, selector := range sidebarSelectors {
		container := e.page.Locator(selector).First()
		if !visible(container, 1000) {
			continue
		}
		loc := container.GetByText(text, playwright.LocatorGetByTextOptions{
			Exact: playwright.Bool(false),
		}).First()
		if !visible(loc, e.cfg.ActionTimeoutMs) {
			continue
		}
		_ = loc.ScrollIntoViewIfNeeded()
		e.page.WaitForTimeout(300)
		if loc.Click() == nil {
			return Result{Success: true, Action: ActionClickByText, Text: text, Method: "sidebar"}
		}
	}

	// Strategy 6: partial match over clickables, single word queries only
	// ("New" should land on "New repository").
	if len(strings.Fields(text)) == 1 {
		clickables := e.page.Locator(`button, a, [role="button"], [role="link"]`)
		count, err := clickables.Count()
		if err == nil {
			if count > maxClickableScan {
				count = maxClickableScan
			}
			for i := 0; i < count; i++ {
				elem := clickables.Nth(i)
				if !visible(elem, 500) {
					continue
				}
				elemText, err := elem.TextContent()
				if err != nil {
					continue
				}
				trimmed := strings.TrimSpace(elemText)
				if trimmed == "" || !strings.Contains(strings.ToLower(trimmed), strings.ToLower(text)) {
					continue
				}
				_ = elem.ScrollIntoViewIfNeeded()
				e.page.WaitForTimeout(300)
				if elem.Click() == nil {
					return Result{Success: true, Action: ActionClickByText, Text: trimmed, Method: "partial-match"}
				}
			}
		}
	}

	st := auth.Detect(e.page)
	errMsg := fmt.Sprintf("Element with text '%s' not found", text)
	if st.IsLoginPage {
		errMsg += " - appears to be on login/authentication page"
	}
	return Result{Success: false, Action: ActionClickByText, Error: errMsg, Auth: &st}
}

func (e *Engine) clickTextLocator(text string) bool {
	loc := e.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(false),
	}).First()
	if !visible(loc, e.cfg.ActionTimeoutMs) {
		return false
	}
	_ = loc.ScrollIntoViewIfNeeded()
	e.page.WaitForTimeout(300)
	return loc.Click() == nil
}

func (e *Engine) clickRole(role playwright.AriaRole, name string) bool {
	loc := e.page.GetByRole(role, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(false),
	}).First()
	if !visible(loc, e.cfg.ActionTimeoutMs) {
		return false
	}
	_ = loc.ScrollIntoViewIfNeeded()
	e.page.WaitForTimeout(300)
	return loc.Click() == nil
}
