package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/uitrace/internal/page"
)

var cookieConsentSelectors = []string{
	`button:has-text("Accept")`,
	`button:has-text("I agree")`,
	`button:has-text("Accept all")`,
	`[aria-label*="Accept" i]`,
	`[aria-label*="I agree" i]`,
	`button[id*="accept" i]`,
	`button[class*="accept" i]`,
}

var codeEditorSelectors = []string{
	`[contenteditable="true"]`,
	`textarea[class*="editor" i]`,
	`textarea[class*="code" i]`,
	`div[class*="editor" i][contenteditable]`,
	`div[class*="code" i][contenteditable]`,
	`textarea`,
	`[role="textbox"]`,
}

var searchBoxSelectors = []string{
	`input[name="q"]`,
	`input[name="search"]`,
	`input[name="search_query"]`,
	`textarea[name="q"]`,
	`textarea[name="search"]`,
	`input[type="search"]`,
	`input[aria-label*="Search" i]`,
	`input[placeholder*="Search" i]`,
	`input[id*="search" i]`,
	`textarea[aria-label*="Search" i]`,
	`textarea[placeholder*="Search" i]`,
}

func isSearchField(name string) bool {
	switch strings.ToLower(name) {
	case "q", "search", "query":
		return true
	}
	return false
}

func isEditorField(name string) bool {
	switch strings.ToLower(name) {
	case "code", "editor", "solution":
		return true
	}
	return false
}

// fillInputs fills each requested field through a chain of locators:
// analyzer match, special editor and search handling, label, placeholder,
// name, id, and finally any visible text input. The action succeeds when
// at least one field lands.
func (e *Engine) fillInputs(ctx context.Context, inputs map[string]string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Action: ActionFillInputs, Error: err.Error()}
	}

	e.dismissCookieConsent()

	// Map order is random; stable order keeps runs reproducible.
	fields := make([]string, 0, len(inputs))
	for field := range inputs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var filled []string
	errors := make(map[string]string)
	for _, field := range fields {
		if err := e.fillField(field, inputs[field]); err != nil {
			errors[field] = err.Error()
			continue
		}
		filled = append(filled, field)
	}

	isSearch := false
	for _, field := range filled {
		if isSearchField(field) {
			isSearch = true
		}
	}

	result := Result{
		Success:  len(filled) > 0,
		Action:   ActionFillInputs,
		Filled:   filled,
		IsSearch: isSearch,
	}
	if len(errors) > 0 {
		result.Errors = errors
	}
	if len(filled) == 0 {
		result.Error = "No fields filled"
	}
	return result
}

func (e *Engine) fillField(field, value string) error {
	// Analyzer match: resolve the generic field name against the page's
	// actual inputs by name or label.
	if inp, ok := page.FindMatchingInput(e.page, field); ok {
		if inp.Name != "" {
			sel := fmt.Sprintf(`input[name="%s"], textarea[name="%s"]`, inp.Name, inp.Name)
			if e.fillLocator(e.page.Locator(sel).First(), value) {
				return nil
			}
		}
		if inp.Label != "" {
			loc := e.page.GetByLabel(inp.Label, playwright.PageGetByLabelOptions{
				Exact: playwright.Bool(false),
			}).First()
			if e.fillLocator(loc, value) {
				return nil
			}
		}
	}

	if isEditorField(field) {
		for _, selector := range codeEditorSelectors {
			loc := e.page.Locator(selector).First()
			if !visible(loc, 2000) {
				continue
			}
			_ = loc.Click()
			_ = loc.Clear()
			if loc.Fill(value) == nil {
				return nil
			}
		}
	}

	if isSearchField(field) {
		for _, selector := range searchBoxSelectors {
			if e.fillLocator(e.page.Locator(selector).First(), value) {
				return nil
			}
		}
	}

	label := e.page.GetByLabel(field, playwright.PageGetByLabelOptions{
		Exact: playwright.Bool(false),
	}).First()
	if e.fillLocator(label, value) {
		return nil
	}

	placeholder := e.page.GetByPlaceholder(field, playwright.PageGetByPlaceholderOptions{
		Exact: playwright.Bool(false),
	}).First()
	if e.fillLocator(placeholder, value) {
		return nil
	}

	nameSel := fmt.Sprintf(`input[name*="%s" i], textarea[name*="%s" i]`, field, field)
	if e.fillLocator(e.page.Locator(nameSel).First(), value) {
		return nil
	}

	idSel := fmt.Sprintf(`input[id*="%s" i], textarea[id*="%s" i]`, field, field)
	if e.fillLocator(e.page.Locator(idSel).First(), value) {
		return nil
	}

	generic := e.page.Locator(`input[type="text"], input[type="search"], textarea`).First()
	if e.fillLocator(generic, value) {
		return nil
	}

	return fmt.Errorf("Field not found")
}

func (e *Engine) fillLocator(loc playwright.Locator, value string) bool {
	if !visible(loc, 2000) {
		return false
	}
	_ = loc.Click()
	return loc.Fill(value) == nil
}

// dismissCookieConsent clicks through a consent banner if one covers the
// page. Best effort; absence is the normal case.
func (e *Engine) dismissCookieConsent() {
	for _, selector := range cookieConsentSelectors {
		loc := e.page.Locator(selector).First()
		if !visible(loc, 1000) {
			continue
		}
		if loc.Click() == nil {
			e.page.WaitForTimeout(500)
			return
		}
	}
}
