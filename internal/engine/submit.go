package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/uitrace/internal/page"
)

var submitKeywords = []string{"Create", "Save", "Submit", "Confirm", "Add", "New"}

var cancelWords = []string{"cancel", "close", "dismiss", "×", "back"}

// headerAncestorExpr resolves truthy when the element sits inside a
// header, nav, banner, or search container.
const headerAncestorExpr = `el => !!el.closest('header, nav, [role="banner"], [class*="header" i], [class*="nav" i], [class*="search" i]')`

func isCancelText(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range cancelWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// inHeader reports whether the element lives in a header or search area.
// Those buttons are never the submit target of a form.
func (e *Engine) inHeader(loc playwright.Locator) bool {
	val, err := loc.Evaluate(headerAncestorExpr, nil)
	if err != nil {
		return false
	}
	b, ok := val.(bool)
	return ok && b
}

// clickSubmit commits the current form. Search boxes are handled first by
// pressing Enter; otherwise the matcher and a series of widening scans
// look for the right button, preferring buttons inside an open modal and
// skipping header and cancel buttons.
func (e *Engine) clickSubmit(ctx context.Context, buttonTexts []string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Action: ActionClickSubmit, Error: err.Error()}
	}

	// Tier 0: search boxes submit with Enter, not a button.
	if res, ok := e.submitSearchEnter(); ok {
		return res
	}

	// Let the page or modal settle before scanning for buttons.
	e.page.WaitForTimeout(1000)

	// Tier 1: task-aware button scoring, modal buttons first.
	if btn, ok := page.FindMatchingButton(e.page, e.task, e.weights); ok {
		if e.clickScoredButton(btn) {
			return Result{Success: true, Action: ActionClickSubmit, Button: btn.Text, Method: "context-aware"}
		}
	}

	// Tier 2: the configured candidate texts, skipping header buttons.
	for _, text := range buttonTexts {
		if res, ok := e.submitByText(text); ok {
			return res
		}
	}

	// Tier 3: any action button inside an open modal.
	if page.HasOpenModal(e.page) {
		if res, ok := e.submitInModal(); ok {
			return res
		}
	}

	// Tier 4: page-wide keyword scan, non-header buttons first.
	if res, ok := e.submitByKeyword(); ok {
		return res
	}

	// Tier 5: a literal submit-typed control.
	loc := e.page.Locator(`input[type="submit"], button[type="submit"]`).First()
	if visible(loc, 2000) {
		_ = loc.ScrollIntoViewIfNeeded()
		e.page.WaitForTimeout(500)
		if visible(loc, 1000) && loc.Click() == nil {
			return Result{Success: true, Action: ActionClickSubmit, Button: "submit button", Method: "submit-type"}
		}
	}

	return Result{Success: false, Action: ActionClickSubmit, Error: "No submit button found"}
}

// submitSearchEnter presses Enter on a search box that was just filled or
// holds focus.
func (e *Engine) submitSearchEnter() (Result, bool) {
	for _, selector := range searchBoxSelectors {
		loc := e.page.Locator(selector).First()
		if !visible(loc, 1000) {
			continue
		}
		value, err := loc.InputValue()
		if err != nil || value == "" {
			continue
		}
		if loc.Press("Enter") == nil {
			return Result{Success: true, Action: ActionClickSubmit, Button: "Enter key (search)", Method: "search-enter"}, true
		}
	}

	// A focused input with search-ish attributes counts too.
	focused := e.page.Locator("input:focus, textarea:focus").First()
	if visible(focused, 500) {
		typ, _ := focused.GetAttribute("type")
		name, _ := focused.GetAttribute("name")
		id, _ := focused.GetAttribute("id")
		placeholder, _ := focused.GetAttribute("placeholder")
		ariaLabel, _ := focused.GetAttribute("aria-label")
		isSearch := typ == "search" ||
			strings.Contains(strings.ToLower(name), "search") || strings.Contains(strings.ToLower(name), "q") ||
			strings.Contains(strings.ToLower(id), "search") ||
			strings.Contains(strings.ToLower(placeholder), "search") ||
			strings.Contains(strings.ToLower(ariaLabel), "search")
		if isSearch && focused.Press("Enter") == nil {
			return Result{Success: true, Action: ActionClickSubmit, Button: "Enter key (focused search)", Method: "search-enter"}, true
		}
	}

	return Result{}, false
}

// clickScoredButton clicks the matcher's pick, trying modal scoped
// locators before page wide ones when the button sits in a modal.
func (e *Engine) clickScoredButton(btn page.Button) bool {
	var locators []playwright.Locator
	if btn.InModal {
		modalButtons := e.page.Locator(`[role="dialog"] button, .modal button, [class*="modal" i] button, [class*="dialog" i] button`)
		locators = append(locators,
			modalButtons.Filter(playwright.LocatorFilterOptions{HasText: btn.Text}).First(),
			e.page.Locator(`[role="dialog"]`).GetByRole(*playwright.AriaRoleButton, playwright.LocatorGetByRoleOptions{
				Name:  btn.Text,
				Exact: playwright.Bool(false),
			}).First(),
		)
	}
	locators = append(locators,
		e.page.GetByText(btn.Text, playwright.PageGetByTextOptions{Exact: playwright.Bool(false)}).First(),
		e.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name:  btn.Text,
			Exact: playwright.Bool(false),
		}).First(),
		e.page.Locator(`button, input[type="button"], input[type="submit"]`).
			Filter(playwright.LocatorFilterOptions{HasText: btn.Text}).First(),
	)

	for _, loc := range locators {
		if !visible(loc, 2000) {
			continue
		}
		_ = loc.ScrollIntoViewIfNeeded()
		e.page.WaitForTimeout(500)
		if visible(loc, 1000) && loc.Click() == nil {
			return true
		}
	}
	return false
}

// submitByText clicks a button with the given text outside the header.
func (e *Engine) submitByText(text string) (Result, bool) {
	candidates := e.page.Locator(fmt.Sprintf(`button:has-text("%s"), [role="button"]:has-text("%s")`, text, text))
	count, err := candidates.Count()
	if err == nil {
		for i := 0; i < count; i++ {
			btn := candidates.Nth(i)
			if !visible(btn, 1000) || e.inHeader(btn) {
				continue
			}
			_ = btn.ScrollIntoViewIfNeeded()
			e.page.WaitForTimeout(500)
			if visible(btn, 1000) && btn.Click() == nil {
				return Result{Success: true, Action: ActionClickSubmit, Button: text, Method: "filtered-match"}, true
			}
		}
	}

	role := e.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
		Name:  text,
		Exact: playwright.Bool(false),
	}).First()
	if visible(role, 2000) && !e.inHeader(role) {
		_ = role.ScrollIntoViewIfNeeded()
		e.page.WaitForTimeout(500)
		if visible(role, 1000) && role.Click() == nil {
			return Result{Success: true, Action: ActionClickSubmit, Button: text, Method: "role-match"}, true
		}
	}
	return Result{}, false
}

// submitInModal clicks an action button inside the open modal, keyword
// matches first, then any non-cancel button.
func (e *Engine) submitInModal() (Result, bool) {
	for _, keyword := range submitKeywords {
		selectors := []string{
			fmt.Sprintf(`[role="dialog"] button:has-text("%s")`, keyword),
			fmt.Sprintf(`.modal button:has-text("%s")`, keyword),
			fmt.Sprintf(`[class*="modal" i] button:has-text("%s")`, keyword),
			fmt.Sprintf(`[class*="dialog" i] button:has-text("%s")`, keyword),
		}
		for _, selector := range selectors {
			if res, ok := e.clickFirstActionButton(e.page.Locator(selector), "modal-keyword"); ok {
				return res, true
			}
		}
	}

	all := e.page.Locator(`[role="dialog"] button, .modal button, [class*="modal" i] button`)
	if res, ok := e.clickFirstActionButton(all, "modal-fallback"); ok {
		return res, true
	}
	return Result{}, false
}

// submitByKeyword scans clickables page-wide for action keywords. The
// first pass skips header buttons; the second takes anything.
func (e *Engine) submitByKeyword() (Result, bool) {
	buttons := e.page.Locator(`button, input[type="button"], input[type="submit"], a[role="button"]`)
	count, err := buttons.Count()
	if err != nil {
		return Result{}, false
	}
	if count > maxClickableScan {
		count = maxClickableScan
	}

	for _, keyword := range submitKeywords {
		for _, skipHeader := range []bool{true, false} {
			method := "keyword-match"
			if !skipHeader {
				method = "keyword-match-fallback"
			}
			for i := 0; i < count; i++ {
				btn := buttons.Nth(i)
				if !visible(btn, 500) {
					continue
				}
				if skipHeader && e.inHeader(btn) {
					continue
				}
				text, err := btn.TextContent()
				if err != nil {
					continue
				}
				trimmed := strings.TrimSpace(text)
				if trimmed == "" || isCancelText(trimmed) {
					continue
				}
				if !strings.Contains(strings.ToLower(trimmed), strings.ToLower(keyword)) {
					continue
				}
				_ = btn.ScrollIntoViewIfNeeded()
				e.page.WaitForTimeout(500)
				if visible(btn, 1000) && btn.Click() == nil {
					return Result{Success: true, Action: ActionClickSubmit, Button: trimmed, Method: method}, true
				}
			}
		}
	}
	return Result{}, false
}

func (e *Engine) clickFirstActionButton(buttons playwright.Locator, method string) (Result, bool) {
	count, err := buttons.Count()
	if err != nil {
		return Result{}, false
	}
	for i := 0; i < count; i++ {
		btn := buttons.Nth(i)
		if !visible(btn, 1000) {
			continue
		}
		text, err := btn.TextContent()
		if err != nil {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || isCancelText(trimmed) {
			continue
		}
		_ = btn.ScrollIntoViewIfNeeded()
		e.page.WaitForTimeout(500)
		if visible(btn, 1000) && btn.Click() == nil {
			return Result{Success: true, Action: ActionClickSubmit, Button: trimmed, Method: method}, true
		}
	}
	return Result{}, false
}
