// Package page builds ephemeral structural summaries of the live page and
// matches task intent against them. Summaries are recomputed on demand and
// never cached across actions: the underlying page may have mutated.
package page

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

const (
	maxButtons    = 50
	maxNavLinks   = 30
	maxInputs     = 30
	probeTimeout  = 500.0
	shortTimeout  = 100.0
	buttonTargets = `button, input[type="button"], input[type="submit"], a[role="button"]`
)

// ModalSelectors are the container patterns that identify an open modal or
// dialog. Order matters: probes stop at the first visible match.
var ModalSelectors = []string{
	`[role="dialog"]`,
	`.modal`,
	`[class*="modal" i]`,
	`[class*="dialog" i]`,
	`[class*="overlay" i]`,
}

var navContainerSelectors = []string{
	`nav a`,
	`[role="navigation"] a`,
	`aside a`,
	`[class*="sidebar" i] a`,
	`[class*="menu" i] a`,
	`[class*="nav" i] a`,
}

// Button is one visible clickable control.
type Button struct {
	Text      string
	AriaLabel string
	InModal   bool
}

// NavLink is one visible navigation link.
type NavLink struct {
	Text string
}

// Input is one visible form field with its identifying attributes.
type Input struct {
	Type        string
	Name        string
	Placeholder string
	Label       string
}

// Summary is a structural snapshot of the page at the moment of query.
type Summary struct {
	Buttons    []Button
	Navigation []NavLink
	Inputs     []Input
	HasModal   bool
	URL        string
}

// Analyze collects the visible buttons, navigation links and inputs of the
// current page. Scans are bounded; probe failures skip the element.
func Analyze(pg playwright.Page) Summary {
	return Summary{
		Buttons:    collectButtons(pg),
		Navigation: collectNavigation(pg),
		Inputs:     collectInputs(pg),
		HasModal:   HasOpenModal(pg),
		URL:        pg.URL(),
	}
}

// HasOpenModal reports whether any modal-like container is currently visible.
func HasOpenModal(pg playwright.Page) bool {
	for _, sel := range ModalSelectors {
		if visible(pg.Locator(sel).First(), probeTimeout) {
			return true
		}
	}
	return false
}

func collectButtons(pg playwright.Page) []Button {
	var buttons []Button
	loc := pg.Locator(buttonTargets)
	count, err := loc.Count()
	if err != nil {
		return nil
	}
	for i := 0; i < count && i < maxButtons; i++ {
		btn := loc.Nth(i)
		if !visible(btn, probeTimeout) {
			continue
		}
		text := textContent(btn)
		label := attribute(btn, "aria-label")
		display := text
		if display == "" {
			display = label
		}
		if display == "" {
			continue
		}
		buttons = append(buttons, Button{Text: display, AriaLabel: label})
	}
	return buttons
}

// ModalButtons collects the visible buttons scoped to the first open modal,
// flagged InModal. Returns nil when no modal is open.
func ModalButtons(pg playwright.Page) []Button {
	for _, sel := range ModalSelectors {
		modal := pg.Locator(sel).First()
		if !visible(modal, probeTimeout) {
			continue
		}
		var buttons []Button
		loc := modal.Locator(buttonTargets)
		count, err := loc.Count()
		if err != nil {
			return nil
		}
		for i := 0; i < count && i < 20; i++ {
			btn := loc.Nth(i)
			if !visible(btn, probeTimeout) {
				continue
			}
			text := textContent(btn)
			label := attribute(btn, "aria-label")
			display := text
			if display == "" {
				display = label
			}
			if display == "" {
				continue
			}
			buttons = append(buttons, Button{Text: display, AriaLabel: label, InModal: true})
		}
		return buttons
	}
	return nil
}

func collectNavigation(pg playwright.Page) []NavLink {
	var links []NavLink
	seen := make(map[string]bool)
	for _, sel := range navContainerSelectors {
		loc := pg.Locator(sel)
		count, err := loc.Count()
		if err != nil {
			continue
		}
		for i := 0; i < count && len(links) < maxNavLinks; i++ {
			elem := loc.Nth(i)
			if !visible(elem, probeTimeout) {
				continue
			}
			text := textContent(elem)
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			links = append(links, NavLink{Text: text})
		}
	}
	return links
}

func collectInputs(pg playwright.Page) []Input {
	var inputs []Input
	loc := pg.Locator(`input, textarea, [contenteditable="true"]`)
	count, err := loc.Count()
	if err != nil {
		return nil
	}
	for i := 0; i < count && i < maxInputs; i++ {
		inp := loc.Nth(i)
		if !visible(inp, probeTimeout) {
			continue
		}
		typ := attribute(inp, "type")
		if typ == "" {
			typ = "text"
		}
		field := Input{
			Type:        typ,
			Name:        attribute(inp, "name"),
			Placeholder: attribute(inp, "placeholder"),
		}
		if id := attribute(inp, "id"); id != "" {
			label := pg.Locator(`label[for="` + id + `"]`).First()
			if visible(label, shortTimeout) {
				field.Label = textContent(label)
			}
		}
		inputs = append(inputs, field)
	}
	return inputs
}

func visible(loc playwright.Locator, timeoutMs float64) bool {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeoutMs),
	})
	return err == nil
}

func textContent(loc playwright.Locator) string {
	text, err := loc.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func attribute(loc playwright.Locator, name string) string {
	val, err := loc.GetAttribute(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(val)
}
