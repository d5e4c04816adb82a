package page

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Weights is the tunable score table for button matching. The values encode
// product-level judgment calls, so they live in configuration rather than in
// the scoring function.
type Weights struct {
	ActionKeyword int
	ObjectKeyword int
	Combined      int
	InModal       int
	CreateExact   int
	AddPenalty    int
}

// DefaultWeights returns the stock score table.
func DefaultWeights() Weights {
	return Weights{
		ActionKeyword: 10,
		ObjectKeyword: 5,
		Combined:      15,
		InModal:       25,
		CreateExact:   10,
		AddPenalty:    -5,
	}
}

// actionClusters groups the intent verbs a task may carry. A task matching
// any word of a cluster activates the whole cluster for button scoring.
var actionClusters = map[string][]string{
	"create": {"create", "new", "add"},
	"save":   {"save", "update", "edit"},
	"submit": {"submit", "confirm", "send"},
	"delete": {"delete", "remove"},
	"cancel": {"cancel", "close"},
}

var objectNouns = []string{"project", "issue", "task", "page", "item", "note", "card", "document"}

var navCategories = []string{"project", "issue", "task", "page", "document", "database", "team", "settings"}

// ActionKeywords extracts the active intent keywords from the task text.
func ActionKeywords(task string) []string {
	task = strings.ToLower(task)
	var keywords []string
	for _, cluster := range [][]string{
		actionClusters["create"],
		actionClusters["save"],
		actionClusters["submit"],
		actionClusters["delete"],
		actionClusters["cancel"],
	} {
		if containsAny(task, cluster) {
			keywords = append(keywords, cluster...)
		}
	}
	return keywords
}

// ObjectKeywords extracts the object nouns present in the task text.
func ObjectKeywords(task string) []string {
	task = strings.ToLower(task)
	var keywords []string
	for _, obj := range objectNouns {
		if strings.Contains(task, obj) {
			keywords = append(keywords, obj)
		}
	}
	return keywords
}

// ScoreButton computes the relevance of one button for the task. Pure.
func ScoreButton(btn Button, actionKeywords, objectKeywords []string, task string, w Weights) int {
	text := strings.ToLower(btn.Text)
	task = strings.ToLower(task)
	score := 0

	if containsAny(text, actionKeywords) {
		score += w.ActionKeyword
	}
	if containsAny(text, objectKeywords) {
		score += w.ObjectKeyword
	}
	if len(actionKeywords) > 0 && len(objectKeywords) > 0 &&
		containsAny(text, actionKeywords) && containsAny(text, objectKeywords) {
		score += w.Combined
	}
	if btn.InModal {
		score += w.InModal
	}
	if strings.Contains(task, "create") {
		hasCreate := strings.Contains(text, "create")
		hasAdd := strings.Contains(text, "add")
		if hasCreate && !hasAdd {
			score += w.CreateExact
		}
		if hasAdd && !hasCreate {
			score += w.AddPenalty
		}
	}
	return score
}

// MatchButton picks the strictly highest scoring button for the task. Ties
// keep the earlier candidate; zero or negative scores never match. Pure.
func MatchButton(buttons []Button, task string, w Weights) (Button, bool) {
	if len(buttons) == 0 {
		return Button{}, false
	}
	actions := ActionKeywords(task)
	objects := ObjectKeywords(task)

	best := Button{}
	bestScore := 0
	found := false
	for _, btn := range buttons {
		score := ScoreButton(btn, actions, objects, task, w)
		if score > bestScore {
			best = btn
			bestScore = score
			found = true
		}
	}
	return best, found
}

// MatchNavigation finds a navigation link whose text contains one of the
// category nouns present in the task. Pure.
func MatchNavigation(links []NavLink, task string) (NavLink, bool) {
	task = strings.ToLower(task)
	var categories []string
	for _, cat := range navCategories {
		if strings.Contains(task, cat) {
			categories = append(categories, cat)
		}
	}
	if len(categories) == 0 {
		return NavLink{}, false
	}
	for _, link := range links {
		if containsAny(strings.ToLower(link.Text), categories) {
			return link, true
		}
	}
	return NavLink{}, false
}

// MatchInput finds the field matching a requested name, exact first, then
// substring across name/placeholder/label, falling back to the first plain
// text-type input. Pure.
func MatchInput(inputs []Input, field string) (Input, bool) {
	field = strings.ToLower(field)
	for _, inp := range inputs {
		if strings.ToLower(inp.Name) == field ||
			strings.ToLower(inp.Placeholder) == field ||
			strings.ToLower(inp.Label) == field {
			return inp, true
		}
	}
	for _, inp := range inputs {
		if strings.Contains(strings.ToLower(inp.Name), field) ||
			strings.Contains(strings.ToLower(inp.Placeholder), field) ||
			strings.Contains(strings.ToLower(inp.Label), field) {
			return inp, true
		}
	}
	for _, inp := range inputs {
		switch inp.Type {
		case "text", "search", "":
			return inp, true
		}
	}
	return Input{}, false
}

// FindMatchingButton scans the live page and scores its buttons against the
// task. Modal buttons are scored in isolation when a modal is open, which
// combined with the in-modal bonus strongly prefers in-modal actions.
func FindMatchingButton(pg playwright.Page, task string, w Weights) (Button, bool) {
	buttons := ModalButtons(pg)
	if len(buttons) == 0 {
		buttons = collectButtons(pg)
	}
	return MatchButton(buttons, task, w)
}

// FindMatchingNavigation scans the live page for a nav link matching the
// task's category nouns.
func FindMatchingNavigation(pg playwright.Page, task string) (NavLink, bool) {
	return MatchNavigation(collectNavigation(pg), task)
}

// FindMatchingInput scans the live page for a field matching the name.
func FindMatchingInput(pg playwright.Page, field string) (Input, bool) {
	return MatchInput(collectInputs(pg), field)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
