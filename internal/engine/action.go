package engine

import "github.com/polzovatel/uitrace/internal/auth"

// Action types understood by the engine.
const (
	ActionGoto         = "goto"
	ActionClickByText  = "click_by_text"
	ActionFillInputs   = "fill_inputs"
	ActionClickSubmit  = "click_submit"
	ActionWaitForModal = "wait_for_modal"
	ActionCaptureState = "capture_state"
)

// Action is one abstract step of a plan. Only the fields relevant to the
// action type are set.
type Action struct {
	Type    string            `json:"type"`
	URL     string            `json:"url,omitempty"`
	Text    string            `json:"text,omitempty"`
	Inputs  map[string]string `json:"inputs,omitempty"`
	Buttons []string          `json:"buttons,omitempty"`
}

// Result records how a single action resolved. Method names which tier of
// the fallback chain succeeded.
type Result struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Method  string `json:"method,omitempty"`

	URL      string            `json:"url,omitempty"`
	Title    string            `json:"title,omitempty"`
	Text     string            `json:"text,omitempty"`
	Button   string            `json:"button,omitempty"`
	Selector string            `json:"selector,omitempty"`
	Filled   []string          `json:"filled,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	IsSearch bool              `json:"is_search,omitempty"`
	Error    string            `json:"error,omitempty"`

	Auth *auth.State `json:"auth,omitempty"`
}
