package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/polzovatel/uitrace/internal/engine"
)

// ParseActions extracts a plan from raw model output. It accepts a bare
// JSON array, an object wrapping the array under "actions"/"plan"/"steps",
// or either of those inside a fenced code block.
func ParseActions(text string) ([]engine.Action, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	if actions, err := decodeActions(text); err == nil {
		return actions, nil
	}

	if fenced := stripFence(text); fenced != "" {
		if actions, err := decodeActions(fenced); err == nil {
			return actions, nil
		}
	}

	// Last resort: walk out the first balanced JSON object or array.
	if obj, err := extractJSON(text); err == nil {
		return decodeActions(obj)
	}
	return nil, fmt.Errorf("no action plan found in response")
}

func decodeActions(text string) ([]engine.Action, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "[") {
		var actions []engine.Action
		if err := json.Unmarshal([]byte(text), &actions); err != nil {
			return nil, err
		}
		return validate(actions)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, err
	}
	for _, key := range []string{"actions", "plan", "steps"} {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		var actions []engine.Action
		if err := json.Unmarshal(raw, &actions); err != nil {
			return nil, err
		}
		return validate(actions)
	}
	return nil, fmt.Errorf("no actions key")
}

func validate(actions []engine.Action) ([]engine.Action, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("plan is empty")
	}
	for i, a := range actions {
		if a.Type == "" {
			return nil, fmt.Errorf("action %d has no type", i)
		}
	}
	return actions, nil
}

// stripFence returns the body of the first ``` fenced block, or "".
func stripFence(text string) string {
	start := strings.Index(text, "```")
	if start == -1 {
		return ""
	}
	body := text[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		// Drop the language tag line, e.g. "json".
		first := strings.TrimSpace(body[:nl])
		if !strings.HasPrefix(first, "{") && !strings.HasPrefix(first, "[") {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, "```")
	if end == -1 {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[:end])
}

// extractJSON finds the first balanced top level JSON object or array,
// ignoring braces inside string literals.
func extractJSON(text string) (string, error) {
	depth := 0
	start := -1
	inStr := false
	esc := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if esc {
			esc = false
			continue
		}
		switch ch {
		case '\\':
			if inStr {
				esc = true
			}
		case '"':
			inStr = !inStr
		case '{', '[':
			if !inStr {
				if depth == 0 {
					start = i
				}
				depth++
			}
		case '}', ']':
			if !inStr && depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("json not found")
}
