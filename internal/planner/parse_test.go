package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/uitrace/internal/engine"
)

func TestParseActionsDirectObject(t *testing.T) {
	text := `{"actions": [
		{"type": "goto", "url": "https://linear.app"},
		{"type": "fill_inputs", "inputs": {"name": "MyApp"}},
		{"type": "capture_state"}
	]}`

	actions, err := ParseActions(text)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, engine.ActionGoto, actions[0].Type)
	assert.Equal(t, "https://linear.app", actions[0].URL)
	assert.Equal(t, map[string]string{"name": "MyApp"}, actions[1].Inputs)
	assert.Equal(t, engine.ActionCaptureState, actions[2].Type)
}

func TestParseActionsBareArray(t *testing.T) {
	actions, err := ParseActions(`[{"type": "goto", "url": "https://example.com"}]`)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "https://example.com", actions[0].URL)
}

func TestParseActionsAlternateKeys(t *testing.T) {
	for _, key := range []string{"plan", "steps"} {
		actions, err := ParseActions(`{"` + key + `": [{"type": "capture_state"}]}`)
		require.NoError(t, err, key)
		assert.Len(t, actions, 1)
	}
}

func TestParseActionsFencedBlock(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"actions\": [{\"type\": \"goto\", \"url\": \"https://a.b\"}]}\n```\nDone."

	actions, err := ParseActions(text)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "https://a.b", actions[0].URL)
}

func TestParseActionsEmbeddedJSON(t *testing.T) {
	text := `Sure! The plan is {"actions": [{"type": "click_by_text", "text": "Create {x}"}]} as requested.`

	actions, err := ParseActions(text)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Create {x}", actions[0].Text)
}

func TestParseActionsRejectsGarbage(t *testing.T) {
	for _, text := range []string{
		"",
		"no json here",
		`{"actions": []}`,
		`{"other": [{"type": "goto"}]}`,
		`{"actions": [{"url": "https://no-type.example"}]}`,
	} {
		_, err := ParseActions(text)
		assert.Error(t, err, "input: %q", text)
	}
}

func TestHeuristicLinearProject(t *testing.T) {
	actions := Heuristic("create a project in linear")
	require.NotEmpty(t, actions)
	assert.Equal(t, engine.ActionGoto, actions[0].Type)
	assert.Equal(t, "https://linear.app", actions[0].URL)
	assert.Equal(t, engine.ActionCaptureState, actions[len(actions)-1].Type)

	var hasModal, hasSubmit bool
	for _, a := range actions {
		hasModal = hasModal || a.Type == engine.ActionWaitForModal
		hasSubmit = hasSubmit || a.Type == engine.ActionClickSubmit
	}
	assert.True(t, hasModal)
	assert.True(t, hasSubmit)
}

func TestHeuristicGoogleSearch(t *testing.T) {
	actions := Heuristic("search on google for rust tutorials")
	require.NotEmpty(t, actions)
	assert.Equal(t, "https://www.google.com", actions[0].URL)

	var query string
	for _, a := range actions {
		if a.Type == engine.ActionFillInputs {
			query = a.Inputs["q"]
		}
	}
	assert.Equal(t, "rust tutorials", query)
}

func TestHeuristicGenericFallback(t *testing.T) {
	actions := Heuristic("do something unusual")
	require.Len(t, actions, 2)
	assert.Equal(t, engine.ActionGoto, actions[0].Type)
	assert.Equal(t, engine.ActionCaptureState, actions[1].Type)
}
