package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/uitrace/internal/capture"
	"github.com/polzovatel/uitrace/internal/config"
)

// fakePage overrides the handful of playwright.Page methods the run loop
// touches for capture-only plans. Anything else panics, which is the point:
// these tests must not reach for a live browser.
type fakePage struct {
	playwright.Page
	contentCalls int
	titleCalls   int
	titleFailOn  int
}

func (f *fakePage) Content() (string, error) {
	f.contentCalls++
	return fmt.Sprintf("<html><body>state %d</body></html>", f.contentCalls), nil
}

func (f *fakePage) URL() string { return "https://example.com/app" }

func (f *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	png := []byte("png")
	if len(options) > 0 && options[0].Path != nil {
		if err := os.WriteFile(*options[0].Path, png, 0o644); err != nil {
			return nil, err
		}
	}
	return png, nil
}

func (f *fakePage) Title() (string, error) {
	f.titleCalls++
	if f.titleCalls == f.titleFailOn {
		return "", errors.New("page crashed")
	}
	return "App", nil
}

func (f *fakePage) WaitForTimeout(timeout float64) {}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	return New(nil, nil, &cfg, "create a project", nil, zerolog.Nop())
}

func TestExecuteUnknownAction(t *testing.T) {
	e := newTestEngine(t)

	res := e.Execute(context.Background(), Action{Type: "teleport"})
	assert.False(t, res.Success)
	assert.Equal(t, "teleport", res.Action)
	assert.Equal(t, "Unknown action type: teleport", res.Error)
}

func TestExecuteCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, typ := range []string{
		ActionGoto, ActionClickByText, ActionFillInputs,
		ActionClickSubmit, ActionWaitForModal, ActionCaptureState,
	} {
		res := e.Execute(ctx, Action{Type: typ})
		assert.False(t, res.Success, typ)
		assert.Equal(t, context.Canceled.Error(), res.Error, typ)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The ctx guard fires before the page or store is touched, so nil
	// dependencies are safe here.
	results, err := e.Run(ctx, []Action{{Type: ActionCaptureState}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestRunOneResultPerAction(t *testing.T) {
	cfg := config.DefaultConfig()
	store, err := capture.NewStore(t.TempDir(), "create a project", zerolog.Nop())
	require.NoError(t, err)
	fp := &fakePage{titleFailOn: 2} // second Title call fails the middle capture_state
	e := New(fp, store, &cfg, "create a project", nil, zerolog.Nop())

	actions := []Action{
		{Type: ActionCaptureState},
		{Type: "hover"},
		{Type: "Capture_State"},
		{Type: ActionCaptureState},
	}
	results, err := e.Run(context.Background(), actions)
	require.NoError(t, err)

	// One result per action, in plan order, and the failures in the middle
	// never stop the remaining actions.
	require.Len(t, results, len(actions))
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, "Unknown action type: hover", results[1].Error)
	assert.False(t, results[2].Success)
	assert.Equal(t, "page crashed", results[2].Error)
	assert.True(t, results[3].Success)
	assert.Equal(t, []string{ActionCaptureState, "hover", ActionCaptureState, ActionCaptureState},
		[]string{results[0].Action, results[1].Action, results[2].Action, results[3].Action})

	// Mixed-case plan entries are normalized once in the loop; the stored
	// step labels reflect the lowercase type.
	var steps []string
	for _, rec := range store.Summary().States {
		steps = append(steps, rec.Step)
	}
	assert.Equal(t, []string{"initial", "capture-state", "hover", "capture-state", "capture-state"}, steps)
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(errors.New("playwright: Timeout 30000ms exceeded")))
	assert.True(t, isTimeout(errors.New("navigation timeout of 10s")))
	assert.False(t, isTimeout(errors.New("net::ERR_CONNECTION_REFUSED")))
	assert.False(t, isTimeout(nil))
}

func TestRootLike(t *testing.T) {
	assert.True(t, rootLike("https://example.com", 3))
	assert.True(t, rootLike("https://example.com/", 3))
	assert.False(t, rootLike("https://example.com/a/b", 3))
	assert.False(t, rootLike("https://example.com/settings/profile", 3))
}

func TestIsCancelText(t *testing.T) {
	for _, text := range []string{"Cancel", "Close dialog", "Dismiss", "×", "Go back"} {
		assert.True(t, isCancelText(text), text)
	}
	for _, text := range []string{"Create Project", "Save", "Submit"} {
		assert.False(t, isCancelText(text), text)
	}
}

func TestFieldClassifiers(t *testing.T) {
	assert.True(t, isSearchField("q"))
	assert.True(t, isSearchField("Search"))
	assert.True(t, isSearchField("query"))
	assert.False(t, isSearchField("name"))

	assert.True(t, isEditorField("code"))
	assert.True(t, isEditorField("Editor"))
	assert.True(t, isEditorField("solution"))
	assert.False(t, isEditorField("title"))
}

func TestDefaultButtonsUsedWhenUnset(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Contains(t, cfg.CommonButtonText, "Create")
	assert.Contains(t, cfg.CommonButtonText, "Google Search")
}
