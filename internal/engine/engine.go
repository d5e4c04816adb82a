// Package engine executes abstract browser actions against a live page.
// Every action resolves through a chain of fallback strategies, so a plan
// written without knowledge of the page still has a good chance to land.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/polzovatel/uitrace/internal/auth"
	"github.com/polzovatel/uitrace/internal/capture"
	"github.com/polzovatel/uitrace/internal/config"
	"github.com/polzovatel/uitrace/internal/page"
)

// PromptFunc asks the human operator for input, used when a login gate
// pauses the run. The returned string is the typed reply.
type PromptFunc func(ctx context.Context, message string) (string, error)

// Engine drives a page through a plan of actions, capturing deduplicated
// state snapshots along the way.
type Engine struct {
	page    playwright.Page
	store   *capture.Store
	cfg     *config.Config
	prompt  PromptFunc
	logger  zerolog.Logger
	task    string
	weights page.Weights
}

func New(pg playwright.Page, store *capture.Store, cfg *config.Config, task string, prompt PromptFunc, logger zerolog.Logger) *Engine {
	return &Engine{
		page:    pg,
		store:   store,
		cfg:     cfg,
		prompt:  prompt,
		logger:  logger.With().Str("comp", "engine").Logger(),
		task:    task,
		weights: cfg.Matcher.Weights(),
	}
}

// Run executes the plan sequentially. Failed actions do not stop the run;
// each result records its own outcome. The returned error only reports
// cancellation.
func (e *Engine) Run(ctx context.Context, actions []Action) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Info().Int("actions", len(actions)).Msg("executing plan")

	if _, err := e.store.CaptureInitial(e.page); err != nil {
		e.logger.Warn().Err(err).Msg("initial capture failed")
	}

	results := make([]Result, 0, len(actions))
	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		// Normalize once so the checkpoint and quiesce gates below see the
		// same type Execute dispatches on.
		action.Type = strings.ToLower(action.Type)
		e.logger.Info().
			Int("step", i+1).
			Int("total", len(actions)).
			Str("type", action.Type).
			Msg("action")

		result := e.Execute(ctx, action)
		results = append(results, result)

		if action.Type == ActionGoto {
			if err := e.authCheckpoint(ctx); err != nil {
				return results, err
			}
		}

		if result.Success {
			e.logger.Info().Str("type", action.Type).Str("method", result.Method).Msg("action succeeded")
		} else {
			e.logger.Warn().Str("type", action.Type).Str("error", result.Error).Msg("action failed")
		}

		switch action.Type {
		case ActionGoto, ActionClickByText, ActionClickSubmit, ActionFillInputs:
			e.quiesce()
		}
		e.page.WaitForTimeout(1000)

		step := strings.ReplaceAll(action.Type, "_", "-")
		if _, err := e.store.CaptureIfChanged(e.page, step, false); err != nil {
			e.logger.Warn().Err(err).Str("step", step).Msg("capture failed")
		}
	}
	return results, nil
}

// Execute dispatches one action. Unknown types fail without touching the
// page.
func (e *Engine) Execute(ctx context.Context, action Action) Result {
	switch strings.ToLower(action.Type) {
	case ActionGoto:
		return e.execGoto(ctx, action.URL)
	case ActionClickByText:
		return e.clickByText(ctx, action.Text, false)
	case ActionFillInputs:
		return e.fillInputs(ctx, action.Inputs)
	case ActionClickSubmit:
		buttons := action.Buttons
		if len(buttons) == 0 {
			buttons = e.cfg.CommonButtonText
		}
		return e.clickSubmit(ctx, buttons)
	case ActionWaitForModal:
		return e.waitForModal(ctx)
	case ActionCaptureState:
		return e.captureState(ctx)
	default:
		return Result{
			Success: false,
			Action:  action.Type,
			Error:   fmt.Sprintf("Unknown action type: %s", action.Type),
		}
	}
}

func (e *Engine) execGoto(ctx context.Context, url string) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Action: ActionGoto, Error: err.Error()}
	}
	_, err := e.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(e.cfg.NavTimeoutMs),
	})
	if err != nil {
		if isTimeout(err) {
			return Result{Success: false, Action: ActionGoto, Error: "Navigation timeout"}
		}
		return Result{Success: false, Action: ActionGoto, Error: err.Error()}
	}
	return Result{Success: true, Action: ActionGoto, URL: url}
}

func (e *Engine) waitForModal(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Action: ActionWaitForModal, Error: err.Error()}
	}
	for _, selector := range page.ModalSelectors {
		loc := e.page.Locator(selector).First()
		if err := loc.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateVisible,
			Timeout: playwright.Float(2000),
		}); err == nil {
			return Result{Success: true, Action: ActionWaitForModal, Selector: selector}
		}
	}
	return Result{Success: false, Action: ActionWaitForModal, Error: "No modal found"}
}

func (e *Engine) captureState(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Result{Success: false, Action: ActionCaptureState, Error: err.Error()}
	}
	title, err := e.page.Title()
	if err != nil {
		return Result{Success: false, Action: ActionCaptureState, Error: err.Error()}
	}
	return Result{Success: true, Action: ActionCaptureState, URL: e.page.URL(), Title: title}
}

// authCheckpoint runs after every navigation. When the page looks like a
// login gate it blocks on the operator prompt, then re-checks once and
// records the post-login state.
func (e *Engine) authCheckpoint(ctx context.Context) error {
	// Give slow SPAs time to render before classifying the page.
	e.page.WaitForTimeout(5000)
	_ = e.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(10000),
	})
	e.page.WaitForTimeout(2000)

	st := auth.Detect(e.page)
	should := (e.cfg.Auth.PromptOnLoginPage && (st.IsLoginPage || st.RequiresLogin)) ||
		(e.cfg.Auth.PromptOnLoginButton && st.HasLoginButton && rootLike(st.URL, e.cfg.Auth.RootPathDepth))
	if !should {
		return nil
	}

	e.logger.Info().
		Str("url", st.URL).
		Str("login_button", st.LoginButtonText).
		Bool("is_login_page", st.IsLoginPage).
		Msg("login gate detected, waiting for operator")

	message := "Login required at " + st.URL
	if st.HasLoginButton {
		message += " (found button: " + st.LoginButtonText + ")"
	}
	message += ". Log in in the browser window, then press ENTER to continue."

	if _, err := e.prompt(ctx, message); err != nil {
		return err
	}

	e.page.WaitForTimeout(3000)
	st = auth.Detect(e.page)
	if st.RequiresLogin {
		e.logger.Warn().Str("url", st.URL).Msg("page still looks like a login gate, continuing anyway")
	} else {
		e.logger.Info().Msg("login detected, continuing")
	}

	if _, err := e.store.CaptureIfChanged(e.page, "after-login", true); err != nil {
		e.logger.Warn().Err(err).Msg("post-login capture failed")
	}
	return nil
}

// quiesce waits for network idle after actions that mutate the page. A
// timeout here is normal on chatty pages and is not an error.
func (e *Engine) quiesce() {
	_ = e.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(e.cfg.QuiesceTimeoutMs),
	})
}

// rootLike reports whether the URL points at or near the site root, e.g.
// https://example.com or https://example.com/home.
func rootLike(url string, depth int) bool {
	return strings.Count(url, "/") <= depth
}

func isTimeout(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// visible probes a locator for visibility within the timeout.
func visible(loc playwright.Locator, timeoutMs float64) bool {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeoutMs),
	})
	return err == nil
}
