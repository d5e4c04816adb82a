// Package planner turns a natural language task into a sequence of
// abstract browser actions, using an LLM when one is configured and
// falling back to rule based plans otherwise.
package planner

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/polzovatel/uitrace/internal/config"
	"github.com/polzovatel/uitrace/internal/engine"
	"github.com/polzovatel/uitrace/internal/llm"
)

// Plan generates a plan for the task. A failed or unconfigured LLM never
// fails the run; the heuristic plan is used instead.
func Plan(ctx context.Context, task string, cfg *config.Config, logger zerolog.Logger) []engine.Action {
	log := logger.With().Str("comp", "planner").Logger()

	if actions := planWithLLM(ctx, task, cfg, log); len(actions) > 0 {
		log.Info().Int("actions", len(actions)).Msg("plan generated by LLM")
		return actions
	}

	actions := Heuristic(task)
	log.Info().Int("actions", len(actions)).Msg("plan generated by heuristics")
	return actions
}

func planWithLLM(ctx context.Context, task string, cfg *config.Config, log zerolog.Logger) []engine.Action {
	if cfg.LLM.Provider == "none" {
		return nil
	}

	client, err := llm.NewClient(cfg.LLM.Provider, log)
	if err != nil {
		log.Warn().Err(err).Msg("LLM unavailable, falling back to heuristics")
		return nil
	}

	resp, err := client.Generate(ctx, llm.Request{
		System: "You generate JSON objects with an 'actions' array of UI actions. Always return valid JSON only.",
		Messages: []llm.Message{
			{Role: "user", Content: planningPrompt(task)},
		},
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   1000,
	})
	if err != nil {
		log.Warn().Err(err).Str("model", client.Name()).Msg("LLM planning failed")
		return nil
	}

	actions, err := ParseActions(resp.Text)
	if err != nil {
		log.Warn().Err(err).Msg("could not parse LLM plan")
		return nil
	}
	return actions
}

// Heuristic builds a plan from rules for a few well known flows, with a
// generic navigate-and-capture fallback.
func Heuristic(task string) []engine.Action {
	lower := strings.ToLower(task)

	switch {
	case strings.Contains(lower, "linear"):
		if strings.Contains(lower, "create") && strings.Contains(lower, "project") {
			return []engine.Action{
				{Type: engine.ActionGoto, URL: "https://linear.app"},
				{Type: engine.ActionClickByText, Text: "Create"},
				{Type: engine.ActionWaitForModal},
				{Type: engine.ActionFillInputs, Inputs: map[string]string{"name": "My Project"}},
				{Type: engine.ActionClickSubmit},
				{Type: engine.ActionCaptureState},
			}
		}
		if strings.Contains(lower, "create") && strings.Contains(lower, "issue") {
			return []engine.Action{
				{Type: engine.ActionGoto, URL: "https://linear.app"},
				{Type: engine.ActionClickByText, Text: "New"},
				{Type: engine.ActionWaitForModal},
				{Type: engine.ActionFillInputs, Inputs: map[string]string{"title": "New Issue"}},
				{Type: engine.ActionClickSubmit},
				{Type: engine.ActionCaptureState},
			}
		}

	case strings.Contains(lower, "notion"):
		if strings.Contains(lower, "filter") && strings.Contains(lower, "database") {
			return []engine.Action{
				{Type: engine.ActionGoto, URL: "https://notion.so"},
				{Type: engine.ActionClickByText, Text: "Filter"},
				{Type: engine.ActionWaitForModal},
				{Type: engine.ActionCaptureState},
			}
		}
		if strings.Contains(lower, "create") && strings.Contains(lower, "page") {
			return []engine.Action{
				{Type: engine.ActionGoto, URL: "https://notion.so"},
				{Type: engine.ActionClickByText, Text: "New"},
				{Type: engine.ActionWaitForModal},
				{Type: engine.ActionFillInputs, Inputs: map[string]string{"title": "New Page"}},
				{Type: engine.ActionClickSubmit},
				{Type: engine.ActionCaptureState},
			}
		}

	case strings.Contains(lower, "google") && strings.Contains(lower, "search"):
		query := searchQuery(lower)
		return []engine.Action{
			{Type: engine.ActionGoto, URL: "https://www.google.com"},
			{Type: engine.ActionCaptureState},
			{Type: engine.ActionFillInputs, Inputs: map[string]string{"q": query, "search": query}},
			{Type: engine.ActionClickSubmit},
			{Type: engine.ActionCaptureState},
		}
	}

	return []engine.Action{
		{Type: engine.ActionGoto, URL: "https://linear.app"},
		{Type: engine.ActionCaptureState},
	}
}

// searchQuery pulls the query text out of a "search for X" style task.
func searchQuery(lower string) string {
	const fallback = "Python programming"

	if idx := strings.LastIndex(lower, "for"); idx != -1 {
		if q := strings.TrimSpace(lower[idx+len("for"):]); q != "" {
			return q
		}
	}
	if idx := strings.LastIndex(lower, "search"); idx != -1 {
		if q := strings.TrimSpace(lower[idx+len("search"):]); len(q) > 2 {
			return q
		}
	}
	return fallback
}
