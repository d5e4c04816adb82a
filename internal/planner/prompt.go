package planner

import "fmt"

// planningPrompt builds the instruction for the planning model. The model
// must answer with a JSON object holding an "actions" array of steps the
// engine understands.
func planningPrompt(task string) string {
	return fmt.Sprintf(`You are an expert UI automation planner. Break down the user task into a sequence of SIMPLE, ROBUST browser actions.

TASK: %s

Before generating actions, analyze the task:
1. Break it into sequential sub-goals. Each page or state transition is a sub-goal.
2. Track the page flow: after a search you are on a results page and must click a result; after filling a form you must submit it.
3. Do not skip navigation steps. If the task mentions a category (project, issue, task, page), navigate to that section first. The Create button may not be on the homepage.
4. Use the ACTUAL visible text for clicks, not generic words.

AVAILABLE ACTION TYPES:

1. goto: Navigate to a URL. Extract or infer the website URL from the task.
   {"type": "goto", "url": "https://example.com"}

2. click_by_text: Click any element by its visible text. Works for buttons, links, tabs, menu items.
   {"type": "click_by_text", "text": "Submit"}

3. wait_for_modal: Wait for a modal or dialog to appear. Use after clicking buttons that open dialogs (Create, New, Add, Edit).
   {"type": "wait_for_modal"}

4. fill_inputs: Fill input fields, textareas, or editors. Use generic field names describing the purpose: "q" or "search" for search boxes, "code"/"editor"/"solution" for code editors, "name"/"title"/"email"/"description" for forms. The system finds the field by label, placeholder, name, or type.
   {"type": "fill_inputs", "inputs": {"q": "search term"}}

5. click_submit: Click a submit/save/create/confirm button, OR press Enter for a search box. Search boxes usually have no visible button, so use click_submit right after fill_inputs.
   {"type": "click_submit"}

6. capture_state: Capture the current state. Always include at the end.
   {"type": "capture_state"}

EXAMPLES:

Task: "search for python tutorials on google"
{"actions": [
  {"type": "goto", "url": "https://www.google.com"},
  {"type": "fill_inputs", "inputs": {"q": "python tutorials"}},
  {"type": "click_submit"},
  {"type": "capture_state"}
]}

Task: "create a new project called MyApp"
{"actions": [
  {"type": "goto", "url": "https://website.com"},
  {"type": "click_by_text", "text": "Projects"},
  {"type": "click_by_text", "text": "Create"},
  {"type": "wait_for_modal"},
  {"type": "fill_inputs", "inputs": {"name": "MyApp"}},
  {"type": "click_submit"},
  {"type": "capture_state"}
]}

RULES:
- Each page transition needs its own action.
- Do not invent UI elements. If you do not know the exact button text, use click_submit.
- Be conservative. Simple tasks need 3-4 actions; complex flows 6-8.
- Always end with capture_state.

Return ONLY valid JSON with an "actions" array, no markdown formatting or explanation.`, task)
}
