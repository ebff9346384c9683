package conversation

import "strings"

// Action is the handler selected for a user message.
type Action string

const (
	ActionTranslate Action = "translate"
	ActionSummarize Action = "summarize"
	ActionExport    Action = "export"
	ActionDeliver   Action = "deliver"
	ActionSearch    Action = "search"
	ActionClarify   Action = "clarify"
)

type intentRule struct {
	action   Action
	keywords []string
}

// rules are checked in order; the first rule with a keyword contained in the message wins.
var rules = []intentRule{
	{ActionTranslate, []string{"translate"}},
	{ActionSummarize, []string{"summary", "summarize"}},
	{ActionExport, []string{"pdf"}},
	{ActionDeliver, []string{"email"}},
	{ActionSearch, []string{"news"}},
}

// Classify maps a user message to an action by case-insensitive substring match.
func Classify(text string) Action {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.action
			}
		}
	}
	return ActionClarify
}
