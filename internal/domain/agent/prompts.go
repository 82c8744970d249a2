package agent

import (
	"strings"

	"bootlang/services/agent-api/internal/domain/requirements"
)

// affirmatives approve the summary in the confirming stage.
var affirmatives = []string{
	"yes",
	"correct",
	"looks good",
	"approve",
	"approved",
	"perfect",
	"sounds good",
	"that's right",
	"yep",
	"yeah",
}

func isAffirmative(message string) bool {
	normalized := strings.ToLower(strings.TrimSpace(message))
	normalized = strings.Trim(normalized, ".!")
	for _, a := range affirmatives {
		if normalized == a || strings.HasPrefix(normalized, a+" ") || strings.HasPrefix(normalized, a+",") {
			return true
		}
	}
	return false
}

func matchesTrigger(message string, triggers []string) bool {
	lower := strings.ToLower(message)
	for _, t := range triggers {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// slotQuestions drive the gathering stage, one missing slot at a time.
var slotQuestions = map[requirements.Slot]string{
	requirements.SlotGoal:         "What are you trying to build? A one-line goal is enough to start.",
	requirements.SlotUsers:        "Who will use this? Describe the main kinds of users.",
	requirements.SlotWorkflow:     "Walk me through the core workflow: what does a user do, step by step?",
	requirements.SlotFrontend:     "What should the frontend be? A web app, mobile, or something else?",
	requirements.SlotBackend:      "Any preference for the backend stack and database?",
	requirements.SlotDataEntities: "What are the main things the system stores? For example: users, orders, invoices.",
}

func nextQuestion(schema *requirements.Schema) string {
	for _, missing := range schema.MissingSlots() {
		if q, ok := slotQuestions[requirements.Slot(missing)]; ok {
			return q
		}
	}
	return "Tell me more about what you have in mind."
}
