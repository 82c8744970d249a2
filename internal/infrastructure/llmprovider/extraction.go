package llmprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/requirements"
)

const extractionSystemPrompt = `You extract software requirements from a user's chat message.
The requirement slots are: goal, users, workflow, frontend, backend, data_entities, integrations, constraints.
Respond with a JSON object: {"updates": [{"slot": "...", "value": "...", "items": ["..."], "explicit": false}]}.
Rules:
- Only include slots the message actually talks about. An unrelated message yields {"updates": []}.
- Use "items" for list-like slots: workflow steps, data entities, integrations, constraints.
- Set "explicit" to true only when the user directly restates or changes that slot ("actually, use X instead").
- Never invent requirements the user did not state.`

type extractionResponse struct {
	Updates []requirements.SlotUpdate `json:"updates"`
}

// ExtractUpdates pulls slot updates from a user message.
func (c *Client) ExtractUpdates(ctx context.Context, input llm.ExtractionInput) ([]requirements.SlotUpdate, error) {
	var user strings.Builder
	if input.CurrentSummary != "" {
		fmt.Fprintf(&user, "Current requirements:\n%s\n\n", input.CurrentSummary)
	}
	if len(input.RecentHistory) > 0 {
		fmt.Fprintf(&user, "Recent conversation:\n%s\n\n", strings.Join(input.RecentHistory, "\n"))
	}
	fmt.Fprintf(&user, "New message:\n%s", input.Message)

	raw, err := c.chatJSON(ctx, c.chatModel, extractionSystemPrompt, user.String())
	if err != nil {
		return nil, err
	}

	var parsed extractionResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, domainerrors.NewExternalModelError("extraction returned invalid JSON", err)
	}

	// Drop anything with an unknown slot name rather than failing the turn.
	out := parsed.Updates[:0]
	for _, u := range parsed.Updates {
		if u.Slot.Valid() {
			out = append(out, u)
		}
	}
	return out, nil
}

const judgeSystemPrompt = `You decide whether two statements about the same software requirement contradict each other.
Respond with a JSON object: {"conflicts": true|false, "question": "..."}.
"conflicts" is true only when the statements cannot both hold. Rephrasings, refinements, and additions do not conflict.
When they conflict, "question" is one short, friendly question asking the user which to keep, quoting both values.`

// JudgeConflict decides whether a proposed value contradicts a confirmed one.
func (c *Client) JudgeConflict(ctx context.Context, slot requirements.Slot, confirmed, proposed string) (llm.Verdict, error) {
	user := fmt.Sprintf("Requirement: %s\nConfirmed earlier: %s\nStated now: %s",
		slot.Label(), confirmed, proposed)

	raw, err := c.chatJSON(ctx, c.chatModel, judgeSystemPrompt, user)
	if err != nil {
		return llm.Verdict{}, err
	}

	var verdict llm.Verdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return llm.Verdict{}, domainerrors.NewExternalModelError("judge returned invalid JSON", err)
	}
	return verdict, nil
}

const proseSystemPrompt = `You write one section of a software planning document.
Write plain, concrete prose. No markdown headings, no bullet lists, no filler.
Stay strictly within the requirements and reference notes you are given.`

// WriteProse renders one prose section from the schema summary and
// retrieved reference chunks.
func (c *Client) WriteProse(ctx context.Context, req llm.ProseRequest) (string, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Section: %s\n\nRequirements:\n%s\n", req.Section, req.Summary)
	if len(req.Context) > 0 {
		fmt.Fprintf(&user, "\nReference notes:\n- %s\n", strings.Join(req.Context, "\n- "))
	}

	return c.chatText(ctx, c.chatModel, proseSystemPrompt, user.String())
}
