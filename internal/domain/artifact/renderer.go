package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/requirements"
	"bootlang/services/agent-api/internal/domain/retrieval"
)

// Retriever supplies reference chunks for a slot query.
type Retriever interface {
	Retrieve(ctx context.Context, userID, query string, k int) ([]retrieval.Match, error)
}

// Renderer builds the document set. Section order and phase decomposition
// are pure functions of the schema; only prose paragraphs go through the
// prose writer, and a nil writer falls back to the slot text itself.
type Renderer struct {
	prose     llm.ProseWriter
	retriever Retriever
	topK      int
	log       zerolog.Logger
}

// NewRenderer constructs the renderer. prose may be nil.
func NewRenderer(prose llm.ProseWriter, retriever Retriever, topK int, log zerolog.Logger) *Renderer {
	if topK <= 0 {
		topK = 3
	}
	return &Renderer{
		prose:     prose,
		retriever: retriever,
		topK:      topK,
		log:       log.With().Str("component", "renderer").Logger(),
	}
}

// Render produces the full artifact set for a completed schema. An
// incomplete schema is refused with the missing slots named.
func (r *Renderer) Render(ctx context.Context, userID, conversationID string, schema *requirements.Schema) (*Set, error) {
	if !schema.Complete() {
		return nil, domainerrors.NewSchemaIncompleteError(schema.MissingSlots())
	}

	goal := schema.Get(requirements.SlotGoal).Value
	set := NewSet(conversationID, userID, ProjectName(goal))

	overview, err := r.overviewProse(ctx, userID, schema)
	if err != nil {
		return nil, err
	}

	set.Artifacts = []Artifact{
		{Name: NameRequirements, Content: r.renderRequirements(schema, set.ProjectName, overview)},
		{Name: NamePhaseData, Content: r.renderPhaseData(schema, set.ProjectName)},
		{Name: NamePhaseService, Content: r.renderPhaseService(schema, set.ProjectName)},
		{Name: NamePhaseUI, Content: r.renderPhaseUI(schema, set.ProjectName)},
	}
	set.Artifacts = append(set.Artifacts, Artifact{Name: NameReadme, Content: r.renderReadme(set)})

	r.log.Info().
		Str("user_id", userID).
		Str("conversation_id", conversationID).
		Str("project", set.ProjectName).
		Msg("rendered artifact set")

	return set, nil
}

// overviewProse asks the prose writer for the overview paragraph, feeding it
// the schema summary plus retrieved reference chunks. Without a writer the
// goal text stands in.
func (r *Renderer) overviewProse(ctx context.Context, userID string, schema *requirements.Schema) (string, error) {
	goal := schema.Get(requirements.SlotGoal).Value
	if r.prose == nil {
		return goal, nil
	}

	var contextTexts []string
	if r.retriever != nil {
		matches, err := r.retriever.Retrieve(ctx, userID, goal, r.topK)
		if err != nil {
			return "", fmt.Errorf("retrieve overview context: %w", err)
		}
		for _, m := range matches {
			contextTexts = append(contextTexts, m.Content)
		}
	}

	prose, err := r.prose.WriteProse(ctx, llm.ProseRequest{
		Section: "overview",
		Summary: schema.Summary(),
		Context: contextTexts,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(prose) == "" {
		return goal, nil
	}
	return strings.TrimSpace(prose), nil
}

func (r *Renderer) renderRequirements(schema *requirements.Schema, project, overview string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — Requirements\n\n", project)

	section(&b, "Overview", overview)
	section(&b, "Goals", schema.Get(requirements.SlotGoal).Value)
	sectionSlot(&b, "Users", schema.Get(requirements.SlotUsers))

	b.WriteString("## Stack\n\n")
	fmt.Fprintf(&b, "- Frontend: %s\n", slotText(schema.Get(requirements.SlotFrontend)))
	fmt.Fprintf(&b, "- Backend: %s\n\n", slotText(schema.Get(requirements.SlotBackend)))

	b.WriteString("## Data Model\n\n")
	writeItemsOrValue(&b, schema.Get(requirements.SlotDataEntities))

	b.WriteString("## API Surface\n\n")
	workflow := schema.Get(requirements.SlotWorkflow)
	if len(workflow.Items) > 0 {
		b.WriteString("One endpoint group per workflow step:\n\n")
		for _, step := range workflow.Items {
			fmt.Fprintf(&b, "- %s\n", step)
		}
		b.WriteString("\n")
	} else {
		b.WriteString(workflow.Value + "\n\n")
	}

	b.WriteString("## Out of Scope\n\n")
	constraints := schema.Get(requirements.SlotConstraints)
	if constraints.Empty() {
		b.WriteString("Everything not listed above is deferred past the proof of concept.\n")
	} else {
		writeItemsOrValue(&b, constraints)
	}

	return b.String()
}

func (r *Renderer) renderPhaseData(schema *requirements.Schema, project string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — Phase 1: Data Layer\n\n", project)

	section(&b, "Objective",
		"Stand up the database schema and data access layer before any service or UI code exists.")

	b.WriteString("## File-level Instructions\n\n")
	entities := schema.Get(requirements.SlotDataEntities)
	names := entities.Items
	if len(names) == 0 {
		names = splitList(entities.Value)
	}
	for _, name := range names {
		fmt.Fprintf(&b, "- Define the `%s` model with its fields and a migration creating its table.\n", name)
	}
	b.WriteString("- Add a repository per model exposing create, get, list, and delete.\n\n")

	b.WriteString("## Verification Checklist\n\n")
	b.WriteString("- [ ] Migrations apply cleanly on an empty database\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- [ ] `%s` rows can be created and read back\n", name)
	}
	b.WriteString("\n")
	checkpoint(&b, "Phase 2")
	return b.String()
}

func (r *Renderer) renderPhaseService(schema *requirements.Schema, project string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — Phase 2: Service Layer\n\n", project)

	backend := slotText(schema.Get(requirements.SlotBackend))
	section(&b, "Objective",
		fmt.Sprintf("Implement the %s service exposing the core workflow over HTTP, backed by the Phase 1 data layer.", backend))

	b.WriteString("## File-level Instructions\n\n")
	workflow := schema.Get(requirements.SlotWorkflow)
	steps := workflow.Items
	if len(steps) == 0 {
		steps = splitList(workflow.Value)
	}
	for _, step := range steps {
		fmt.Fprintf(&b, "- Add a handler and service function covering: %s.\n", step)
	}
	integrations := schema.Get(requirements.SlotIntegrations)
	for _, integ := range integrations.Items {
		fmt.Fprintf(&b, "- Add a thin client for the %s integration behind an interface.\n", integ)
	}
	b.WriteString("\n## Verification Checklist\n\n")
	for _, step := range steps {
		fmt.Fprintf(&b, "- [ ] End-to-end request succeeds for: %s\n", step)
	}
	b.WriteString("- [ ] Error responses use consistent status codes and shapes\n\n")
	checkpoint(&b, "Phase 3")
	return b.String()
}

func (r *Renderer) renderPhaseUI(schema *requirements.Schema, project string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — Phase 3: Presentation\n\n", project)

	frontend := slotText(schema.Get(requirements.SlotFrontend))
	section(&b, "Objective",
		fmt.Sprintf("Build the %s interface over the Phase 2 service for the users below.", frontend))

	sectionSlot(&b, "Users", schema.Get(requirements.SlotUsers))

	b.WriteString("## File-level Instructions\n\n")
	workflow := schema.Get(requirements.SlotWorkflow)
	steps := workflow.Items
	if len(steps) == 0 {
		steps = splitList(workflow.Value)
	}
	for _, step := range steps {
		fmt.Fprintf(&b, "- Add a screen or view for: %s.\n", step)
	}
	b.WriteString("\n## Verification Checklist\n\n")
	b.WriteString("- [ ] Every workflow step is reachable from the main screen\n")
	b.WriteString("- [ ] Service errors surface as readable messages, not blank screens\n\n")
	b.WriteString("This is the final phase. When the checklist passes, the proof of concept is done.\n")
	return b.String()
}

func (r *Renderer) renderReadme(set *Set) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", set.ProjectName)
	b.WriteString("Generated planning documents for this proof of concept:\n\n")
	fmt.Fprintf(&b, "- `%s` — what to build and for whom\n", NameRequirements)
	fmt.Fprintf(&b, "- `%s` — phase 1, the data layer\n", NamePhaseData)
	fmt.Fprintf(&b, "- `%s` — phase 2, the service layer\n", NamePhaseService)
	fmt.Fprintf(&b, "- `%s` — phase 3, the presentation layer\n", NamePhaseUI)
	b.WriteString("\nWork the phases in order. Each phase ends with a verification checklist ")
	b.WriteString("that must pass before the next phase starts.\n")
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "## %s\n\n%s\n\n", title, strings.TrimSpace(body))
}

func sectionSlot(b *strings.Builder, title string, v requirements.SlotValue) {
	fmt.Fprintf(b, "## %s\n\n", title)
	writeItemsOrValue(b, v)
}

func writeItemsOrValue(b *strings.Builder, v requirements.SlotValue) {
	if len(v.Items) > 0 {
		for _, it := range v.Items {
			fmt.Fprintf(b, "- %s\n", it)
		}
		b.WriteString("\n")
		return
	}
	if strings.TrimSpace(v.Value) != "" {
		b.WriteString(strings.TrimSpace(v.Value) + "\n\n")
		return
	}
	b.WriteString("None specified.\n\n")
}

func slotText(v requirements.SlotValue) string {
	if strings.TrimSpace(v.Value) != "" {
		return strings.TrimSpace(v.Value)
	}
	if len(v.Items) > 0 {
		return strings.Join(v.Items, ", ")
	}
	return "unspecified"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func checkpoint(b *strings.Builder, next string) {
	fmt.Fprintf(b, "Stop here. Verify every item above before starting %s; ", next)
	b.WriteString("an unverified phase compounds into rework later.\n")
}
