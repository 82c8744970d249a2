package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/domain/conversation"
	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/requirements"
	"bootlang/services/agent-api/internal/domain/validator"
	"bootlang/services/agent-api/internal/utils/userlock"
)

type fakeConvRepo struct {
	convs map[string]*conversation.Conversation
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[string]*conversation.Conversation)}
}

func (f *fakeConvRepo) Create(_ context.Context, conv *conversation.Conversation) error {
	f.convs[conv.PublicID] = conv
	return nil
}

func (f *fakeConvRepo) Update(_ context.Context, conv *conversation.Conversation) error {
	f.convs[conv.PublicID] = conv
	return nil
}

func (f *fakeConvRepo) GetByPublicID(_ context.Context, publicID string) (*conversation.Conversation, error) {
	if c, ok := f.convs[publicID]; ok {
		return c, nil
	}
	return nil, errors.New("conversation not found")
}

func (f *fakeConvRepo) GetByPublicIDForUser(_ context.Context, publicID, userID string) (*conversation.Conversation, error) {
	if c, ok := f.convs[publicID]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, errors.New("conversation not found")
}

func (f *fakeConvRepo) ListByUser(_ context.Context, userID string) ([]*conversation.Conversation, error) {
	var out []*conversation.Conversation
	for _, c := range f.convs {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type scriptedExtractor struct {
	script [][]requirements.SlotUpdate
}

func (s *scriptedExtractor) ExtractUpdates(_ context.Context, _ llm.ExtractionInput) ([]requirements.SlotUpdate, error) {
	if len(s.script) == 0 {
		return nil, nil
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

type fakeJudge struct {
	verdict llm.Verdict
}

func (f *fakeJudge) JudgeConflict(_ context.Context, _ requirements.Slot, _, _ string) (llm.Verdict, error) {
	return f.verdict, nil
}

type fakeArtifactRepo struct {
	saved map[string]*artifact.Set
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{saved: make(map[string]*artifact.Set)}
}

func (f *fakeArtifactRepo) SaveLatest(_ context.Context, set *artifact.Set) error {
	f.saved[set.ConversationID] = set
	return nil
}

func (f *fakeArtifactRepo) GetLatest(_ context.Context, conversationID, _ string) (*artifact.Set, error) {
	if s, ok := f.saved[conversationID]; ok {
		return s, nil
	}
	return nil, errors.New("no artifacts")
}

type fakeEnqueuer struct {
	requests []GenerationRequest
}

func (f *fakeEnqueuer) EnqueueGeneration(_ context.Context, req GenerationRequest) error {
	f.requests = append(f.requests, req)
	return nil
}

type testRig struct {
	svc       *Service
	repo      *fakeConvRepo
	extractor *scriptedExtractor
	artifacts *fakeArtifactRepo
	enqueuer  *fakeEnqueuer
	judge     *fakeJudge
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	repo := newFakeConvRepo()
	extractor := &scriptedExtractor{}
	judge := &fakeJudge{}
	artifacts := newFakeArtifactRepo()
	enqueuer := &fakeEnqueuer{}
	val := validator.New(judge, 5, 2, zerolog.Nop())
	renderer := artifact.NewRenderer(nil, nil, 3, zerolog.Nop())

	svc := NewService(repo, extractor, val, renderer, artifacts, enqueuer,
		[]string{"generate prd"}, userlock.NewRegistry(), zerolog.Nop())

	return &testRig{svc: svc, repo: repo, extractor: extractor, artifacts: artifacts, enqueuer: enqueuer, judge: judge}
}

func allSlotsUpdate() []requirements.SlotUpdate {
	return []requirements.SlotUpdate{
		{Slot: requirements.SlotGoal, Value: "Team Expense Tracker"},
		{Slot: requirements.SlotUsers, Value: "finance teams"},
		{Slot: requirements.SlotWorkflow, Items: []string{"submit expense", "approve expense"}},
		{Slot: requirements.SlotFrontend, Value: "React"},
		{Slot: requirements.SlotBackend, Value: "Go with PostgreSQL"},
		{Slot: requirements.SlotDataEntities, Items: []string{"Expense", "User"}},
	}
}

func TestHappyPathToGeneration(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()

	// One rich message fills every slot and lands in confirming.
	rig.extractor.script = [][]requirements.SlotUpdate{allSlotsUpdate()}
	res, err := rig.svc.Converse(ctx, "user-1", "", "I want an expense tracker...")
	require.NoError(t, err)
	assert.Equal(t, conversation.StageConfirming, res.Stage)
	assert.Contains(t, res.Reply, "Does this look right?")

	// Approval moves to ready.
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes, looks good")
	require.NoError(t, err)
	assert.Equal(t, conversation.StageReady, res.Stage)

	// The trigger phrase enqueues background generation.
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "ok, generate prd please")
	require.NoError(t, err)
	require.Len(t, rig.enqueuer.requests, 1)
	assert.Equal(t, res.ConversationID, rig.enqueuer.requests[0].ConversationID)
}

func TestTriggerBeforeReadyIsRefused(t *testing.T) {
	rig := newRig(t)

	res, err := rig.svc.Converse(context.Background(), "user-1", "", "generate prd")
	require.NoError(t, err)

	assert.Equal(t, conversation.StageGathering, res.Stage)
	assert.Contains(t, res.Reply, "can't generate yet")
	assert.Empty(t, rig.enqueuer.requests)
}

func TestContradictionAsksOneClarifyingQuestion(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.judge.verdict = llm.Verdict{Conflicts: true, Question: "Go or Node.js?"}

	rig.extractor.script = [][]requirements.SlotUpdate{
		allSlotsUpdate(),
		{{Slot: requirements.SlotBackend, Value: "Node.js", Explicit: true}},
		{{Slot: requirements.SlotBackend, Value: "Node.js", Explicit: true}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "full requirements")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes")
	require.NoError(t, err)
	require.Equal(t, conversation.StageReady, res.Stage)

	// A conflicting change request is held behind a clarification.
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "actually use Node.js")
	require.NoError(t, err)
	assert.Equal(t, conversation.StageClarifying, res.Stage)
	assert.Equal(t, "Go or Node.js?", res.Reply)

	conv := rig.repo.convs[res.ConversationID]
	assert.Equal(t, "Go with PostgreSQL", conv.Schema.Get(requirements.SlotBackend).Value,
		"conflicting update must not merge before the answer")

	// The answer resolves the clarification and applies the change.
	rig.judge.verdict = llm.Verdict{}
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "use Node.js")
	require.NoError(t, err)
	conv = rig.repo.convs[res.ConversationID]
	assert.Nil(t, conv.PendingClarification)
	assert.Equal(t, "Node.js", conv.Schema.Get(requirements.SlotBackend).Value)
}

func TestClarificationAnsweredWithYesKeepsConfirmedValue(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.judge.verdict = llm.Verdict{Conflicts: true}

	rig.extractor.script = [][]requirements.SlotUpdate{
		allSlotsUpdate(),
		{{Slot: requirements.SlotBackend, Value: "Node.js", Explicit: true}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "full requirements")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "switch to Node.js")
	require.NoError(t, err)
	require.Equal(t, conversation.StageClarifying, res.Stage)

	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes")
	require.NoError(t, err)

	conv := rig.repo.convs[res.ConversationID]
	assert.Equal(t, "Go with PostgreSQL", conv.Schema.Get(requirements.SlotBackend).Value)
	assert.Contains(t, res.Reply, "Keeping")
}

func TestOverScopingHoldsItemsUntilUserDecides(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()

	items := make([]string, 15)
	for i := range items {
		items[i] = fmt.Sprintf("step %d", i+1)
	}
	rig.extractor.script = [][]requirements.SlotUpdate{{
		{Slot: requirements.SlotWorkflow, Items: items},
	}}

	res, err := rig.svc.Converse(ctx, "user-1", "", "I want everything")
	require.NoError(t, err)

	assert.Equal(t, conversation.StageClarifying, res.Stage)
	assert.Contains(t, res.Reply, "a lot for a first proof of concept")
	conv := rig.repo.convs[res.ConversationID]
	assert.Empty(t, conv.Schema.Get(requirements.SlotWorkflow).Items,
		"an over-scoped batch must not merge before the user decides")

	// Choosing to keep everything commits the held batch unchanged.
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes, keep everything")
	require.NoError(t, err)

	conv = rig.repo.convs[res.ConversationID]
	assert.Len(t, conv.Schema.Get(requirements.SlotWorkflow).Items, 15)
	assert.Nil(t, conv.PendingClarification)
}

func TestOverScopingTrimmedAnswerDiscardsHeldItems(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{
		{{Slot: requirements.SlotWorkflow, Items: []string{"a", "b", "c", "d", "e", "f", "g"}}},
		{{Slot: requirements.SlotWorkflow, Items: []string{"a", "b", "c"}}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "I want everything")
	require.NoError(t, err)
	require.Equal(t, conversation.StageClarifying, res.Stage)

	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "trim it to the first three steps")
	require.NoError(t, err)

	conv := rig.repo.convs[res.ConversationID]
	assert.Len(t, conv.Schema.Get(requirements.SlotWorkflow).Items, 3)
	assert.Equal(t, conversation.StageGathering, res.Stage)
}

func TestTriggerDuringClarificationReasksQuestion(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.judge.verdict = llm.Verdict{Conflicts: true, Question: "Go or Node.js?"}
	rig.extractor.script = [][]requirements.SlotUpdate{
		allSlotsUpdate(),
		{{Slot: requirements.SlotBackend, Value: "Node.js", Explicit: true}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "full requirements")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "switch to Node.js")
	require.NoError(t, err)
	require.Equal(t, conversation.StageClarifying, res.Stage)

	// The trigger phrase does not sidestep the open question.
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "generate prd")
	require.NoError(t, err)

	assert.Equal(t, conversation.StageClarifying, res.Stage)
	assert.Contains(t, res.Reply, "Go or Node.js?")
	assert.Empty(t, rig.enqueuer.requests)
	require.NotNil(t, rig.repo.convs[res.ConversationID].PendingClarification)
}

func TestCorrectionInConfirmingReopensGathering(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{
		allSlotsUpdate(),
		{{Slot: requirements.SlotFrontend, Value: "Vue"}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "full requirements")
	require.NoError(t, err)
	require.Equal(t, conversation.StageConfirming, res.Stage)

	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "no, the frontend should be Vue")
	require.NoError(t, err)

	conv := rig.repo.convs[res.ConversationID]
	assert.Equal(t, "Vue", conv.Schema.Get(requirements.SlotFrontend).Value)
	// Everything is still filled, so the agent re-presents the summary.
	assert.Equal(t, conversation.StageConfirming, res.Stage)
}

func TestConversationSurvivesReload(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{
		{{Slot: requirements.SlotGoal, Value: "inventory tool"}},
		{{Slot: requirements.SlotUsers, Value: "warehouse staff"}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "an inventory tool")
	require.NoError(t, err)

	// Same public ID on the next turn resumes the stored conversation.
	res2, err := rig.svc.Converse(ctx, "user-1", res.ConversationID, "for warehouse staff")
	require.NoError(t, err)
	assert.Equal(t, res.ConversationID, res2.ConversationID)

	conv := rig.repo.convs[res.ConversationID]
	assert.Equal(t, "inventory tool", conv.Schema.Get(requirements.SlotGoal).Value)
	assert.Equal(t, "warehouse staff", conv.Schema.Get(requirements.SlotUsers).Value)
	assert.Len(t, conv.Messages, 4)
}

func TestConverseRejectsForeignConversation(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{{{Slot: requirements.SlotGoal, Value: "x"}}}

	res, err := rig.svc.Converse(ctx, "user-1", "", "hello")
	require.NoError(t, err)

	_, err = rig.svc.Converse(ctx, "user-2", res.ConversationID, "hello")
	require.Error(t, err)
}

func TestGenerateRefusesIncompleteSchema(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{{{Slot: requirements.SlotGoal, Value: "x"}}}

	res, err := rig.svc.Converse(ctx, "user-1", "", "a thing")
	require.NoError(t, err)

	_, err = rig.svc.Generate(ctx, "user-1", res.ConversationID)
	require.Error(t, err)
	assert.True(t, domainerrors.IsSchemaIncomplete(err))
	assert.Empty(t, rig.artifacts.saved)
}

func TestGenerateStoresLatestAndCommitsStage(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{allSlotsUpdate()}

	res, err := rig.svc.Converse(ctx, "user-1", "", "full requirements")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes")
	require.NoError(t, err)
	require.Equal(t, conversation.StageReady, res.Stage)

	set, err := rig.svc.Generate(ctx, "user-1", res.ConversationID)
	require.NoError(t, err)
	assert.Len(t, set.Artifacts, 5)
	assert.Equal(t, conversation.StageGenerated, rig.repo.convs[res.ConversationID].Stage)

	// Regeneration overwrites the single latest set.
	again, err := rig.svc.Generate(ctx, "user-1", res.ConversationID)
	require.NoError(t, err)
	latest, err := rig.svc.LatestArtifacts(ctx, "user-1", res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, again.PublicID, latest.PublicID)
}

func TestChangeRequestAfterGenerationReopens(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.extractor.script = [][]requirements.SlotUpdate{
		allSlotsUpdate(),
		{{Slot: requirements.SlotWorkflow, Items: []string{"export to csv"}}},
	}

	res, err := rig.svc.Converse(ctx, "user-1", "", "full requirements")
	require.NoError(t, err)
	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "yes")
	require.NoError(t, err)
	_, err = rig.svc.Generate(ctx, "user-1", res.ConversationID)
	require.NoError(t, err)

	res, err = rig.svc.Converse(ctx, "user-1", res.ConversationID, "add a csv export step")
	require.NoError(t, err)

	conv := rig.repo.convs[res.ConversationID]
	assert.Contains(t, conv.Schema.Get(requirements.SlotWorkflow).Items, "export to csv")
	assert.NotEqual(t, conversation.StageGenerated, res.Stage)
}
