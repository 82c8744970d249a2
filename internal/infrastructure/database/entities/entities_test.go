package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/domain/conversation"
	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/domain/requirements"
)

func TestConversationRoundTrip(t *testing.T) {
	conv := conversation.NewConversation("user-1")
	conv.Append(conversation.RoleUser, "I want a booking tool")
	conv.Append(conversation.RoleAssistant, "Who will use it?")
	conv.Schema.Merge([]requirements.SlotUpdate{
		{Slot: requirements.SlotGoal, Value: "booking tool"},
		{Slot: requirements.SlotIntegrations, Items: []string{"Stripe"}},
	}, time.Now().UTC())
	conv.Schema.Confirm(requirements.SlotGoal)
	require.NoError(t, conv.MoveTo(conversation.StageClarifying))
	conv.PendingClarification = &conversation.Clarification{
		Slot:       requirements.SlotGoal,
		PriorValue: "booking tool",
		NewValue:   "scheduling tool",
		Question:   "Booking or scheduling?",
		Held: []requirements.SlotUpdate{
			{Slot: requirements.SlotWorkflow, Items: []string{"pick a slot", "pay"}},
		},
		AskedAt: time.Now().UTC(),
	}

	entity, err := NewSchemaConversation(conv)
	require.NoError(t, err)

	restored, err := entity.EtoD()
	require.NoError(t, err)

	assert.Equal(t, conv.PublicID, restored.PublicID)
	assert.Equal(t, conv.UserID, restored.UserID)
	assert.Equal(t, conversation.StageClarifying, restored.Stage)
	require.Len(t, restored.Messages, 2)
	assert.Equal(t, conv.Messages[0].Content, restored.Messages[0].Content)
	assert.Equal(t, requirements.StateConfirmed, restored.Schema.Get(requirements.SlotGoal).State)
	assert.Equal(t, []string{"Stripe"}, restored.Schema.Get(requirements.SlotIntegrations).Items)
	require.NotNil(t, restored.PendingClarification)
	assert.Equal(t, "Booking or scheduling?", restored.PendingClarification.Question)
	require.Len(t, restored.PendingClarification.Held, 1)
	assert.Equal(t, []string{"pick a slot", "pay"}, restored.PendingClarification.Held[0].Items)
}

func TestConversationWithoutClarification(t *testing.T) {
	conv := conversation.NewConversation("user-1")

	entity, err := NewSchemaConversation(conv)
	require.NoError(t, err)
	assert.Nil(t, entity.Clarification)

	restored, err := entity.EtoD()
	require.NoError(t, err)
	assert.Nil(t, restored.PendingClarification)
}

func TestChunkRoundTrip(t *testing.T) {
	chunk := document.Chunk{
		ID:         "chunk-1",
		DocumentID: "doc_abc",
		UserID:     "user-1",
		Seq:        3,
		Content:    "some reference text",
		Embedding:  []float32{0.1, 0.2, 0.3},
	}

	entity, err := NewSchemaChunk(chunk)
	require.NoError(t, err)

	restored, err := entity.EtoD()
	require.NoError(t, err)
	assert.Equal(t, chunk, restored)
}

func TestArtifactSetRoundTrip(t *testing.T) {
	set := artifact.NewSet("conv_1", "user-1", "team-expense-tracker")
	set.Artifacts = []artifact.Artifact{
		{Name: artifact.NameRequirements, Content: "# requirements"},
		{Name: artifact.NameReadme, Content: "# readme"},
	}

	entity, err := NewSchemaArtifactSet(set)
	require.NoError(t, err)

	restored, err := entity.EtoD()
	require.NoError(t, err)
	assert.Equal(t, set.PublicID, restored.PublicID)
	assert.Equal(t, set.ConversationID, restored.ConversationID)
	assert.Equal(t, set.ProjectName, restored.ProjectName)
	assert.Equal(t, set.Artifacts, restored.Artifacts)
}
