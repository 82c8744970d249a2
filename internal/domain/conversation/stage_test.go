package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Stage
		to      Stage
		allowed bool
	}{
		{"gathering to confirming", StageGathering, StageConfirming, true},
		{"gathering to clarifying", StageGathering, StageClarifying, true},
		{"gathering to generated", StageGathering, StageGenerated, false},
		{"clarifying back to gathering", StageClarifying, StageGathering, true},
		{"confirming to ready", StageConfirming, StageReady, true},
		{"confirming back to gathering", StageConfirming, StageGathering, true},
		{"ready to generated", StageReady, StageGenerated, true},
		{"ready to confirming", StageReady, StageConfirming, false},
		{"generated reopens on change request", StageGenerated, StageGathering, true},
		{"generated to ready directly", StageGenerated, StageReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))

			next, err := tt.from.TransitionTo(tt.to)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, next)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.from, next)
			}
		})
	}
}

func TestAllStagesAreValid(t *testing.T) {
	for _, s := range []Stage{StageGathering, StageClarifying, StageConfirming, StageReady, StageGenerated} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Stage("archived").IsValid())
}

func TestAskClarificationSetsPendingQuestion(t *testing.T) {
	conv := NewConversation("user-1")

	err := conv.AskClarification(Clarification{
		Slot:       "backend",
		PriorValue: "Go",
		NewValue:   "Node.js",
		Question:   "Earlier you said Go. Which should the backend use?",
	})
	require.NoError(t, err)

	assert.Equal(t, StageClarifying, conv.Stage)
	require.NotNil(t, conv.PendingClarification)
	assert.False(t, conv.PendingClarification.AskedAt.IsZero())

	conv.ResolveClarification()
	assert.Nil(t, conv.PendingClarification)
}

func TestRecentMessages(t *testing.T) {
	conv := NewConversation("user-1")
	for i := 0; i < 5; i++ {
		conv.Append(RoleUser, "msg")
	}

	assert.Len(t, conv.RecentMessages(3), 3)
	assert.Len(t, conv.RecentMessages(10), 5)
	assert.Len(t, conv.RecentMessages(0), 5)
}
