// Package conversation defines the conversation aggregate and its lifecycle.
package conversation

import "fmt"

// Stage represents where a conversation sits in the requirements lifecycle.
type Stage string

const (
	// StageGathering collects requirements from scratch or after a correction.
	StageGathering Stage = "gathering"
	// StageClarifying waits on an answer to a pending contradiction question.
	StageClarifying Stage = "clarifying"
	// StageConfirming presents the summary and waits for approval.
	StageConfirming Stage = "confirming"
	// StageReady means the schema is confirmed and generation may be triggered.
	StageReady Stage = "ready"
	// StageGenerated means the latest artifact set matches the schema.
	StageGenerated Stage = "generated"
)

// ValidTransitions defines the allowed stage moves.
var ValidTransitions = map[Stage][]Stage{
	StageGathering:  {StageClarifying, StageConfirming},
	StageClarifying: {StageGathering, StageConfirming},
	StageConfirming: {StageGathering, StageClarifying, StageReady},
	StageReady:      {StageGathering, StageGenerated},
	StageGenerated:  {StageGathering},
}

// IsValid checks if the stage value is known.
func (s Stage) IsValid() bool {
	_, ok := ValidTransitions[s]
	return ok
}

// CanTransitionTo checks if a move to the target stage is allowed.
func (s Stage) CanTransitionTo(target Stage) bool {
	allowed, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

// TransitionTo validates and returns the target stage.
func (s Stage) TransitionTo(target Stage) (Stage, error) {
	if !s.CanTransitionTo(target) {
		return s, fmt.Errorf("invalid stage transition from %s to %s", s, target)
	}
	return target, nil
}
