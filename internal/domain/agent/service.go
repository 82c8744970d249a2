// Package agent implements the per-turn conversation algorithm: extraction,
// validation, merging, stage transitions, and generation hand-off.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/domain/conversation"
	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/requirements"
	"bootlang/services/agent-api/internal/domain/validator"
	"bootlang/services/agent-api/internal/utils/userlock"
)

// GenerationRequest identifies a conversation whose documents should be
// generated in the background.
type GenerationRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// GenerationEnqueuer hands generation work to the background queue.
type GenerationEnqueuer interface {
	EnqueueGeneration(ctx context.Context, req GenerationRequest) error
}

// TurnResult is what one Converse call returns to the caller.
type TurnResult struct {
	ConversationID string
	Stage          conversation.Stage
	Reply          string
}

// Service drives conversations. All mutations for a user are serialized
// through the shared per-user lock registry.
type Service struct {
	convRepo  conversation.Repository
	extractor llm.Extractor
	validator *validator.Validator
	renderer  *artifact.Renderer
	artifacts artifact.Repository
	enqueuer  GenerationEnqueuer
	triggers  []string
	locks     *userlock.Registry
	log       zerolog.Logger
}

// NewService constructs the agent service. locks is shared with the document
// service so turns and uploads never interleave for the same user.
func NewService(
	convRepo conversation.Repository,
	extractor llm.Extractor,
	val *validator.Validator,
	renderer *artifact.Renderer,
	artifacts artifact.Repository,
	enqueuer GenerationEnqueuer,
	triggers []string,
	locks *userlock.Registry,
	log zerolog.Logger,
) *Service {
	return &Service{
		convRepo:  convRepo,
		extractor: extractor,
		validator: val,
		renderer:  renderer,
		artifacts: artifacts,
		enqueuer:  enqueuer,
		triggers:  triggers,
		locks:     locks,
		log:       log.With().Str("component", "agent").Logger(),
	}
}

// Converse processes one user turn and returns the agent's reply.
// conversationID may be empty to start a new conversation.
func (s *Service) Converse(ctx context.Context, userID, conversationID, message string) (*TurnResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	conv, created, err := s.loadOrCreate(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	conv.Append(conversation.RoleUser, message)

	reply, err := s.runTurn(ctx, conv, message)
	if err != nil {
		return nil, err
	}

	conv.Append(conversation.RoleAssistant, reply)
	conv.UpdatedAt = time.Now().UTC()

	if created {
		err = s.convRepo.Create(ctx, conv)
	} else {
		err = s.convRepo.Update(ctx, conv)
	}
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		ConversationID: conv.PublicID,
		Stage:          conv.Stage,
		Reply:          reply,
	}, nil
}

func (s *Service) loadOrCreate(ctx context.Context, userID, conversationID string) (*conversation.Conversation, bool, error) {
	if conversationID == "" {
		return conversation.NewConversation(userID), true, nil
	}
	conv, err := s.convRepo.GetByPublicIDForUser(ctx, conversationID, userID)
	if err != nil {
		return nil, false, err
	}
	return conv, false, nil
}

// runTurn executes the stage machine for one message and returns the reply.
func (s *Service) runTurn(ctx context.Context, conv *conversation.Conversation, message string) (string, error) {
	if matchesTrigger(message, s.triggers) {
		if conv.Stage == conversation.StageClarifying && conv.PendingClarification != nil {
			// An open question blocks everything else, including generation.
			return "One thing to settle first. " + conv.PendingClarification.Question, nil
		}
		return s.handleTrigger(ctx, conv)
	}

	switch conv.Stage {
	case conversation.StageConfirming:
		if isAffirmative(message) {
			return s.handleApproval(conv)
		}
		// A correction instead of an approval reopens gathering.
		if err := conv.MoveTo(conversation.StageGathering); err != nil {
			return "", err
		}
		return s.gather(ctx, conv, message, false)

	case conversation.StageClarifying:
		return s.handleClarificationAnswer(ctx, conv, message)

	case conversation.StageReady, conversation.StageGenerated:
		// Any substantive message after confirmation is a change request.
		if err := conv.MoveTo(conversation.StageGathering); err != nil {
			return "", err
		}
		return s.gather(ctx, conv, message, false)

	default:
		return s.gather(ctx, conv, message, false)
	}
}

func (s *Service) handleTrigger(ctx context.Context, conv *conversation.Conversation) (string, error) {
	if conv.Stage != conversation.StageReady && conv.Stage != conversation.StageGenerated {
		missing := conv.Schema.MissingSlots()
		if len(missing) == 0 {
			return "Almost there. Please confirm the summary first, then I can generate the documents.", nil
		}
		labels := make([]string, len(missing))
		for i, m := range missing {
			labels[i] = requirements.Slot(m).Label()
		}
		return fmt.Sprintf(
			"I can't generate yet, I still need: %s. %s",
			strings.Join(labels, ", "), nextQuestion(conv.Schema)), nil
	}

	if err := s.enqueuer.EnqueueGeneration(ctx, GenerationRequest{
		ConversationID: conv.PublicID,
		UserID:         conv.UserID,
	}); err != nil {
		return "", err
	}

	s.log.Info().
		Str("conversation_id", conv.PublicID).
		Msg("generation enqueued")

	return "Generating your planning documents now. Ask for the artifacts in a moment, or wait for the completion notification.", nil
}

func (s *Service) handleApproval(conv *conversation.Conversation) (string, error) {
	conv.Schema.ConfirmAll()

	if !conv.Schema.Complete() {
		if err := conv.MoveTo(conversation.StageGathering); err != nil {
			return "", err
		}
		return "Thanks. A few things are still open. " + nextQuestion(conv.Schema), nil
	}

	if err := conv.MoveTo(conversation.StageReady); err != nil {
		return "", err
	}
	return "All confirmed. Say \"generate prd\" whenever you want the planning documents.", nil
}

// handleClarificationAnswer resolves the pending question with the user's
// answer and re-enters the normal flow. The answer is treated as an explicit
// restatement of the disputed slot.
func (s *Service) handleClarificationAnswer(ctx context.Context, conv *conversation.Conversation, message string) (string, error) {
	pending := conv.PendingClarification
	conv.ResolveClarification()
	if err := conv.MoveTo(conversation.StageGathering); err != nil {
		return "", err
	}

	if pending != nil && isAffirmative(message) {
		if len(pending.Held) > 0 {
			// "Keep everything anyway" commits the held batch as-is.
			return s.commit(conv, pending.Held)
		}
		// "Yes" keeps the confirmed value; nothing to merge.
		return fmt.Sprintf("Keeping %s as %q. %s",
			pending.Slot.Label(), pending.PriorValue, nextQuestion(conv.Schema)), nil
	}

	return s.gather(ctx, conv, message, true)
}

// gather runs extract -> validate -> merge and decides the next stage.
// explicitAll marks every update as an explicit restatement, used when the
// message answers a clarification about a confirmed slot.
func (s *Service) gather(ctx context.Context, conv *conversation.Conversation, message string, explicitAll bool) (string, error) {
	updates, err := s.extract(ctx, conv, message)
	if err != nil {
		return "", err
	}
	if explicitAll {
		for i := range updates {
			updates[i].Explicit = true
		}
	}

	if len(updates) == 0 {
		return nextQuestion(conv.Schema), nil
	}

	conflict, err := s.validator.CheckContradictions(ctx, conv.Schema, updates)
	if err != nil {
		return "", err
	}
	if conflict != nil {
		// Hold the update until the contradiction is resolved.
		if err := conv.AskClarification(conversation.Clarification{
			Slot:       conflict.Slot,
			PriorValue: conflict.PriorValue,
			NewValue:   conflict.NewValue,
			Question:   conflict.Question,
		}); err != nil {
			return "", err
		}
		return conflict.Question, nil
	}

	if scope := s.validator.CheckScope(conv.Schema, updates); scope != nil {
		// Hold the whole batch until the user decides to trim or keep it.
		if err := conv.AskClarification(conversation.Clarification{
			Question: scope.Suggestion,
			Held:     updates,
		}); err != nil {
			return "", err
		}
		return scope.Suggestion, nil
	}

	return s.commit(conv, updates)
}

// commit merges validated updates and decides whether the schema is complete.
func (s *Service) commit(conv *conversation.Conversation, updates []requirements.SlotUpdate) (string, error) {
	conv.Schema.Merge(updates, time.Now().UTC())

	if conv.Schema.Filled() {
		if err := conv.MoveTo(conversation.StageConfirming); err != nil {
			return "", err
		}
		return conv.Schema.Summary() + "\n\nDoes this look right? Say yes to confirm, or correct anything that is off.", nil
	}
	return "Got it. " + nextQuestion(conv.Schema), nil
}

func (s *Service) extract(ctx context.Context, conv *conversation.Conversation, message string) ([]requirements.SlotUpdate, error) {
	history := conv.RecentMessages(6)
	texts := make([]string, 0, len(history))
	for _, m := range history {
		texts = append(texts, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}

	updates, err := s.extractor.ExtractUpdates(ctx, llm.ExtractionInput{
		Message:        message,
		RecentHistory:  texts,
		CurrentSummary: conv.Schema.Summary(),
	})
	if err != nil {
		return nil, domainerrors.NewExternalModelError("extract requirement updates", err)
	}
	return updates, nil
}

// Generate renders and stores the artifact set synchronously. It is used by
// the HTTP generate endpoint and by the background worker.
func (s *Service) Generate(ctx context.Context, userID, conversationID string) (*artifact.Set, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	conv, err := s.convRepo.GetByPublicIDForUser(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	set, err := s.renderer.Render(ctx, userID, conv.PublicID, conv.Schema)
	if err != nil {
		return nil, err
	}

	if err := s.artifacts.SaveLatest(ctx, set); err != nil {
		return nil, err
	}

	// The generated stage is committed only after the set is safely stored.
	if conv.Stage != conversation.StageGenerated {
		if err := conv.MoveTo(conversation.StageGenerated); err != nil {
			return nil, err
		}
	}
	conv.UpdatedAt = time.Now().UTC()
	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, err
	}

	return set, nil
}

// GetConversation returns a user's conversation for inspection or resume.
func (s *Service) GetConversation(ctx context.Context, userID, conversationID string) (*conversation.Conversation, error) {
	return s.convRepo.GetByPublicIDForUser(ctx, conversationID, userID)
}

// LatestArtifacts returns the latest generated set for a conversation.
func (s *Service) LatestArtifacts(ctx context.Context, userID, conversationID string) (*artifact.Set, error) {
	return s.artifacts.GetLatest(ctx, conversationID, userID)
}
