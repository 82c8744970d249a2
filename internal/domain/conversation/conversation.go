package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bootlang/services/agent-api/internal/domain/requirements"
)

// MessageRole identifies the author of a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn in the conversation history.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// Clarification is an unresolved question blocking a merge: either a
// contradiction on one slot, or an over-scoped batch held in Held until the
// user decides to trim or keep it. At most one is pending per conversation.
type Clarification struct {
	Slot       requirements.Slot         `json:"slot,omitempty"`
	PriorValue string                    `json:"prior_value,omitempty"`
	NewValue   string                    `json:"new_value,omitempty"`
	Question   string                    `json:"question"`
	Held       []requirements.SlotUpdate `json:"held_updates,omitempty"`
	AskedAt    time.Time                 `json:"asked_at"`
}

// Conversation is the aggregate root: stage, history, and the requirements
// schema built so far. Everything here is persisted, so a conversation is
// fully reconstructible after a restart.
type Conversation struct {
	ID                   uint
	PublicID             string
	UserID               string
	Stage                Stage
	Messages             []Message
	Schema               *requirements.Schema
	PendingClarification *Clarification
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewConversation starts a fresh conversation for a user.
func NewConversation(userID string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		PublicID:  "conv_" + uuid.NewString(),
		UserID:    userID,
		Stage:     StageGathering,
		Messages:  []Message{},
		Schema:    requirements.NewSchema(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the history.
func (c *Conversation) Append(role MessageRole, content string) {
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// MoveTo performs a validated stage transition.
func (c *Conversation) MoveTo(target Stage) error {
	next, err := c.Stage.TransitionTo(target)
	if err != nil {
		return err
	}
	c.Stage = next
	return nil
}

// AskClarification records the pending question and enters clarifying.
func (c *Conversation) AskClarification(clar Clarification) error {
	if err := c.MoveTo(StageClarifying); err != nil {
		return err
	}
	clar.AskedAt = time.Now().UTC()
	c.PendingClarification = &clar
	return nil
}

// ResolveClarification clears the pending question.
func (c *Conversation) ResolveClarification() {
	c.PendingClarification = nil
}

// RecentMessages returns up to n most recent messages, oldest first.
func (c *Conversation) RecentMessages(n int) []Message {
	if n <= 0 || len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// Repository persists conversations.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	Update(ctx context.Context, conv *Conversation) error
	GetByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	GetByPublicIDForUser(ctx context.Context, publicID, userID string) (*Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]*Conversation, error)
}
