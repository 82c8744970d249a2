package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"bootlang/services/agent-api/internal/domain/conversation"
	"bootlang/services/agent-api/internal/domain/requirements"
)

// Conversation represents the database schema for conversations.
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID      string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID        string         `gorm:"type:varchar(64);index:idx_conversation_user;not null"`
	Stage         string         `gorm:"type:varchar(20);not null;default:'gathering'"`
	Messages      datatypes.JSON `gorm:"type:jsonb"`
	Schema        datatypes.JSON `gorm:"type:jsonb"`
	Clarification datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// EtoD converts the database entity to the domain model.
func (c *Conversation) EtoD() (*conversation.Conversation, error) {
	conv := &conversation.Conversation{
		ID:        c.ID,
		PublicID:  c.PublicID,
		UserID:    c.UserID,
		Stage:     conversation.Stage(c.Stage),
		Schema:    requirements.NewSchema(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	if len(c.Messages) > 0 {
		if err := json.Unmarshal(c.Messages, &conv.Messages); err != nil {
			return nil, fmt.Errorf("decode conversation messages: %w", err)
		}
	}
	if len(c.Schema) > 0 {
		if err := json.Unmarshal(c.Schema, conv.Schema); err != nil {
			return nil, fmt.Errorf("decode conversation schema: %w", err)
		}
	}
	if len(c.Clarification) > 0 && string(c.Clarification) != "null" {
		var clar conversation.Clarification
		if err := json.Unmarshal(c.Clarification, &clar); err != nil {
			return nil, fmt.Errorf("decode pending clarification: %w", err)
		}
		conv.PendingClarification = &clar
	}

	return conv, nil
}

// NewSchemaConversation converts the domain model to a database entity.
func NewSchemaConversation(conv *conversation.Conversation) (*Conversation, error) {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return nil, fmt.Errorf("encode conversation messages: %w", err)
	}
	schemaJSON, err := json.Marshal(conv.Schema)
	if err != nil {
		return nil, fmt.Errorf("encode conversation schema: %w", err)
	}

	entity := &Conversation{
		ID:       conv.ID,
		PublicID: conv.PublicID,
		UserID:   conv.UserID,
		Stage:    string(conv.Stage),
		Messages: datatypes.JSON(messages),
		Schema:   datatypes.JSON(schemaJSON),
	}

	if conv.PendingClarification != nil {
		clar, err := json.Marshal(conv.PendingClarification)
		if err != nil {
			return nil, fmt.Errorf("encode pending clarification: %w", err)
		}
		entity.Clarification = datatypes.JSON(clar)
	}

	return entity, nil
}
