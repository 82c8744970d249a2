package responses

import (
	"time"

	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/domain/conversation"
	"bootlang/services/agent-api/internal/domain/document"
)

// TurnPayload is returned from one conversation turn.
type TurnPayload struct {
	ConversationID string `json:"conversation_id"`
	Stage          string `json:"stage"`
	Reply          string `json:"reply"`
}

// FromTurn maps a turn result to its DTO.
func FromTurn(r *agent.TurnResult) TurnPayload {
	return TurnPayload{
		ConversationID: r.ConversationID,
		Stage:          string(r.Stage),
		Reply:          r.Reply,
	}
}

// MessagePayload is one history entry.
type MessagePayload struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SlotPayload is the client view of one requirement slot.
type SlotPayload struct {
	State string   `json:"state"`
	Value string   `json:"value,omitempty"`
	Items []string `json:"items,omitempty"`
}

// ConversationPayload is the full conversation view.
type ConversationPayload struct {
	ID              string                 `json:"id"`
	Stage           string                 `json:"stage"`
	Messages        []MessagePayload       `json:"messages"`
	Requirements    map[string]SlotPayload `json:"requirements"`
	PendingQuestion string                 `json:"pending_question,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// FromConversation maps the domain conversation to its DTO.
func FromConversation(conv *conversation.Conversation) ConversationPayload {
	messages := make([]MessagePayload, len(conv.Messages))
	for i, m := range conv.Messages {
		messages[i] = MessagePayload{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}

	slots := make(map[string]SlotPayload, len(conv.Schema.Slots))
	for slot, value := range conv.Schema.Slots {
		slots[string(slot)] = SlotPayload{
			State: string(value.State),
			Value: value.Value,
			Items: value.Items,
		}
	}

	payload := ConversationPayload{
		ID:           conv.PublicID,
		Stage:        string(conv.Stage),
		Messages:     messages,
		Requirements: slots,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
	}
	if conv.PendingClarification != nil {
		payload.PendingQuestion = conv.PendingClarification.Question
	}
	return payload
}

// DocumentPayload is the client view of an ingested document.
type DocumentPayload struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Type       string    `json:"type"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromDocument maps the domain document to its DTO.
func FromDocument(doc *document.Document) DocumentPayload {
	return DocumentPayload{
		ID:         doc.PublicID,
		Filename:   doc.Filename,
		Type:       string(doc.Type),
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt,
	}
}

// DocumentListPayload wraps the documents collection.
type DocumentListPayload struct {
	Data []DocumentPayload `json:"data"`
}

// ArtifactPayload is one generated file.
type ArtifactPayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ArtifactSetPayload is the full generated set.
type ArtifactSetPayload struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	ProjectName    string            `json:"project_name"`
	Artifacts      []ArtifactPayload `json:"artifacts"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// FromArtifactSet maps the domain artifact set to its DTO.
func FromArtifactSet(set *artifact.Set) ArtifactSetPayload {
	artifacts := make([]ArtifactPayload, len(set.Artifacts))
	for i, a := range set.Artifacts {
		artifacts[i] = ArtifactPayload{
			Name:    a.Name,
			Content: a.Content,
		}
	}
	return ArtifactSetPayload{
		ID:             set.PublicID,
		ConversationID: set.ConversationID,
		ProjectName:    set.ProjectName,
		Artifacts:      artifacts,
		GeneratedAt:    set.GeneratedAt,
	}
}
