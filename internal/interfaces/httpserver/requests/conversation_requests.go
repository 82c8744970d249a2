package requests

// ConverseRequest is the body for POST /v1/conversations/messages.
// ConversationID is empty when starting a new conversation.
type ConverseRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}
