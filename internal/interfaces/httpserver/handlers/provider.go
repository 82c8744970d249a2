package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/interfaces/httpserver/responses"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Conversation *ConversationHandler
	Document     *DocumentHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(agentService *agent.Service, documentService *document.Service, log zerolog.Logger) *Provider {
	return &Provider{
		Conversation: NewConversationHandler(agentService, log),
		Document:     NewDocumentHandler(documentService, log),
	}
}

// userID extracts the calling user from the X-User-ID header. Every API
// route is scoped to a user; a missing header is a client error.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"X-User-ID header is required", "2f4b1a77-6f5e-4d0c-9a34-5b8f1c2d6e90")
		return "", false
	}
	return id, true
}

// statusOK is a tiny helper for delete-style endpoints.
func statusOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
