package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/infrastructure/metrics"
	"bootlang/services/agent-api/internal/infrastructure/observability"
	"bootlang/services/agent-api/internal/interfaces/httpserver/requests"
	"bootlang/services/agent-api/internal/interfaces/httpserver/responses"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// ConversationHandler exposes HTTP entrypoints for the conversation API.
type ConversationHandler struct {
	service *agent.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service *agent.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// Converse handles POST /v1/conversations/messages
// @Summary Send a chat message
// @Description Processes one conversation turn and returns the agent's reply
// @Tags Conversations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param request body requests.ConverseRequest true "Message"
// @Success 200 {object} responses.TurnPayload
// @Failure 400 {object} responses.ErrorResponse
// @Router /v1/conversations/messages [post]
func (h *ConversationHandler) Converse(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	var req requests.ConverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"invalid request body", "8c1d9b2e-3a45-4f67-b890-1c2d3e4f5a6b")
		return
	}

	ctx, span := observability.StartTurnSpan(c.Request.Context(), req.ConversationID)
	defer span.End()

	result, err := h.service.Converse(ctx, user, req.ConversationID, req.Message)
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "failed to process message")
		return
	}

	metrics.RecordTurn(string(result.Stage))
	c.JSON(http.StatusOK, responses.FromTurn(result))
}

// Get handles GET /v1/conversations/:conversation_id
// @Summary Get a conversation
// @Description Retrieves the conversation history, stage, and requirements
// @Tags Conversations
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} responses.ConversationPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), user, c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}

	c.JSON(http.StatusOK, responses.FromConversation(conv))
}

// Generate handles POST /v1/conversations/:conversation_id/generate
// @Summary Generate planning documents
// @Description Renders the document set synchronously for a confirmed conversation
// @Tags Conversations
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} responses.ArtifactSetPayload
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/generate [post]
func (h *ConversationHandler) Generate(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	started := time.Now()
	ctx, span := observability.StartGenerationSpan(c.Request.Context(), c.Param("conversation_id"), "http")
	defer span.End()

	set, err := h.service.Generate(ctx, user, c.Param("conversation_id"))
	if err != nil {
		observability.RecordError(span, err)
		metrics.RecordGeneration("http", "failed", time.Since(started))
		responses.HandleError(c, err, "failed to generate documents")
		return
	}
	metrics.RecordGeneration("http", "completed", time.Since(started))

	c.JSON(http.StatusOK, responses.FromArtifactSet(set))
}

// Artifacts handles GET /v1/conversations/:conversation_id/artifacts
// @Summary Get generated documents
// @Description Retrieves the latest generated document set
// @Tags Conversations
// @Produce json
// @Param X-User-ID header string true "User ID"
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} responses.ArtifactSetPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{conversation_id}/artifacts [get]
func (h *ConversationHandler) Artifacts(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}

	set, err := h.service.LatestArtifacts(c.Request.Context(), user, c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get artifacts")
		return
	}

	c.JSON(http.StatusOK, responses.FromArtifactSet(set))
}
