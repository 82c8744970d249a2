package v1

import (
	"github.com/gin-gonic/gin"

	"bootlang/services/agent-api/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.POST("/conversations/messages", handler.Converse)
	router.GET("/conversations/:conversation_id", handler.Get)
	router.POST("/conversations/:conversation_id/generate", handler.Generate)
	router.GET("/conversations/:conversation_id/artifacts", handler.Artifacts)
}
