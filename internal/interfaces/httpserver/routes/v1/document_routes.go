package v1

import (
	"github.com/gin-gonic/gin"

	"bootlang/services/agent-api/internal/interfaces/httpserver/handlers"
)

func registerDocumentRoutes(router gin.IRoutes, handler *handlers.DocumentHandler) {
	router.POST("/documents", handler.Ingest)
	router.GET("/documents", handler.List)
	router.DELETE("/documents/:document_id", handler.Delete)
}
