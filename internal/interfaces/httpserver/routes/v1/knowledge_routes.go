package v1

import (
	"github.com/gin-gonic/gin"

	"exception-server/services/assistant-api/internal/interfaces/httpserver/handlers"
)

func registerKnowledgeRoutes(router gin.IRoutes, handler *handlers.KnowledgeHandler) {
	router.PUT("/knowledge/documents", handler.Upsert)
}
