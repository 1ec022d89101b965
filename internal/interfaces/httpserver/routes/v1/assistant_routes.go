package v1

import (
	"github.com/gin-gonic/gin"

	"exception-server/services/assistant-api/internal/interfaces/httpserver/handlers"
)

func registerAssistantRoutes(router gin.IRoutes, handler *handlers.AssistantHandler) {
	router.POST("/assistant/chat", handler.Chat)
}
