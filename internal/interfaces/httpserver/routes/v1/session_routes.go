package v1

import (
	"github.com/gin-gonic/gin"

	"exception-server/services/assistant-api/internal/interfaces/httpserver/handlers"
)

func registerSessionRoutes(router gin.IRoutes, handler *handlers.SessionHandler) {
	router.POST("/sessions", handler.Create)
	router.GET("/sessions/:session_id", handler.Get)
	router.GET("/sessions/:session_id/turns", handler.ListTurns)
}
