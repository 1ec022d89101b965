package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/assistant"
	"exception-server/services/assistant-api/internal/interfaces/httpserver/dto"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// AssistantHandler exposes the chat pipeline over HTTP.
type AssistantHandler struct {
	service assistant.Service
	log     zerolog.Logger
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(service assistant.Service, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		log:     log.With().Str("handler", "assistant").Logger(),
	}
}

// Chat handles POST /v1/assistant/chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerRoute,
			platformerrors.ErrorTypeInvalidArgument,
			"invalid chat request payload",
			err,
			"3e9f7a0b-1c2d-3e4f-5a6b-7c8d9e0f1a2b",
		), "invalid chat request payload")
		return
	}

	result, err := h.service.Chat(c.Request.Context(), assistant.ChatRequest{
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Message:   req.Message,
		Domain:    req.Domain,
	})
	if err != nil {
		dto.HandleError(c, err, "failed to process chat message")
		return
	}

	c.JSON(http.StatusOK, result)
}
