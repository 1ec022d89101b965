package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/session"
	"exception-server/services/assistant-api/internal/interfaces/httpserver/dto"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// SessionHandler exposes session CRUD over HTTP.
type SessionHandler struct {
	store      session.Store
	sessionTTL time.Duration
	turnsLimit int
	log        zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(store session.Store, sessionTTL time.Duration, turnsLimit int, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		store:      store,
		sessionTTL: sessionTTL,
		turnsLimit: turnsLimit,
		log:        log.With().Str("handler", "session").Logger(),
	}
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerRoute,
			platformerrors.ErrorTypeInvalidArgument,
			"invalid session payload",
			err,
			"4f0a8b1c-2d3e-4f5a-6b7c-8d9e0f1a2b3c",
		), "invalid session payload")
		return
	}

	created, err := h.store.Create(c.Request.Context(), session.CreateParams{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Title:    req.Title,
		Context:  req.Context,
		TTL:      h.sessionTTL,
	})
	if err != nil {
		dto.HandleError(c, err, "failed to create session")
		return
	}

	c.JSON(http.StatusCreated, dto.MapSessionToResponse(created))
}

// Get handles GET /v1/sessions/:session_id
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("session_id")
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		dto.HandleError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerRoute,
			platformerrors.ErrorTypeInvalidArgument,
			"tenant_id query parameter is required",
			nil,
			"5a1b9c2d-3e4f-5a6b-7c8d-9e0f1a2b3c4d",
		), "tenant_id query parameter is required")
		return
	}

	found, err := h.store.Get(c.Request.Context(), sessionID, tenantID)
	if err != nil {
		dto.HandleError(c, err, "failed to get session")
		return
	}

	turns, err := h.store.ListTurns(c.Request.Context(), sessionID, tenantID, h.turnsLimit)
	if err != nil {
		dto.HandleError(c, err, "failed to list session turns")
		return
	}

	resp := dto.SessionWithTurnsResponse{
		Session: dto.MapSessionToResponse(found),
		Turns:   make([]dto.TurnResponse, 0, len(turns)),
	}
	for _, turn := range turns {
		resp.Turns = append(resp.Turns, dto.MapTurnToResponse(turn))
	}

	c.JSON(http.StatusOK, resp)
}

// ListTurns handles GET /v1/sessions/:session_id/turns
func (h *SessionHandler) ListTurns(c *gin.Context) {
	sessionID := c.Param("session_id")
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		dto.HandleError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerRoute,
			platformerrors.ErrorTypeInvalidArgument,
			"tenant_id query parameter is required",
			nil,
			"6b2c0d3e-4f5a-6b7c-8d9e-0f1a2b3c4d5e",
		), "tenant_id query parameter is required")
		return
	}

	turns, err := h.store.ListTurns(c.Request.Context(), sessionID, tenantID, h.turnsLimit)
	if err != nil {
		dto.HandleError(c, err, "failed to list session turns")
		return
	}

	resp := make([]dto.TurnResponse, 0, len(turns))
	for _, turn := range turns {
		resp = append(resp, dto.MapTurnToResponse(turn))
	}

	c.JSON(http.StatusOK, gin.H{"turns": resp})
}
