package dto

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"exception-server/services/assistant-api/internal/domain/session"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errResp := ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			Message:       message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// SessionResponse is returned for session reads and creates.
type SessionResponse struct {
	ID             string            `json:"id"`
	TenantID       string            `json:"tenant_id"`
	UserID         string            `json:"user_id"`
	Title          *string           `json:"title,omitempty"`
	Context        map[string]string `json:"context,omitempty"`
	Active         bool              `json:"active"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

// TurnResponse is one persisted message within a session.
type TurnResponse struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	Role          string         `json:"role"`
	Content       string         `json:"content"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// SessionWithTurnsResponse bundles a session with its turns.
type SessionWithTurnsResponse struct {
	Session SessionResponse `json:"session"`
	Turns   []TurnResponse  `json:"turns"`
}

// UpsertDocumentResponse acknowledges a document upsert.
type UpsertDocumentResponse struct {
	Status     string `json:"status"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
}

// MapSessionToResponse converts a domain session for HTTP clients.
func MapSessionToResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:             s.ID,
		TenantID:       s.TenantID,
		UserID:         s.UserID,
		Title:          s.Title,
		Context:        s.Context,
		Active:         s.Active,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
	}
}

// MapTurnToResponse converts a domain turn for HTTP clients.
func MapTurnToResponse(t session.Turn) TurnResponse {
	return TurnResponse{
		ID:            t.ID,
		SessionID:     t.SessionID,
		Role:          string(t.Role),
		Content:       t.Content,
		Metadata:      t.Metadata,
		CorrelationID: t.CorrelationID,
		CreatedAt:     t.CreatedAt,
	}
}
