// Package session holds the conversation session and turn domain model.
package session

import "time"

// Role indicates who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session represents a conversation thread owned by one user within a tenant.
type Session struct {
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

// Expired reports whether the session may no longer be reused.
func (s *Session) Expired(now time.Time) bool {
	if !s.Active {
		return true
	}
	if s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// Turn is one message within a session. Immutable once persisted.
type Turn struct {
	ID            string         `json:"id"`
	SessionID     string         `json:"session_id"`
	Role          Role           `json:"role"`
	Content       string         `json:"content"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	TokenCount    int            `json:"token_count,omitempty"`
	LatencyMs     int64          `json:"latency_ms,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
