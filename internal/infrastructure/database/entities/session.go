package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"exception-server/services/assistant-api/internal/domain/session"
)

// Session represents the database schema for conversation sessions.
type Session struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID       string     `gorm:"type:varchar(64);index:idx_session_tenant_user;not null"`
	UserID         string     `gorm:"type:varchar(64);index:idx_session_tenant_user;not null"`
	Title          *string    `gorm:"type:varchar(256)"`
	Context        JSONMap    `gorm:"type:jsonb"`
	Active         bool       `gorm:"not null;default:true"`
	ExpiresAt      *time.Time `gorm:"type:timestamp"`
	LastActivityAt time.Time  `gorm:"not null"`

	Turns []SessionTurn `gorm:"foreignKey:SessionID"`
}

// TableName specifies the table name for Session.
func (Session) TableName() string {
	return "assistant_sessions"
}

// SessionTurn represents one persisted message within a session.
type SessionTurn struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID      string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	SessionID     uint           `gorm:"index:idx_turn_session;not null"`
	TenantID      string         `gorm:"type:varchar(64);index;not null"`
	Role          string         `gorm:"type:varchar(20);not null"`
	Content       string         `gorm:"type:text;not null"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	CorrelationID *string        `gorm:"type:varchar(64);index"`
	TokenCount    int            `gorm:"default:0"`
	LatencyMs     int64          `gorm:"default:0"`
}

// TableName specifies the table name for SessionTurn.
func (SessionTurn) TableName() string {
	return "assistant_session_turns"
}

// ===============================================
// Domain Conversion
// ===============================================

// NewSchemaSession converts a domain session to the database schema.
func NewSchemaSession(s *session.Session) *Session {
	return &Session{
		PublicID:       s.ID,
		TenantID:       s.TenantID,
		UserID:         s.UserID,
		Title:          s.Title,
		Context:        JSONMap(s.Context),
		Active:         s.Active,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
	}
}

// EtoD converts the session entity to its domain representation.
func (e *Session) EtoD() *session.Session {
	return &session.Session{
		ID:             e.PublicID,
		TenantID:       e.TenantID,
		UserID:         e.UserID,
		Title:          e.Title,
		Context:        map[string]string(e.Context),
		Active:         e.Active,
		ExpiresAt:      e.ExpiresAt,
		CreatedAt:      e.CreatedAt,
		LastActivityAt: e.LastActivityAt,
	}
}

// EtoD converts the turn entity to its domain representation.
func (e *SessionTurn) EtoD(sessionPublicID string) session.Turn {
	turn := session.Turn{
		ID:        e.PublicID,
		SessionID: sessionPublicID,
		Role:      session.Role(e.Role),
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
	if e.CorrelationID != nil {
		turn.CorrelationID = *e.CorrelationID
	}
	turn.TokenCount = e.TokenCount
	turn.LatencyMs = e.LatencyMs
	if len(e.Metadata) > 0 {
		var meta map[string]any
		if err := json.Unmarshal(e.Metadata, &meta); err == nil {
			turn.Metadata = meta
		}
	}
	return turn
}

// ===============================================
// JSON Types for GORM
// ===============================================

// JSONMap is a custom type for map[string]string stored as JSON
type JSONMap map[string]string

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, okStr := value.(string); okStr {
			bytes = []byte(s)
		} else {
			return errors.New("unsupported type for JSONMap")
		}
	}
	return json.Unmarshal(bytes, j)
}
