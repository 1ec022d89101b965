package session

import (
	"context"
	"time"
)

// CreateParams carries the inputs for creating a new session.
type CreateParams struct {
	TenantID string
	UserID   string
	Title    *string
	Context  map[string]string
	TTL      time.Duration
}

// Store persists sessions and their turns. Implemented by the Postgres
// repository; test doubles satisfy the same contract.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*Session, error)
	// Get resolves a session by id within a tenant. Returns a NOT_FOUND
	// platform error when absent.
	Get(ctx context.Context, id, tenantID string) (*Session, error)
	// AppendTurn persists one turn and advances the session's last activity.
	AppendTurn(ctx context.Context, sessionID, tenantID string, role Role, content string, metadata map[string]any) (*Turn, error)
	// ListTurns returns turns ordered oldest first.
	ListTurns(ctx context.Context, sessionID, tenantID string, limit int) ([]Turn, error)
}
