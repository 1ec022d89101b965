package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exception-server/services/assistant-api/internal/domain/session"
	"exception-server/services/assistant-api/internal/interfaces/httpserver/handlers"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// MockSessionStore is a mock implementation of session.Store.
type MockSessionStore struct {
	CreateFunc    func(ctx context.Context, params session.CreateParams) (*session.Session, error)
	GetFunc       func(ctx context.Context, id, tenantID string) (*session.Session, error)
	ListTurnsFunc func(ctx context.Context, sessionID, tenantID string, limit int) ([]session.Turn, error)
}

func (m *MockSessionStore) Create(ctx context.Context, params session.CreateParams) (*session.Session, error) {
	return m.CreateFunc(ctx, params)
}

func (m *MockSessionStore) Get(ctx context.Context, id, tenantID string) (*session.Session, error) {
	return m.GetFunc(ctx, id, tenantID)
}

func (m *MockSessionStore) AppendTurn(context.Context, string, string, session.Role, string, map[string]any) (*session.Turn, error) {
	return nil, nil
}

func (m *MockSessionStore) ListTurns(ctx context.Context, sessionID, tenantID string, limit int) ([]session.Turn, error) {
	return m.ListTurnsFunc(ctx, sessionID, tenantID, limit)
}

func setupSessionRouter(store session.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handler := handlers.NewSessionHandler(store, time.Hour, 50, zerolog.Nop())
	engine.POST("/v1/sessions", handler.Create)
	engine.GET("/v1/sessions/:session_id", handler.Get)
	engine.GET("/v1/sessions/:session_id/turns", handler.ListTurns)
	return engine
}

func TestSessionHandler_Create(t *testing.T) {
	store := &MockSessionStore{
		CreateFunc: func(_ context.Context, params session.CreateParams) (*session.Session, error) {
			assert.Equal(t, "tenant-1", params.TenantID)
			assert.Equal(t, time.Hour, params.TTL)
			now := time.Now().UTC()
			return &session.Session{
				ID:             "sess_1",
				TenantID:       params.TenantID,
				UserID:         params.UserID,
				Active:         true,
				CreatedAt:      now,
				LastActivityAt: now,
			}, nil
		},
	}
	router := setupSessionRouter(store)

	body := `{"tenant_id":"tenant-1","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "sess_1", payload["id"])
}

func TestSessionHandler_Get(t *testing.T) {
	now := time.Now().UTC()
	store := &MockSessionStore{
		GetFunc: func(_ context.Context, id, tenantID string) (*session.Session, error) {
			assert.Equal(t, "sess_1", id)
			assert.Equal(t, "tenant-1", tenantID)
			return &session.Session{ID: id, TenantID: tenantID, UserID: "user-1", Active: true, CreatedAt: now, LastActivityAt: now}, nil
		},
		ListTurnsFunc: func(context.Context, string, string, int) ([]session.Turn, error) {
			return []session.Turn{
				{ID: "turn_1", SessionID: "sess_1", Role: session.RoleUser, Content: "hi", CreatedAt: now},
			}, nil
		},
	}
	router := setupSessionRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/sess_1?tenant_id=tenant-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
		Turns []struct {
			Role string `json:"role"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "sess_1", payload.Session.ID)
	require.Len(t, payload.Turns, 1)
	assert.Equal(t, "user", payload.Turns[0].Role)
}

func TestSessionHandler_Get_RequiresTenant(t *testing.T) {
	router := setupSessionRouter(&MockSessionStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/sess_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionHandler_Get_NotFound(t *testing.T) {
	store := &MockSessionStore{
		GetFunc: func(ctx context.Context, id, _ string) (*session.Session, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound, "session not found: "+id, nil,
				"0011aabb-2233-ccdd-4455-eeff66778899")
		},
	}
	router := setupSessionRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/missing?tenant_id=tenant-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
