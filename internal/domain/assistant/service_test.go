package assistant_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/assistant"
	"exception-server/services/assistant-api/internal/domain/compose"
	"exception-server/services/assistant-api/internal/domain/evidence"
	"exception-server/services/assistant-api/internal/domain/intent"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/domain/playbook"
	"exception-server/services/assistant-api/internal/domain/safety"
	"exception-server/services/assistant-api/internal/domain/session"
	"exception-server/services/assistant-api/internal/domain/similarcase"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// MockStore is an in-memory session.Store with overridable behaviors.
type MockStore struct {
	CreateFunc     func(ctx context.Context, params session.CreateParams) (*session.Session, error)
	GetFunc        func(ctx context.Context, id, tenantID string) (*session.Session, error)
	AppendTurnFunc func(ctx context.Context, sessionID, tenantID string, role session.Role, content string, metadata map[string]any) (*session.Turn, error)

	turns []session.Turn
}

func (m *MockStore) Create(ctx context.Context, params session.CreateParams) (*session.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	now := time.Now().UTC()
	return &session.Session{
		ID:             "sess_new",
		TenantID:       params.TenantID,
		UserID:         params.UserID,
		Active:         true,
		CreatedAt:      now,
		LastActivityAt: now,
	}, nil
}

func (m *MockStore) Get(ctx context.Context, id, tenantID string) (*session.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, tenantID)
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "session not found: "+id, nil,
		"aaaa1111-bbbb-2222-cccc-3333dddd4444")
}

func (m *MockStore) AppendTurn(ctx context.Context, sessionID, tenantID string, role session.Role, content string, metadata map[string]any) (*session.Turn, error) {
	if m.AppendTurnFunc != nil {
		return m.AppendTurnFunc(ctx, sessionID, tenantID, role, content, metadata)
	}
	turn := session.Turn{
		ID:        "turn",
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	m.turns = append(m.turns, turn)
	return &turn, nil
}

func (m *MockStore) ListTurns(context.Context, string, string, int) ([]session.Turn, error) {
	return m.turns, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type stubIndex struct {
	docs []knowledge.ScoredDocument
	err  error
}

func (s *stubIndex) SimilaritySearch(_ context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []knowledge.ScoredDocument
	for _, doc := range s.docs {
		if doc.Document.SourceType == query.SourceType {
			out = append(out, doc)
		}
	}
	return out, nil
}

type stubCases struct {
	record *similarcase.ExceptionCase
}

func (s *stubCases) Get(ctx context.Context, _, caseID string) (*similarcase.ExceptionCase, error) {
	if s.record != nil {
		return s.record, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "case not found: "+caseID, nil,
		"eeee5555-ffff-6666-aaaa-7777bbbb8888")
}

type stubCatalog struct {
	procs []playbook.Procedure
}

func (s *stubCatalog) ListProcedures(context.Context, string) ([]playbook.Procedure, error) {
	return s.procs, nil
}

func newService(store *MockStore, index *stubIndex, cases *stubCases, catalog *stubCatalog) assistant.Service {
	log := zerolog.Nop()
	retriever := evidence.NewRetriever(stubEmbedder{}, index, evidence.DefaultConfig(), log)
	finder := similarcase.NewFinder(retriever, cases, log)
	recommender := playbook.NewRecommender(catalog, retriever, playbook.DefaultWeights(), log)

	return assistant.NewService(
		store,
		intent.NewClassifier(),
		retriever,
		finder,
		recommender,
		compose.NewComposer(log),
		safety.NewEvaluator(log),
		nil,
		cases,
		assistant.Config{TopK: 5, SessionTTL: time.Hour},
		log,
	)
}

func policyDoc(content string, score float64) knowledge.ScoredDocument {
	return knowledge.ScoredDocument{
		Document: knowledge.Document{
			TenantID:   "tenant-1",
			SourceType: knowledge.SourcePolicy,
			SourceID:   "pol-1",
			Title:      "Tolerance Policy",
			Content:    content,
		},
		Score: score,
	}
}

func TestService_Chat_FullPipeline(t *testing.T) {
	store := &MockStore{}
	index := &stubIndex{docs: []knowledge.ScoredDocument{
		policyDoc("Quantity tolerance is two percent for purchase orders.", 0.9),
	}}
	svc := newService(store, index, &stubCases{}, &stubCatalog{})

	result, err := svc.Chat(context.Background(), assistant.ChatRequest{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Message:  "Summarize today's exceptions",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SessionID == "" {
		t.Error("expected a session id")
	}
	if result.Intent != "summary" {
		t.Errorf("expected summary intent, got %q", result.Intent)
	}
	if result.Answer == "" || len(result.Bullets) == 0 {
		t.Error("expected a composed answer with bullets")
	}
	if len(result.Citations) != 1 {
		t.Errorf("expected one citation, got %d", len(result.Citations))
	}
	if result.Safety.Mode != safety.ModeReadOnly {
		t.Errorf("expected READ_ONLY mode, got %q", result.Safety.Mode)
	}
	if len(result.Safety.ActionsAllowed) != 0 {
		t.Errorf("actions allowed must be empty: %v", result.Safety.ActionsAllowed)
	}

	// Both the user turn and the assistant turn were persisted.
	if len(store.turns) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d", len(store.turns))
	}
	if store.turns[0].Role != session.RoleUser || store.turns[1].Role != session.RoleAssistant {
		t.Errorf("turn roles wrong: %v, %v", store.turns[0].Role, store.turns[1].Role)
	}
}

func TestService_Chat_Validation(t *testing.T) {
	svc := newService(&MockStore{}, &stubIndex{}, &stubCases{}, &stubCatalog{})

	tests := []struct {
		name string
		req  assistant.ChatRequest
	}{
		{"missing tenant", assistant.ChatRequest{UserID: "u", Message: "m"}},
		{"missing user", assistant.ChatRequest{TenantID: "t", Message: "m"}},
		{"missing message", assistant.ChatRequest{TenantID: "t", UserID: "u"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), tt.req)
			if !platformerrors.IsInvalidArgument(err) {
				t.Errorf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestService_Chat_FallbackOnUserTurnFailure(t *testing.T) {
	store := &MockStore{
		AppendTurnFunc: func(ctx context.Context, _, _ string, _ session.Role, _ string, _ map[string]any) (*session.Turn, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError, "database gone", nil,
				"1234abcd-5678-ef90-1234-abcd5678ef90")
		},
	}
	svc := newService(store, &stubIndex{}, &stubCases{}, &stubCatalog{})

	result, err := svc.Chat(context.Background(), assistant.ChatRequest{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Message:  "Summarize today's exceptions",
	})
	if err != nil {
		t.Fatalf("fallback must not return an error: %v", err)
	}
	if result.Intent != "error" {
		t.Errorf("expected error intent, got %q", result.Intent)
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", result.Confidence)
	}
	if len(result.Bullets) != 4 {
		t.Errorf("expected the fixed fallback bullets, got %d", len(result.Bullets))
	}
	if len(result.Safety.Violations) != 1 {
		t.Errorf("expected the cause as a violation, got %v", result.Safety.Violations)
	}
	if result.Safety.Mode != safety.ModeReadOnly {
		t.Errorf("fallback must stay read-only, got %q", result.Safety.Mode)
	}
}

func TestService_Chat_FallbackOnSessionStorePanic(t *testing.T) {
	store := &MockStore{
		CreateFunc: func(context.Context, session.CreateParams) (*session.Session, error) {
			panic("session store gone")
		},
	}
	svc := newService(store, &stubIndex{}, &stubCases{}, &stubCatalog{})

	result, err := svc.Chat(context.Background(), assistant.ChatRequest{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Message:  "Summarize today's exceptions",
	})
	if err != nil {
		t.Fatalf("a panicking store must not return an error: %v", err)
	}
	if result == nil {
		t.Fatal("expected the fallback result, got nil")
	}
	if result.SessionID != "" {
		t.Errorf("no session was resolved, expected empty session id, got %q", result.SessionID)
	}
	if result.Intent != "error" {
		t.Errorf("expected error intent, got %q", result.Intent)
	}
	if result.Safety.Mode != safety.ModeReadOnly {
		t.Errorf("fallback must stay read-only, got %q", result.Safety.Mode)
	}
}

func TestService_Chat_SessionReuse(t *testing.T) {
	existing := &session.Session{
		ID:             "sess_existing",
		TenantID:       "tenant-1",
		UserID:         "user-1",
		Active:         true,
		CreatedAt:      time.Now().UTC(),
		LastActivityAt: time.Now().UTC(),
	}

	t.Run("same user reuses the session", func(t *testing.T) {
		store := &MockStore{
			GetFunc: func(context.Context, string, string) (*session.Session, error) {
				return existing, nil
			},
		}
		svc := newService(store, &stubIndex{}, &stubCases{}, &stubCatalog{})

		result, err := svc.Chat(context.Background(), assistant.ChatRequest{
			TenantID:  "tenant-1",
			UserID:    "user-1",
			SessionID: "sess_existing",
			Message:   "hello",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SessionID != "sess_existing" {
			t.Errorf("expected session reuse, got %q", result.SessionID)
		}
	})

	t.Run("different user gets a fresh session", func(t *testing.T) {
		store := &MockStore{
			GetFunc: func(context.Context, string, string) (*session.Session, error) {
				return existing, nil
			},
		}
		svc := newService(store, &stubIndex{}, &stubCases{}, &stubCatalog{})

		result, err := svc.Chat(context.Background(), assistant.ChatRequest{
			TenantID:  "tenant-1",
			UserID:    "user-2",
			SessionID: "sess_existing",
			Message:   "hello",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SessionID == "sess_existing" {
			t.Error("another user's session must not be reused")
		}
	})

	t.Run("expired session is replaced", func(t *testing.T) {
		past := time.Now().UTC().Add(-time.Hour)
		expired := *existing
		expired.ExpiresAt = &past
		store := &MockStore{
			GetFunc: func(context.Context, string, string) (*session.Session, error) {
				return &expired, nil
			},
		}
		svc := newService(store, &stubIndex{}, &stubCases{}, &stubCatalog{})

		result, err := svc.Chat(context.Background(), assistant.ChatRequest{
			TenantID:  "tenant-1",
			UserID:    "user-1",
			SessionID: "sess_existing",
			Message:   "hello",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SessionID == "sess_existing" {
			t.Error("expired session must not be reused")
		}
	})
}

func TestService_Chat_RecommendPlaybookIntent(t *testing.T) {
	amount := 500.0
	cases := &stubCases{record: &similarcase.ExceptionCase{
		ID:       "EX-55",
		TenantID: "tenant-1",
		Type:     "quantity_mismatch",
		Severity: "high",
		Amount:   &amount,
	}}
	catalog := &stubCatalog{procs: []playbook.Procedure{{
		ID:   "pb-qty-01",
		Name: "Quantity Mismatch Resolution",
		Steps: []playbook.Step{
			{Order: 1, Label: "Compare quantities"},
			{Order: 2, Label: "Check tolerance"},
		},
		Conditions: playbook.MatchConditions{
			ExceptionTypes: []string{"quantity_mismatch"},
			Severities:     []string{"high"},
		},
	}}}
	svc := newService(&MockStore{}, &stubIndex{}, cases, catalog)

	result, err := svc.Chat(context.Background(), assistant.ChatRequest{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Message:  "Recommend a playbook for EX-55",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != "recommend_playbook" {
		t.Fatalf("expected recommend_playbook intent, got %q", result.Intent)
	}
	if result.RecommendedPlaybook == nil {
		t.Fatal("expected a recommended playbook")
	}
	if result.RecommendedPlaybook.PlaybookID != "pb-qty-01" {
		t.Errorf("unexpected playbook: %s", result.RecommendedPlaybook.PlaybookID)
	}
	if !strings.Contains(result.Answer, "Quantity Mismatch Resolution") {
		t.Errorf("answer should name the playbook: %q", result.Answer)
	}
}

func TestService_Chat_RetrieverFailureStillAnswers(t *testing.T) {
	store := &MockStore{}
	index := &stubIndex{err: errors.New("index offline")}
	svc := newService(store, index, &stubCases{}, &stubCatalog{})

	result, err := svc.Chat(context.Background(), assistant.ChatRequest{
		TenantID: "tenant-1",
		UserID:   "user-1",
		Message:  "Summarize today's exceptions",
	})
	if err != nil {
		t.Fatalf("retrieval failure must not fail the turn: %v", err)
	}
	if result.Intent != "summary" {
		t.Errorf("expected summary intent, got %q", result.Intent)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations without evidence, got %d", len(result.Citations))
	}
	if len(result.Bullets) != 3 {
		t.Errorf("expected the generic fallback bullets, got %d", len(result.Bullets))
	}
}
