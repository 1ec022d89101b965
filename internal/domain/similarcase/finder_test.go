package similarcase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/evidence"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/domain/similarcase"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fakeIndex struct {
	SearchFunc func(ctx context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error)
}

func (f *fakeIndex) SimilaritySearch(ctx context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
	return f.SearchFunc(ctx, query)
}

type fakeCases struct {
	GetFunc func(ctx context.Context, tenantID, caseID string) (*similarcase.ExceptionCase, error)
}

func (f *fakeCases) Get(ctx context.Context, tenantID, caseID string) (*similarcase.ExceptionCase, error) {
	return f.GetFunc(ctx, tenantID, caseID)
}

func caseChunk(caseID, content string, score float64) knowledge.ScoredDocument {
	return knowledge.ScoredDocument{
		Document: knowledge.Document{
			TenantID:   "tenant-1",
			SourceType: knowledge.SourceResolvedCase,
			SourceID:   caseID,
			Title:      "case " + caseID,
			Content:    content,
		},
		Score: score,
	}
}

func newFinder(index *fakeIndex, cases *fakeCases) *similarcase.Finder {
	retriever := evidence.NewRetriever(fakeEmbedder{}, index, evidence.DefaultConfig(), zerolog.Nop())
	return similarcase.NewFinder(retriever, cases, zerolog.Nop())
}

func TestFinder_FindByQuery_GroupsChunksByCase(t *testing.T) {
	index := &fakeIndex{
		SearchFunc: func(_ context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
			if query.SourceType != knowledge.SourceResolvedCase {
				t.Fatalf("finder must only search resolved cases, got %s", query.SourceType)
			}
			return []knowledge.ScoredDocument{
				caseChunk("EX-100", "Resolved by adjusting the receipt quantity.", 0.9),
				caseChunk("EX-100", "Earlier chunk of the same case.", 0.6),
				caseChunk("EX-200", "Vendor resent the corrected invoice.", 0.7),
			}, nil
		},
	}

	finder := newFinder(index, &fakeCases{})
	results, err := finder.FindByQuery(context.Background(), "tenant-1", "quantity mismatch", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected one entry per case, got %d", len(results))
	}
	if results[0].CaseID != "EX-100" || results[0].Similarity != 0.9 {
		t.Errorf("expected EX-100 at 0.9 first, got %s at %v", results[0].CaseID, results[0].Similarity)
	}
	if results[1].CaseID != "EX-200" {
		t.Errorf("expected EX-200 second, got %s", results[1].CaseID)
	}
	if !strings.Contains(results[0].OutcomeSummary, "receipt quantity") {
		t.Errorf("outcome summary should come from the best chunk: %q", results[0].OutcomeSummary)
	}
}

func TestFinder_FindByCaseID(t *testing.T) {
	amount := 1240.50
	cases := &fakeCases{
		GetFunc: func(_ context.Context, tenantID, caseID string) (*similarcase.ExceptionCase, error) {
			if tenantID != "tenant-1" || caseID != "EX-42" {
				t.Fatalf("unexpected lookup: %s/%s", tenantID, caseID)
			}
			return &similarcase.ExceptionCase{
				ID:       "EX-42",
				TenantID: "tenant-1",
				Type:     "quantity_mismatch",
				Domain:   "procurement",
				Severity: "high",
				Amount:   &amount,
			}, nil
		},
	}

	var capturedQuery string
	index := &fakeIndex{
		SearchFunc: func(_ context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
			return []knowledge.ScoredDocument{
				caseChunk("EX-7", "Resolved after tolerance review.", 0.8),
			}, nil
		},
	}
	embedderSpy := evidence.NewRetriever(embedFuncSpy{captured: &capturedQuery}, index, evidence.DefaultConfig(), zerolog.Nop())
	finder := similarcase.NewFinder(embedderSpy, cases, zerolog.Nop())

	results, err := finder.FindByCaseID(context.Background(), "tenant-1", "EX-42", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].CaseID != "EX-7" {
		t.Fatalf("unexpected results: %v", results)
	}

	for _, want := range []string{"type: quantity_mismatch", "domain: procurement", "severity: high", "amount: 1240.50"} {
		if !strings.Contains(capturedQuery, want) {
			t.Errorf("query missing %q: %q", want, capturedQuery)
		}
	}
}

// embedFuncSpy records the query text handed to the embedder.
type embedFuncSpy struct {
	captured *string
}

func (s embedFuncSpy) Embed(_ context.Context, text string) ([]float32, error) {
	*s.captured = text
	return []float32{1, 0}, nil
}

func TestFinder_FindByCaseID_NotFound(t *testing.T) {
	cases := &fakeCases{
		GetFunc: func(ctx context.Context, _, caseID string) (*similarcase.ExceptionCase, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound, "case not found: "+caseID, nil,
				"d8b7a4f1-1111-2222-3333-444455556666")
		},
	}
	finder := newFinder(&fakeIndex{
		SearchFunc: func(context.Context, knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
			return nil, nil
		},
	}, cases)

	_, err := finder.FindByCaseID(context.Background(), "tenant-1", "EX-404", 3)
	if !platformerrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
