// Package similarcase finds previously resolved cases that resemble an open
// exception, either by case id or by free-text query.
package similarcase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/evidence"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

const outcomeSummaryMaxLen = 150

// ExceptionCase is the structured case record exposed by the case repository.
type ExceptionCase struct {
	ID           string
	TenantID     string
	Type         string
	Domain       string
	SourceSystem string
	Entity       string
	Severity     string
	Amount       *float64
}

// CaseRepository resolves case records per tenant. Implemented elsewhere.
type CaseRepository interface {
	// Get returns the case or a NOT_FOUND platform error.
	Get(ctx context.Context, tenantID, caseID string) (*ExceptionCase, error)
}

// SimilarCase is one resolved case ranked by its best chunk similarity.
type SimilarCase struct {
	CaseID         string  `json:"case_id"`
	Title          string  `json:"title"`
	Similarity     float64 `json:"similarity_score"`
	OutcomeSummary string  `json:"outcome_summary"`
	SourceVersion  string  `json:"source_version,omitempty"`
	URL            string  `json:"url,omitempty"`
}

// Finder specializes the evidence retriever to resolved-case documents.
type Finder struct {
	retriever *evidence.Retriever
	cases     CaseRepository
	log       zerolog.Logger
}

// NewFinder builds a similar-case finder.
func NewFinder(retriever *evidence.Retriever, cases CaseRepository, log zerolog.Logger) *Finder {
	return &Finder{retriever: retriever, cases: cases, log: log}
}

// FindByCaseID loads the case record, builds a labeled attribute query and
// retrieves similar resolved cases. Returns NOT_FOUND when the case id does
// not resolve for the tenant.
func (f *Finder) FindByCaseID(ctx context.Context, tenantID, caseID string, topK int) ([]SimilarCase, error) {
	record, err := f.cases.Get(ctx, tenantID, caseID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, fmt.Sprintf("case not found: %s", caseID), nil,
			"1a5e2b74-88d1-7c91-2d3e-6a1f4b5c7d93")
	}

	return f.FindByQuery(ctx, tenantID, buildCaseQuery(record), topK)
}

// FindByQuery retrieves resolved-case chunks for a free-text query, groups
// them by underlying case and keeps the best similarity per case.
func (f *Finder) FindByQuery(ctx context.Context, tenantID, query string, topK int) ([]SimilarCase, error) {
	result, err := f.retriever.Retrieve(ctx, evidence.Request{
		TenantID:    tenantID,
		Query:       query,
		SourceTypes: []knowledge.SourceType{knowledge.SourceResolvedCase},
		TopK:        topK,
	})
	if err != nil {
		return nil, err
	}

	return groupByCase(result.Items), nil
}

// buildCaseQuery concatenates whichever case attributes are present, each
// labeled, into the retrieval query text.
func buildCaseQuery(record *ExceptionCase) string {
	parts := make([]string, 0, 6)
	if record.Type != "" {
		parts = append(parts, "type: "+record.Type)
	}
	if record.Domain != "" {
		parts = append(parts, "domain: "+record.Domain)
	}
	if record.SourceSystem != "" {
		parts = append(parts, "source system: "+record.SourceSystem)
	}
	if record.Entity != "" {
		parts = append(parts, "entity: "+record.Entity)
	}
	if record.Severity != "" {
		parts = append(parts, "severity: "+record.Severity)
	}
	if record.Amount != nil {
		parts = append(parts, fmt.Sprintf("amount: %.2f", *record.Amount))
	}
	return strings.Join(parts, " ")
}

// groupByCase keeps one entry per underlying case, ranked by the maximum
// chunk similarity for that case.
func groupByCase(items []knowledge.EvidenceItem) []SimilarCase {
	byCase := make(map[string]SimilarCase)
	for _, item := range items {
		id := item.SourceID
		existing, ok := byCase[id]
		if ok && existing.Similarity >= item.Similarity {
			continue
		}
		byCase[id] = SimilarCase{
			CaseID:         id,
			Title:          item.Title,
			Similarity:     item.Similarity,
			OutcomeSummary: summarizeOutcome(item.Content),
			SourceVersion:  item.SourceVersion,
			URL:            item.URL,
		}
	}

	cases := make([]SimilarCase, 0, len(byCase))
	for _, sc := range byCase {
		cases = append(cases, sc)
	}
	sort.Slice(cases, func(i, j int) bool {
		if cases[i].Similarity == cases[j].Similarity {
			return cases[i].CaseID < cases[j].CaseID
		}
		return cases[i].Similarity > cases[j].Similarity
	})
	return cases
}

// summarizeOutcome returns the best sentence boundary within the summary
// length limit, falling back to a word-boundary truncation with an ellipsis.
func summarizeOutcome(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= outcomeSummaryMaxLen {
		return content
	}

	cut := content[:outcomeSummaryMaxLen]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > 0 {
		return strings.TrimSpace(cut[:idx+1])
	}
	if idx := strings.LastIndexAny(cut, " \t\n"); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " \t\n,;:") + "..."
}
