package playbook

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/evidence"
	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// Weights are the hand-tuned scoring constants, kept in one place so
// thresholds are swappable without touching control flow.
type Weights struct {
	ExactType      float64
	PartialType    float64
	Severity       float64
	Domain         float64
	SourceSystem   float64
	TagPerMatch    float64
	TagCap         float64
	MinConfidence  float64
	BoostThreshold float64
	BoostCap       float64
}

// DefaultWeights returns the standard scoring constants.
func DefaultWeights() Weights {
	return Weights{
		ExactType:      0.4,
		PartialType:    0.2,
		Severity:       0.25,
		Domain:         0.2,
		SourceSystem:   0.1,
		TagPerMatch:    0.05,
		TagCap:         0.15,
		MinConfidence:  0.4,
		BoostThreshold: 0.3,
		BoostCap:       0.2,
	}
}

// Recommender scores candidate procedures against exception attributes,
// optionally boosted by retriever similarity.
type Recommender struct {
	catalog   Catalog
	retriever *evidence.Retriever
	weights   Weights
	log       zerolog.Logger
}

// NewRecommender builds a recommender. The retriever is optional; when nil
// the similarity boost is skipped.
func NewRecommender(catalog Catalog, retriever *evidence.Retriever, weights Weights, log zerolog.Logger) *Recommender {
	return &Recommender{catalog: catalog, retriever: retriever, weights: weights, log: log}
}

// Recommend returns the highest-scoring procedure for the exception context,
// or nil when no candidate reaches the minimum confidence threshold.
func (r *Recommender) Recommend(ctx context.Context, tenantID, domain string, exc ExceptionContext) (*Recommendation, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "tenant id must not be empty", nil,
			"2b6f3c85-99e2-8da2-3e4f-7b2a5c6d8ea4")
	}
	if strings.TrimSpace(domain) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "domain must not be empty", nil,
			"3c7a4d96-aaf3-9eb3-4f5a-8c3b6d7e9fb5")
	}
	if exc.Empty() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "exception context must not be empty", nil,
			"4d8b5ea7-bb04-afc4-5a6b-9d4c7e8fa0c6")
	}

	procedures, err := r.catalog.ListProcedures(ctx, tenantID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list procedures")
	}

	var best *Recommendation
	for _, proc := range procedures {
		score, matched := r.score(proc, domain, exc)
		if best != nil && score <= best.Confidence {
			continue
		}
		if score <= 0 {
			continue
		}
		best = &Recommendation{
			PlaybookID:    proc.ID,
			Name:          proc.Name,
			Confidence:    score,
			Steps:         proc.Steps,
			Rationale:     buildRationale(proc.Name, matched, exc),
			MatchedFields: matched,
			SourceVersion: proc.Version,
		}
	}

	if best == nil {
		return nil, nil
	}

	if r.retriever != nil && best.Confidence > r.weights.BoostThreshold {
		r.applyEvidenceBoost(ctx, tenantID, domain, exc, best)
	}

	if best.Confidence < r.weights.MinConfidence {
		return nil, nil
	}
	return best, nil
}

// score evaluates one procedure against the exception context. Contributions
// are additive and the total is capped at 1.0.
func (r *Recommender) score(proc Procedure, domain string, exc ExceptionContext) (float64, []string) {
	score := 0.0
	matched := make([]string, 0, 5)

	switch {
	case exc.Type != "" && containsFold(proc.Conditions.ExceptionTypes, exc.Type):
		score += r.weights.ExactType
		matched = append(matched, "exception_type")
	case exc.Type != "" && containsPartialFold(proc.Conditions.ExceptionTypes, exc.Type):
		score += r.weights.PartialType
		matched = append(matched, "exception_type_partial")
	}

	if exc.Severity != "" && containsFold(proc.Conditions.Severities, exc.Severity) {
		score += r.weights.Severity
		matched = append(matched, "severity")
	}

	if domain != "" && containsFold(proc.Conditions.Domains, domain) {
		score += r.weights.Domain
		matched = append(matched, "domain")
	}

	if exc.SourceSystem != "" && containsFold(proc.Conditions.SourceSystems, exc.SourceSystem) {
		score += r.weights.SourceSystem
		matched = append(matched, "source_system")
	}

	if overlap := tagOverlap(proc.Conditions.Tags, exc.Tags); overlap > 0 {
		contribution := r.weights.TagPerMatch * float64(overlap)
		if contribution > r.weights.TagCap {
			contribution = r.weights.TagCap
		}
		score += contribution
		matched = append(matched, "tags")
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, matched
}

// applyEvidenceBoost runs a similarity search restricted to playbook
// documents and, when the winning procedure appears among the top results,
// adds min(BoostCap, similarity*BoostCap) to its score.
func (r *Recommender) applyEvidenceBoost(ctx context.Context, tenantID, domain string, exc ExceptionContext, rec *Recommendation) {
	query := strings.TrimSpace(strings.Join([]string{exc.Type, exc.Severity, exc.Description}, " "))
	if query == "" {
		return
	}

	result, err := r.retriever.Retrieve(ctx, evidence.Request{
		TenantID:    tenantID,
		Query:       query,
		Domain:      domain,
		SourceTypes: []knowledge.SourceType{knowledge.SourcePlaybook},
	})
	if err != nil {
		r.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("playbook evidence boost failed")
		return
	}

	for _, item := range result.Items {
		if !strings.Contains(item.SourceID, rec.PlaybookID) {
			continue
		}
		boost := item.Similarity * r.weights.BoostCap
		if boost > r.weights.BoostCap {
			boost = r.weights.BoostCap
		}
		rec.Confidence += boost
		if rec.Confidence > 1.0 {
			rec.Confidence = 1.0
		}
		rec.MatchedFields = append(rec.MatchedFields, "evidence_similarity")
		rec.Rationale += fmt.Sprintf(" Indexed playbook content is similar to this exception (score %.2f).", item.Similarity)
		return
	}
}

// buildRationale enumerates the matched fields in human-readable form.
func buildRationale(name string, matched []string, exc ExceptionContext) string {
	if len(matched) == 0 {
		return fmt.Sprintf("%q is the closest available procedure, though none of its conditions matched directly.", name)
	}

	reasons := make([]string, 0, len(matched))
	for _, field := range matched {
		switch field {
		case "exception_type":
			reasons = append(reasons, fmt.Sprintf("exception type %q matches exactly", exc.Type))
		case "exception_type_partial":
			reasons = append(reasons, fmt.Sprintf("exception type %q matches partially", exc.Type))
		case "severity":
			reasons = append(reasons, fmt.Sprintf("severity %q matches", exc.Severity))
		case "domain":
			reasons = append(reasons, "the business domain matches")
		case "source_system":
			reasons = append(reasons, fmt.Sprintf("source system %q matches", exc.SourceSystem))
		case "tags":
			reasons = append(reasons, "one or more tags overlap")
		}
	}
	return fmt.Sprintf("%q was selected because %s.", name, strings.Join(reasons, ", "))
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func containsPartialFold(haystack []string, needle string) bool {
	lowered := strings.ToLower(needle)
	for _, h := range haystack {
		lh := strings.ToLower(h)
		if strings.Contains(lh, lowered) || strings.Contains(lowered, lh) {
			return true
		}
	}
	return false
}

func tagOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[strings.ToLower(t)] = struct{}{}
	}
	count := 0
	for _, t := range b {
		if _, ok := set[strings.ToLower(t)]; ok {
			count++
		}
	}
	return count
}
