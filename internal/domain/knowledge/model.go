// Package knowledge defines the document and evidence types shared by the
// retrieval pipeline, together with the embedding and similarity-search
// collaborator contracts.
package knowledge

import "context"

// ===============================================
// Source Types
// ===============================================

// SourceType tags the origin of an indexed document.
type SourceType string

const (
	SourcePolicy       SourceType = "policy"
	SourceResolvedCase SourceType = "resolved_case"
	SourceAuditEvent   SourceType = "audit_event"
	SourceToolRegistry SourceType = "tool_registry"
	SourcePlaybook     SourceType = "playbook"
)

// AllSourceTypes returns every known source type in a fixed order.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourcePolicy,
		SourceResolvedCase,
		SourceAuditEvent,
		SourceToolRegistry,
		SourcePlaybook,
	}
}

// Valid reports whether the source type is one of the known tags.
func (s SourceType) Valid() bool {
	switch s {
	case SourcePolicy, SourceResolvedCase, SourceAuditEvent, SourceToolRegistry, SourcePlaybook:
		return true
	}
	return false
}

// ===============================================
// Document Structures
// ===============================================

// Document is one indexed chunk of source material.
type Document struct {
	TenantID      string            `json:"tenant_id"`
	SourceType    SourceType        `json:"source_type"`
	SourceID      string            `json:"source_id"`
	SourceVersion string            `json:"source_version,omitempty"`
	Domain        string            `json:"domain,omitempty"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	URL           string            `json:"url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ScoredDocument pairs a document with its similarity score.
type ScoredDocument struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// SearchQuery scopes one similarity search to a tenant and source type.
type SearchQuery struct {
	TenantID   string
	Vector     []float32
	SourceType SourceType
	Domain     string
	Limit      int
	MinScore   float64
}

// EvidenceItem is a ranked snippet of source material returned to the caller.
// Transient, computed per request.
type EvidenceItem struct {
	SourceType    SourceType `json:"source_type"`
	SourceID      string     `json:"source_id"`
	SourceVersion string     `json:"source_version,omitempty"`
	Title         string     `json:"title"`
	Snippet       string     `json:"snippet"`
	URL           string     `json:"url,omitempty"`
	Similarity    float64    `json:"similarity_score"`
	Content       string     `json:"-"`
}

// ===============================================
// Collaborator Contracts
// ===============================================

// Embedder turns text into a vector. The model invocation is a black box.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentIndex performs tenant-scoped vector similarity search.
type DocumentIndex interface {
	SimilaritySearch(ctx context.Context, query SearchQuery) ([]ScoredDocument, error)
}
