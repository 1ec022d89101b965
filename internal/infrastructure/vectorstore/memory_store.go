// Package vectorstore provides the document index implementations and
// embedders used by the retrieval pipeline: an in-memory cosine-similarity
// store, a remote HTTP index, an OpenAI-backed embedder and a local
// term-frequency fallback.
package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"exception-server/services/assistant-api/internal/domain/knowledge"
)

// IndexedDocument pairs a document with its embedding.
type IndexedDocument struct {
	Document  knowledge.Document
	Embedding []float32
}

// MemoryStore is an in-memory vector index. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs []IndexedDocument
}

// NewMemoryStore builds an empty in-memory index.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Upsert inserts or replaces a document keyed by (tenant, source type, id).
func (s *MemoryStore) Upsert(doc knowledge.Document, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.docs {
		if existing.Document.TenantID == doc.TenantID &&
			existing.Document.SourceType == doc.SourceType &&
			existing.Document.SourceID == doc.SourceID {
			s.docs[i] = IndexedDocument{Document: doc, Embedding: embedding}
			return
		}
	}
	s.docs = append(s.docs, IndexedDocument{Document: doc, Embedding: embedding})
}

// Len returns the number of indexed documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// SimilaritySearch scans the index for documents matching the query scope
// and returns them sorted by score descending, ties broken by source id so
// ordering stays deterministic.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := query.Limit
	if limit <= 0 {
		limit = 5
	}

	results := make([]knowledge.ScoredDocument, 0, limit)
	for _, entry := range s.docs {
		if entry.Document.TenantID != query.TenantID {
			continue
		}
		if query.SourceType != "" && entry.Document.SourceType != query.SourceType {
			continue
		}
		if query.Domain != "" && entry.Document.Domain != "" && entry.Document.Domain != query.Domain {
			continue
		}
		score := CosineSimilarity(query.Vector, entry.Embedding)
		if score < query.MinScore {
			continue
		}
		results = append(results, knowledge.ScoredDocument{Document: entry.Document, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Document.SourceID < results[j].Document.SourceID
		}
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// clamped to [0, 1]. Mismatched lengths compare over the shorter vector.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
