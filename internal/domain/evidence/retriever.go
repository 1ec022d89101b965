// Package evidence retrieves ranked, tenant-isolated evidence for a query
// across heterogeneous document source types.
package evidence

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/infrastructure/metrics"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// SourceStatus describes the outcome of one per-source-type search.
type SourceStatus string

const (
	SourceOK    SourceStatus = "ok"
	SourceEmpty SourceStatus = "empty"
	SourceError SourceStatus = "error"
)

// SourceDiagnostic records the per-source-type outcome of a retrieval call.
// Failures are isolated here rather than aborting the whole call.
type SourceDiagnostic struct {
	SourceType knowledge.SourceType `json:"source_type"`
	Status     SourceStatus         `json:"status"`
	Count      int                  `json:"count"`
	Error      string               `json:"error,omitempty"`
}

// Request scopes one retrieval call.
type Request struct {
	TenantID    string
	Query       string
	Domain      string
	SourceTypes []knowledge.SourceType
	TopK        int
}

// Result carries the merged ranked evidence plus per-source diagnostics.
type Result struct {
	Items       []knowledge.EvidenceItem
	Diagnostics []SourceDiagnostic
}

// Config holds the retrieval thresholds.
type Config struct {
	DefaultTopK   int
	MinScore      float64
	SnippetMaxLen int
	// Timeout bounds the whole retrieval call, embedding included. Zero
	// means no deadline beyond the caller's context.
	Timeout time.Duration
}

// DefaultConfig returns the standard retrieval thresholds.
func DefaultConfig() Config {
	return Config{
		DefaultTopK:   5,
		MinScore:      0.1,
		SnippetMaxLen: DefaultSnippetMaxLen,
		Timeout:       15 * time.Second,
	}
}

// Retriever embeds a query once and fans out per-source-type similarity
// searches over the document index.
type Retriever struct {
	embedder knowledge.Embedder
	index    knowledge.DocumentIndex
	cfg      Config
	log      zerolog.Logger
}

// NewRetriever builds an evidence retriever.
func NewRetriever(embedder knowledge.Embedder, index knowledge.DocumentIndex, cfg Config, log zerolog.Logger) *Retriever {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 0.1
	}
	if cfg.SnippetMaxLen <= 0 {
		cfg.SnippetMaxLen = DefaultSnippetMaxLen
	}
	return &Retriever{embedder: embedder, index: index, cfg: cfg, log: log}
}

// Retrieve embeds the query once, searches every requested source type in
// isolation, then merges, sorts by similarity descending and truncates to
// top-k. A failing source type yields an error diagnostic, never a failed
// call; only an embedding failure is fatal.
func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "tenant id must not be empty", nil,
			"7c2b9d41-55ae-4f6e-9a0b-3d8c1e2f4a60")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeInvalidArgument, "query text must not be empty", nil,
			"8d3c0e52-66bf-5a7f-0b1c-4e9d2f3a5b71")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = r.cfg.DefaultTopK
	}
	sourceTypes := req.SourceTypes
	if len(sourceTypes) == 0 {
		sourceTypes = knowledge.AllSourceTypes()
	}

	// Bound the embedding call and every per-source search; a source that
	// hits the deadline surfaces as an error diagnostic with zero results.
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	vector, err := r.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeUpstream, "embed query", err,
			"9e4d1f63-77c0-6b80-1c2d-5f0e3a4b6c82")
	}

	// Per-source-type searches are independent; run them concurrently and
	// merge deterministically afterwards.
	var mu sync.Mutex
	merged := make([]knowledge.ScoredDocument, 0, topK*len(sourceTypes))
	diagnostics := make([]SourceDiagnostic, len(sourceTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, st := range sourceTypes {
		i, st := i, st
		g.Go(func() error {
			docs, searchErr := r.index.SimilaritySearch(gctx, knowledge.SearchQuery{
				TenantID:   req.TenantID,
				Vector:     vector,
				SourceType: st,
				Domain:     req.Domain,
				Limit:      topK,
				MinScore:   r.cfg.MinScore,
			})
			if searchErr != nil {
				r.log.Warn().Err(searchErr).
					Str("tenant_id", req.TenantID).
					Str("source_type", string(st)).
					Msg("per-source retrieval failed")
				diagnostics[i] = SourceDiagnostic{SourceType: st, Status: SourceError, Error: searchErr.Error()}
				metrics.RetrievalSourcesTotal.WithLabelValues(string(st), string(SourceError)).Inc()
				return nil
			}
			status := SourceOK
			if len(docs) == 0 {
				status = SourceEmpty
			}
			diagnostics[i] = SourceDiagnostic{SourceType: st, Status: status, Count: len(docs)}
			metrics.RetrievalSourcesTotal.WithLabelValues(string(st), string(status)).Inc()

			mu.Lock()
			merged = append(merged, docs...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score == merged[j].Score {
			return merged[i].Document.SourceID < merged[j].Document.SourceID
		}
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	items := make([]knowledge.EvidenceItem, 0, len(merged))
	for _, doc := range merged {
		items = append(items, knowledge.EvidenceItem{
			SourceType:    doc.Document.SourceType,
			SourceID:      doc.Document.SourceID,
			SourceVersion: doc.Document.SourceVersion,
			Title:         doc.Document.Title,
			Snippet:       ExtractSnippet(doc.Document.Content, req.Query, r.cfg.SnippetMaxLen),
			URL:           doc.Document.URL,
			Similarity:    clampScore(doc.Score),
			Content:       doc.Document.Content,
		})
	}

	return &Result{Items: items, Diagnostics: diagnostics}, nil
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
