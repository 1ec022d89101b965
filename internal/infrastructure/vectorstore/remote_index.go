package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"exception-server/services/assistant-api/internal/domain/knowledge"
)

// RemoteIndex queries an external vector-index service over HTTP. It
// implements knowledge.DocumentIndex.
type RemoteIndex struct {
	baseURL    string
	httpClient *resty.Client
}

type remoteQueryRequest struct {
	TenantID   string    `json:"tenant_id"`
	Vector     []float32 `json:"vector"`
	SourceType string    `json:"source_type"`
	Domain     string    `json:"domain,omitempty"`
	Limit      int       `json:"limit,omitempty"`
	MinScore   float64   `json:"min_score,omitempty"`
}

type remoteQueryResult struct {
	SourceType    string            `json:"source_type"`
	SourceID      string            `json:"source_id"`
	SourceVersion string            `json:"source_version,omitempty"`
	Domain        string            `json:"domain,omitempty"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`
	URL           string            `json:"url,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Score         float64           `json:"score"`
}

type remoteQueryResponse struct {
	Count   int                 `json:"count"`
	Results []remoteQueryResult `json:"results"`
}

// NewRemoteIndex builds a client for the remote vector-index service.
// Returns nil when baseURL is empty.
func NewRemoteIndex(baseURL string, timeout time.Duration) *RemoteIndex {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "ExceptionServer-Assistant/1.0").
		SetTimeout(timeout)

	return &RemoteIndex{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// IsEnabled reports whether the client is configured.
func (c *RemoteIndex) IsEnabled() bool {
	return c != nil && c.baseURL != ""
}

// SimilaritySearch issues one scoped query against the remote index.
func (c *RemoteIndex) SimilaritySearch(ctx context.Context, query knowledge.SearchQuery) ([]knowledge.ScoredDocument, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("vector index client is not configured")
	}

	var resp remoteQueryResponse
	httpResp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(remoteQueryRequest{
			TenantID:   query.TenantID,
			Vector:     query.Vector,
			SourceType: string(query.SourceType),
			Domain:     query.Domain,
			Limit:      query.Limit,
			MinScore:   query.MinScore,
		}).
		SetResult(&resp).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("vector index query request failed: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("vector index query error (%d): %s", httpResp.StatusCode(), httpResp.String())
	}

	docs := make([]knowledge.ScoredDocument, 0, len(resp.Results))
	for _, r := range resp.Results {
		docs = append(docs, knowledge.ScoredDocument{
			Document: knowledge.Document{
				TenantID:      query.TenantID,
				SourceType:    knowledge.SourceType(r.SourceType),
				SourceID:      r.SourceID,
				SourceVersion: r.SourceVersion,
				Domain:        r.Domain,
				Title:         r.Title,
				Content:       r.Content,
				URL:           r.URL,
				Metadata:      r.Metadata,
			},
			Score: r.Score,
		})
	}
	return docs, nil
}
