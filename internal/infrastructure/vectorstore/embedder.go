package vectorstore

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	openai "github.com/sashabaranov/go-openai"

	"exception-server/services/assistant-api/internal/domain/knowledge"
)

const localEmbeddingDim = 256

var embedTokenRe = regexp.MustCompile(`[a-z0-9_-]+`)

// LocalEmbedder hashes tokens into a fixed-size term-frequency vector.
// Deterministic and dependency-free; used when no embedding provider is
// configured, and in tests.
type LocalEmbedder struct{}

// NewLocalEmbedder builds the term-frequency embedder.
func NewLocalEmbedder() *LocalEmbedder {
	return &LocalEmbedder{}
}

// Embed maps text to an L2-normalized bag-of-words vector.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make([]float32, localEmbeddingDim)
	tokens := embedTokenRe.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vector[h.Sum32()%localEmbeddingDim]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector, nil
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder builds an embedder against an OpenAI-compatible API.
// baseURL may be empty for the default endpoint. The timeout caps each
// embeddings request; openai.DefaultConfig ships a client without one.
func NewOpenAIEmbedder(apiKey, baseURL, model string, timeout time.Duration) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Embed requests one embedding for the given text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

// CachedEmbedder memoizes embeddings in an LRU cache keyed by input text.
type CachedEmbedder struct {
	inner knowledge.Embedder
	cache *lru.Cache
}

// NewCachedEmbedder wraps an embedder with an LRU cache of the given size.
func NewCachedEmbedder(inner knowledge.Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector when present, else delegates and stores.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached.([]float32), nil
	}
	vector, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, vector)
	return vector, nil
}
