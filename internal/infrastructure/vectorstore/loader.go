package vectorstore

import (
	"context"

	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/knowledge"
)

// DocumentSource lists stored documents for index rebuilds.
type DocumentSource interface {
	ListAll(ctx context.Context, fn func(knowledge.Document) error) error
}

// Loader rebuilds the in-memory vector index from the document store and
// keeps it current as new documents arrive.
type Loader struct {
	store    *MemoryStore
	embedder knowledge.Embedder
	source   DocumentSource
	log      zerolog.Logger
}

// NewLoader builds an index loader.
func NewLoader(store *MemoryStore, embedder knowledge.Embedder, source DocumentSource, log zerolog.Logger) *Loader {
	return &Loader{store: store, embedder: embedder, source: source, log: log}
}

// Reload embeds every stored document into the memory store. Documents that
// fail to embed are skipped and logged rather than aborting the rebuild.
func (l *Loader) Reload(ctx context.Context) error {
	loaded := 0
	skipped := 0
	err := l.source.ListAll(ctx, func(doc knowledge.Document) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		vector, err := l.embedder.Embed(ctx, doc.Title+"\n"+doc.Content)
		if err != nil {
			skipped++
			l.log.Warn().Err(err).
				Str("source_type", string(doc.SourceType)).
				Str("source_id", doc.SourceID).
				Msg("skipping document during index rebuild")
			return nil
		}
		l.store.Upsert(doc, vector)
		loaded++
		return nil
	})
	if err != nil {
		return err
	}

	l.log.Info().Int("loaded", loaded).Int("skipped", skipped).Msg("vector index rebuilt")
	return nil
}

// Index embeds and upserts a single document.
func (l *Loader) Index(ctx context.Context, doc knowledge.Document) error {
	vector, err := l.embedder.Embed(ctx, doc.Title+"\n"+doc.Content)
	if err != nil {
		return err
	}
	l.store.Upsert(doc, vector)
	return nil
}
