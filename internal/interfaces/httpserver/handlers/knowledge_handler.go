package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/interfaces/httpserver/dto"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// DocumentStore persists knowledge documents.
type DocumentStore interface {
	Upsert(ctx context.Context, doc *knowledge.Document) error
}

// DocumentIndexer embeds and upserts a document into the vector index.
type DocumentIndexer interface {
	Index(ctx context.Context, doc knowledge.Document) error
}

// KnowledgeHandler exposes document upserts that feed the retriever.
type KnowledgeHandler struct {
	store   DocumentStore
	indexer DocumentIndexer
	log     zerolog.Logger
}

// NewKnowledgeHandler constructs the handler.
func NewKnowledgeHandler(store DocumentStore, indexer DocumentIndexer, log zerolog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		store:   store,
		indexer: indexer,
		log:     log.With().Str("handler", "knowledge").Logger(),
	}
}

// Upsert handles PUT /v1/knowledge/documents
func (h *KnowledgeHandler) Upsert(c *gin.Context) {
	var req dto.UpsertDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.HandleError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerRoute,
			platformerrors.ErrorTypeInvalidArgument,
			"invalid document payload",
			err,
			"7c3d1e4f-5a6b-7c8d-9e0f-1a2b3c4d5e6f",
		), "invalid document payload")
		return
	}

	sourceType := knowledge.SourceType(req.SourceType)
	if !sourceType.Valid() {
		dto.HandleError(c, platformerrors.NewError(
			c.Request.Context(),
			platformerrors.LayerRoute,
			platformerrors.ErrorTypeInvalidArgument,
			"unknown source type: "+req.SourceType,
			nil,
			"8d4e2f5a-6b7c-8d9e-0f1a-2b3c4d5e6f7a",
		), "unknown source type")
		return
	}

	doc := knowledge.Document{
		TenantID:      req.TenantID,
		SourceType:    sourceType,
		SourceID:      req.SourceID,
		SourceVersion: req.SourceVersion,
		Domain:        req.Domain,
		Title:         req.Title,
		Content:       req.Content,
		URL:           req.URL,
		Metadata:      req.Metadata,
	}

	if err := h.store.Upsert(c.Request.Context(), &doc); err != nil {
		dto.HandleError(c, err, "failed to store document")
		return
	}
	if err := h.indexer.Index(c.Request.Context(), doc); err != nil {
		dto.HandleError(c, err, "failed to index document")
		return
	}

	c.JSON(http.StatusOK, dto.UpsertDocumentResponse{
		Status:     "indexed",
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
	})
}
