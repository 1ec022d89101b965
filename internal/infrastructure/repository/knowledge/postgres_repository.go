// Package knowledge persists indexed source documents in Postgres.
package knowledge

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "exception-server/services/assistant-api/internal/domain/knowledge"
	"exception-server/services/assistant-api/internal/infrastructure/database/entities"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository stores the canonical chunk text behind the vector index.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a knowledge document repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts or replaces a document keyed by tenant, source type and
// source id.
func (r *Repository) Upsert(ctx context.Context, doc *domain.Document) error {
	entity := entities.NewSchemaKnowledgeDocument(doc)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tenant_id"},
			{Name: "source_type"},
			{Name: "source_id"},
		},
		UpdateAll: true,
	}).Create(entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert knowledge document",
			err,
			"0e6f4a7b-8c9d-0e1f-2a3b-4c5d6e7f8a9b",
		)
	}
	return nil
}

// ListAll streams every stored document, batched to keep memory bounded
// while the vector index is rebuilt at startup.
func (r *Repository) ListAll(ctx context.Context, fn func(domain.Document) error) error {
	var rows []entities.KnowledgeDocument
	result := r.db.WithContext(ctx).
		Order("id ASC").
		FindInBatches(&rows, 500, func(_ *gorm.DB, _ int) error {
			for i := range rows {
				if err := fn(rows[i].EtoD()); err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list knowledge documents",
			result.Error,
			"1f7a5b8c-9d0e-1f2a-3b4c-5d6e7f8a9b0c",
		)
	}
	return nil
}

// Count returns the number of stored documents.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.KnowledgeDocument{}).
		Count(&count).Error; err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count knowledge documents",
			err,
			"2a8b6c9d-0e1f-2a3b-4c5d-6e7f8a9b0c1d",
		)
	}
	return count, nil
}
