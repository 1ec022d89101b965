// Package playbook persists remediation procedures in Postgres.
package playbook

import (
	"context"
	"errors"

	"gorm.io/gorm"

	domain "exception-server/services/assistant-api/internal/domain/playbook"
	"exception-server/services/assistant-api/internal/infrastructure/database/entities"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository lists remediation procedures per tenant.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a playbook repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListProcedures returns the enabled procedures for a tenant.
func (r *Repository) ListProcedures(ctx context.Context, tenantID string) ([]domain.Procedure, error) {
	var rows []entities.Playbook
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Order("public_id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list playbooks",
			err,
			"6a2b0c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d",
		)
	}

	procedures := make([]domain.Procedure, 0, len(rows))
	for i := range rows {
		proc, err := rows[i].EtoD()
		if err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeDatabaseError,
				"failed to decode playbook "+rows[i].PublicID,
				err,
				"7b3c1d4e-5f6a-7b8c-9d0e-1f2a3b4c5d6e",
			)
		}
		procedures = append(procedures, *proc)
	}
	return procedures, nil
}

// Upsert inserts or replaces a procedure for a tenant.
func (r *Repository) Upsert(ctx context.Context, tenantID string, proc *domain.Procedure) error {
	entity, err := entities.NewSchemaPlaybook(tenantID, proc)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInvalidArgument,
			"failed to encode playbook "+proc.ID,
			err,
			"8c4d2e5f-6a7b-8c9d-0e1f-2a3b4c5d6e7f",
		)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.Playbook
		result := tx.Where("tenant_id = ? AND public_id = ?", tenantID, proc.ID).First(&existing)
		if result.Error == nil {
			entity.ID = existing.ID
			entity.CreatedAt = existing.CreatedAt
			return tx.Save(entity).Error
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}
		return tx.Create(entity).Error
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to upsert playbook "+proc.ID,
			err,
			"9d5e3f6a-7b8c-9d0e-1f2a-3b4c5d6e7f8a",
		)
	}
	return nil
}
