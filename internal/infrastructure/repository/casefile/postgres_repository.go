// Package casefile persists exception case records in Postgres.
package casefile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"exception-server/services/assistant-api/internal/domain/similarcase"
	"exception-server/services/assistant-api/internal/infrastructure/database/entities"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository resolves exception case records per tenant.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a case repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get fetches a case by its public ID within a tenant.
func (r *Repository) Get(ctx context.Context, tenantID, caseID string) (*similarcase.ExceptionCase, error) {
	var entity entities.ExceptionCase
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND public_id = ?", tenantID, caseID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("case not found: %s", caseID),
				nil,
				"4e0f8a1b-2c3d-4e5f-6a7b-8c9d0e1f2a3b",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch case",
			err,
			"5f1a9b2c-3d4e-5f6a-7b8c-9d0e1f2a3b4c",
		)
	}

	return entity.EtoD(), nil
}
