// Package session persists conversation sessions and turns in Postgres.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "exception-server/services/assistant-api/internal/domain/session"
	"exception-server/services/assistant-api/internal/infrastructure/database/entities"
	"exception-server/services/assistant-api/internal/utils/platformerrors"
)

// Repository persists sessions and their turns.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a session repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new session record.
func (r *Repository) Create(ctx context.Context, params domain.CreateParams) (*domain.Session, error) {
	now := time.Now().UTC()
	entity := &entities.Session{
		PublicID:       "sess_" + uuid.NewString(),
		TenantID:       params.TenantID,
		UserID:         params.UserID,
		Title:          params.Title,
		Context:        entities.JSONMap(params.Context),
		Active:         true,
		LastActivityAt: now,
	}
	if params.TTL > 0 {
		expires := now.Add(params.TTL)
		entity.ExpiresAt = &expires
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create session",
			err,
			"5b1c9d2e-3f4a-5b6c-7d8e-9f0a1b2c3d4e",
		)
	}

	return entity.EtoD(), nil
}

// Get fetches a session by its public ID within a tenant.
func (r *Repository) Get(ctx context.Context, id, tenantID string) (*domain.Session, error) {
	var entity entities.Session
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND tenant_id = ?", id, tenantID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("session not found: %s", id),
				nil,
				"6c2d0e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch session",
			err,
			"7d3e1f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a",
		)
	}

	return entity.EtoD(), nil
}

// AppendTurn persists one turn and advances the session's last activity in
// the same transaction.
func (r *Repository) AppendTurn(ctx context.Context, sessionID, tenantID string, role domain.Role, content string, metadata map[string]any) (*domain.Turn, error) {
	var parent entities.Session
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND tenant_id = ?", sessionID, tenantID).
		First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("session not found: %s", sessionID),
				nil,
				"8e4f2a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch session for turn append",
			err,
			"9f5a3b6c-7d8e-9f0a-1b2c-3d4e5f6a7b8c",
		)
	}

	entity := &entities.SessionTurn{
		PublicID:  "turn_" + uuid.NewString(),
		SessionID: parent.ID,
		TenantID:  tenantID,
		Role:      string(role),
		Content:   content,
	}
	if corr, ok := metadata["correlation_id"].(string); ok && corr != "" {
		entity.CorrelationID = &corr
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err == nil {
			entity.Metadata = raw
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Session{}).
			Where("id = ?", parent.ID).
			Update("last_activity_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to append session turn",
			err,
			"0a6b4c7d-8e9f-0a1b-2c3d-4e5f6a7b8c9d",
		)
	}

	turn := entity.EtoD(sessionID)
	return &turn, nil
}

// ListTurns returns the oldest turns first, capped at limit when positive.
func (r *Repository) ListTurns(ctx context.Context, sessionID, tenantID string, limit int) ([]domain.Turn, error) {
	var parent entities.Session
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND tenant_id = ?", sessionID, tenantID).
		First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("session not found: %s", sessionID),
				nil,
				"1b7c5d8e-9f0a-1b2c-3d4e-5f6a7b8c9d0e",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch session for turn listing",
			err,
			"2c8d6e9f-0a1b-2c3d-4e5f-6a7b8c9d0e1f",
		)
	}

	query := r.db.WithContext(ctx).
		Where("session_id = ?", parent.ID).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []entities.SessionTurn
	if err := query.Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list session turns",
			err,
			"3d9e7f0a-1b2c-3d4e-5f6a-7b8c9d0e1f2a",
		)
	}

	turns := make([]domain.Turn, 0, len(rows))
	for i := range rows {
		turns = append(turns, rows[i].EtoD(sessionID))
	}
	return turns, nil
}
