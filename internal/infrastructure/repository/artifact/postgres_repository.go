package artifact

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "bootlang/services/agent-api/internal/domain/artifact"
	"bootlang/services/agent-api/internal/infrastructure/database/entities"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// Repository persists artifact sets in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository builds an artifact repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveLatest upserts on the conversation ID so each conversation keeps
// exactly one latest set.
func (r *Repository) SaveLatest(ctx context.Context, set *domain.Set) error {
	entity, err := entities.NewSchemaArtifactSet(set)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode artifact set",
			err,
			"b1593ec6-07af-42d8-4c61-f82a27653944",
		)
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "conversation_public_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"public_id", "project_name", "artifacts", "generated_at", "updated_at",
			}),
		}).
		Create(entity).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to save artifact set",
			err,
			"c26a4fd7-18b0-43e9-5d72-093b38764a55",
		)
	}

	set.ID = entity.ID
	return nil
}

// GetLatest fetches the latest set for a conversation, scoped to its owner.
func (r *Repository) GetLatest(ctx context.Context, conversationID, userID string) (*domain.Set, error) {
	var entity entities.ArtifactSet
	if err := r.db.WithContext(ctx).
		Where("conversation_public_id = ? AND user_id = ?", conversationID, userID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("no artifacts generated for conversation: %s", conversationID),
				nil,
				"d37b50e8-29c1-44fa-6e83-1a4c49875b66",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch artifact set",
			err,
			"e48c61f9-3ad2-450b-7f94-2b5d5a986c77",
		)
	}

	set, err := entity.EtoD()
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to decode artifact set",
			err,
			"f59d720a-4be3-461c-8005-3c6e6ba97d88",
		)
	}
	return set, nil
}
