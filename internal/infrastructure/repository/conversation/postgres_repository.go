package conversation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "bootlang/services/agent-api/internal/domain/conversation"
	"bootlang/services/agent-api/internal/infrastructure/database/entities"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// Repository persists conversations in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository builds a conversation repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the conversation record.
func (r *Repository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity, err := entities.NewSchemaConversation(conv)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode conversation",
			err,
			"a1d2c9f4-3b60-4f7e-9c15-2d8a61e0b473",
		)
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation",
			err,
			"b7f03c2e-58a1-4d69-8e24-91c5d7a0f316",
		)
	}

	conv.ID = entity.ID
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// Update saves the full conversation state.
func (r *Repository) Update(ctx context.Context, conv *domain.Conversation) error {
	entity, err := entities.NewSchemaConversation(conv)
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to encode conversation",
			err,
			"c3e84b1a-9d72-4a50-bf38-64f2a0c817d9",
		)
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Conversation{}).
		Where("public_id = ?", conv.PublicID).
		Updates(map[string]interface{}{
			"stage":         entity.Stage,
			"messages":      entity.Messages,
			"schema":        entity.Schema,
			"clarification": entity.Clarification,
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation",
			result.Error,
			"d9a51f70-2c84-4e3b-a617-05b8e94c3f2a",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %s", conv.PublicID),
			nil,
			"e2b60d83-7f15-49c2-9a40-c36d18e5b794",
		)
	}
	return nil
}

// GetByPublicID fetches a conversation by its public ID.
func (r *Repository) GetByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&entity).Error; err != nil {
		return nil, r.wrapFetchError(ctx, err, publicID)
	}
	return r.decode(ctx, &entity)
}

// GetByPublicIDForUser fetches a conversation scoped to its owner.
func (r *Repository) GetByPublicIDForUser(ctx context.Context, publicID, userID string) (*domain.Conversation, error) {
	var entity entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&entity).Error; err != nil {
		return nil, r.wrapFetchError(ctx, err, publicID)
	}
	return r.decode(ctx, &entity)
}

// ListByUser returns the user's conversations, most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations",
			err,
			"f4c72a91-0e58-4b36-8d29-a1f60c47e583",
		)
	}

	out := make([]*domain.Conversation, 0, len(rows))
	for i := range rows {
		conv, err := r.decode(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, nil
}

func (r *Repository) decode(ctx context.Context, entity *entities.Conversation) (*domain.Conversation, error) {
	conv, err := entity.EtoD()
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal,
			"failed to decode conversation",
			err,
			"0a8e53d6-41b7-4c92-bf05-76d3e18a42c9",
		)
	}
	return conv, nil
}

func (r *Repository) wrapFetchError(ctx context.Context, err error, publicID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("conversation not found: %s", publicID),
			nil,
			"17b9f42c-6d05-483e-a2c1-58e0d76b39fa",
		)
	}
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError,
		"failed to fetch conversation",
		err,
		"28c0a53d-7e16-4f49-b3d2-69f1e87c40ab",
	)
}
