package document

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/infrastructure/database/entities"
	"bootlang/services/agent-api/internal/utils/platformerrors"
)

// Repository persists documents and their chunks in PostgreSQL.
type Repository struct {
	db *gorm.DB
}

var _ domain.Repository = (*Repository)(nil)

// NewRepository builds a document repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithChunks inserts the document and all its chunks in one
// transaction. A failure rolls everything back.
func (r *Repository) CreateWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entity := entities.NewSchemaDocument(doc)
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		doc.ID = entity.ID
		doc.CreatedAt = entity.CreatedAt

		for _, chunk := range chunks {
			chunkEntity, err := entities.NewSchemaChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Create(chunkEntity).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to persist document with chunks",
			err,
			"39d1b64e-8f27-4a50-c4e3-70a2f98d51bc",
		)
	}
	return nil
}

// GetByPublicID fetches a document scoped to its owner.
func (r *Repository) GetByPublicID(ctx context.Context, publicID, userID string) (*domain.Document, error) {
	var entity entities.Document
	if err := r.db.WithContext(ctx).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("document not found: %s", publicID),
				nil,
				"4ae2c75f-9038-4b61-d5f4-81b3a09e62cd",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to fetch document",
			err,
			"5bf3d860-a149-4c72-e605-92c4b10f73de",
		)
	}
	return entity.EtoD(), nil
}

// ListByUser returns the user's documents, most recent first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*domain.Document, error) {
	var rows []entities.Document
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list documents",
			err,
			"6c04e971-b25a-4d83-f716-a3d5c21084ef",
		)
	}

	out := make([]*domain.Document, len(rows))
	for i := range rows {
		out[i] = rows[i].EtoD()
	}
	return out, nil
}

// Delete removes the document and its chunks in one transaction.
func (r *Repository) Delete(ctx context.Context, publicID, userID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("public_id = ? AND user_id = ?", publicID, userID).
			Delete(&entities.Document{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.
			Where("document_public_id = ? AND user_id = ?", publicID, userID).
			Delete(&entities.DocumentChunk{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("document not found: %s", publicID),
				nil,
				"7d15fa82-c36b-4e94-0827-b4e6d3219500",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete document",
			err,
			"8e260b93-d47c-4fa5-1938-c5f7e4320611",
		)
	}
	return nil
}

// ListChunksByUser returns every chunk of the user's non-deleted documents,
// used to rebuild the retrieval index after a restart.
func (r *Repository) ListChunksByUser(ctx context.Context, userID string) ([]domain.Chunk, error) {
	var rows []entities.DocumentChunk
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("document_public_id, seq").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list chunks",
			err,
			"9f371ca4-e58d-40b6-2a49-d60805431722",
		)
	}

	out := make([]domain.Chunk, 0, len(rows))
	for i := range rows {
		chunk, err := rows[i].EtoD()
		if err != nil {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeInternal,
				"failed to decode chunk",
				err,
				"a0482db5-f69e-41c7-3b50-e71916542833",
			)
		}
		out = append(out, chunk)
	}
	return out, nil
}
