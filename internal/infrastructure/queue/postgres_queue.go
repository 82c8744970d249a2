package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bootlang/services/agent-api/internal/domain/agent"
	"bootlang/services/agent-api/internal/infrastructure/database/entities"
)

// PostgresQueue implements TaskQueue on the generation_tasks table.
type PostgresQueue struct {
	db  *gorm.DB
	log zerolog.Logger
}

var (
	_ TaskQueue                = (*PostgresQueue)(nil)
	_ agent.GenerationEnqueuer = (*PostgresQueue)(nil)
)

// NewPostgresQueue creates a new PostgreSQL-backed generation queue.
func NewPostgresQueue(db *gorm.DB, log zerolog.Logger) *PostgresQueue {
	return &PostgresQueue{
		db:  db,
		log: log.With().Str("component", "postgres-queue").Logger(),
	}
}

// Enqueue inserts a queued generation task.
func (q *PostgresQueue) Enqueue(ctx context.Context, conversationID, userID string) error {
	task := &entities.GenerationTask{
		PublicID:             "task_" + uuid.NewString(),
		ConversationPublicID: conversationID,
		UserID:               userID,
		Status:               entities.TaskStatusQueued,
		QueuedAt:             time.Now().UTC(),
	}

	if err := q.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("enqueue generation task: %w", err)
	}

	q.log.Info().
		Str("task_id", task.PublicID).
		Str("conversation_id", conversationID).
		Msg("generation task enqueued")
	return nil
}

// EnqueueGeneration satisfies the agent's enqueuer interface.
func (q *PostgresQueue) EnqueueGeneration(ctx context.Context, req agent.GenerationRequest) error {
	return q.Enqueue(ctx, req.ConversationID, req.UserID)
}

// Dequeue fetches the next queued task using FOR UPDATE SKIP LOCKED.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*Task, error) {
	var entity entities.GenerationTask

	err := q.db.WithContext(ctx).
		Raw("SELECT * FROM generation_tasks WHERE status = ? ORDER BY queued_at ASC LIMIT 1 FOR UPDATE SKIP LOCKED",
			entities.TaskStatusQueued).
		Scan(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // No tasks available
		}
		return nil, fmt.Errorf("dequeue task: %w", err)
	}

	if entity.ID == 0 {
		return nil, nil // No tasks available
	}

	return &Task{
		PublicID:       entity.PublicID,
		ConversationID: entity.ConversationPublicID,
		UserID:         entity.UserID,
		Attempts:       entity.Attempts,
		QueuedAt:       entity.QueuedAt,
	}, nil
}

// MarkProcessing updates the task status to processing.
func (q *PostgresQueue) MarkProcessing(ctx context.Context, taskID string) error {
	now := time.Now().UTC()
	result := q.db.WithContext(ctx).
		Model(&entities.GenerationTask{}).
		Where("public_id = ?", taskID).
		Updates(map[string]interface{}{
			"status":     entities.TaskStatusProcessing,
			"attempts":   gorm.Expr("attempts + 1"),
			"started_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark processing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("task not found: %s", taskID)
	}
	return nil
}

// MarkCompleted updates the task status to completed.
func (q *PostgresQueue) MarkCompleted(ctx context.Context, taskID string) error {
	now := time.Now().UTC()
	result := q.db.WithContext(ctx).
		Model(&entities.GenerationTask{}).
		Where("public_id = ?", taskID).
		Updates(map[string]interface{}{
			"status":       entities.TaskStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark completed: %w", result.Error)
	}
	return nil
}

// MarkFailed updates the task status to failed with the error detail.
func (q *PostgresQueue) MarkFailed(ctx context.Context, taskID string, taskErr error) error {
	now := time.Now().UTC()
	errorJSON, _ := json.Marshal(map[string]string{
		"code":    "generation_failed",
		"message": taskErr.Error(),
	})

	result := q.db.WithContext(ctx).
		Model(&entities.GenerationTask{}).
		Where("public_id = ?", taskID).
		Updates(map[string]interface{}{
			"status":     entities.TaskStatusFailed,
			"error":      datatypes.JSON(errorJSON),
			"updated_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("mark failed: %w", result.Error)
	}
	return nil
}

// GetQueueDepth returns the number of queued generation tasks.
func (q *PostgresQueue) GetQueueDepth(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&entities.GenerationTask{}).
		Where("status = ?", entities.TaskStatusQueued).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return count, nil
}
