package queue

import (
	"context"
	"time"
)

// Task represents a queued document generation.
type Task struct {
	PublicID       string
	ConversationID string
	UserID         string
	Attempts       int
	QueuedAt       time.Time
}

// TaskQueue defines the interface for generation queue operations.
type TaskQueue interface {
	// Enqueue adds a generation task to the queue
	Enqueue(ctx context.Context, conversationID, userID string) error

	// Dequeue fetches the next available task using SELECT FOR UPDATE SKIP LOCKED
	Dequeue(ctx context.Context) (*Task, error)

	// MarkProcessing updates task status to processing
	MarkProcessing(ctx context.Context, taskID string) error

	// MarkCompleted updates task status to completed
	MarkCompleted(ctx context.Context, taskID string) error

	// MarkFailed updates task status to failed
	MarkFailed(ctx context.Context, taskID string, err error) error

	// GetQueueDepth returns the number of queued tasks
	GetQueueDepth(ctx context.Context) (int64, error)
}
