package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Generation task statuses.
const (
	TaskStatusQueued     = "queued"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// GenerationTask is one queued background document generation.
type GenerationTask struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID             string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationPublicID string         `gorm:"type:varchar(50);index:idx_task_conversation;not null"`
	UserID               string         `gorm:"type:varchar(64);not null"`
	Status               string         `gorm:"type:varchar(20);index:idx_task_status;not null;default:'queued'"`
	Attempts             int            `gorm:"not null;default:0"`
	Error                datatypes.JSON `gorm:"type:jsonb"`
	QueuedAt             time.Time      `gorm:"not null"`
	StartedAt            *time.Time
	CompletedAt          *time.Time
}

// TableName specifies the table name for GenerationTask.
func (GenerationTask) TableName() string {
	return "generation_tasks"
}
