package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"bootlang/services/agent-api/internal/domain/artifact"
)

// ArtifactSet stores the latest generated document set per conversation.
// ConversationPublicID is unique: regeneration replaces the row.
type ArtifactSet struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID             string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationPublicID string         `gorm:"type:varchar(50);uniqueIndex:idx_artifact_conversation;not null"`
	UserID               string         `gorm:"type:varchar(64);index:idx_artifact_user;not null"`
	ProjectName          string         `gorm:"type:varchar(64);not null"`
	Artifacts            datatypes.JSON `gorm:"type:jsonb"`
	GeneratedAt          time.Time      `gorm:"not null"`
}

// TableName specifies the table name for ArtifactSet.
func (ArtifactSet) TableName() string {
	return "artifact_sets"
}

// EtoD converts the database entity to the domain model.
func (a *ArtifactSet) EtoD() (*artifact.Set, error) {
	set := &artifact.Set{
		ID:             a.ID,
		PublicID:       a.PublicID,
		ConversationID: a.ConversationPublicID,
		UserID:         a.UserID,
		ProjectName:    a.ProjectName,
		GeneratedAt:    a.GeneratedAt,
	}
	if len(a.Artifacts) > 0 {
		if err := json.Unmarshal(a.Artifacts, &set.Artifacts); err != nil {
			return nil, fmt.Errorf("decode artifacts: %w", err)
		}
	}
	return set, nil
}

// NewSchemaArtifactSet converts the domain model to a database entity.
func NewSchemaArtifactSet(set *artifact.Set) (*ArtifactSet, error) {
	artifacts, err := json.Marshal(set.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("encode artifacts: %w", err)
	}
	return &ArtifactSet{
		ID:                   set.ID,
		PublicID:             set.PublicID,
		ConversationPublicID: set.ConversationID,
		UserID:               set.UserID,
		ProjectName:          set.ProjectName,
		Artifacts:            datatypes.JSON(artifacts),
		GeneratedAt:          set.GeneratedAt,
	}, nil
}
