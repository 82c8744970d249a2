package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"bootlang/services/agent-api/internal/domain/document"
)

// Document represents the database schema for ingested reference files.
type Document struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID   string `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID     string `gorm:"type:varchar(64);index:idx_document_user;not null"`
	Filename   string `gorm:"type:varchar(256);not null"`
	Type       string `gorm:"type:varchar(20);not null"`
	ChunkCount int    `gorm:"not null;default:0"`

	Chunks []DocumentChunk `gorm:"foreignKey:DocumentPublicID;references:PublicID"`
}

// TableName specifies the table name for Document.
func (Document) TableName() string {
	return "documents"
}

// DocumentChunk is one embedded piece of a document.
type DocumentChunk struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	ChunkID          string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	DocumentPublicID string         `gorm:"type:varchar(50);index:idx_chunk_document;not null"`
	UserID           string         `gorm:"type:varchar(64);index:idx_chunk_user;not null"`
	Seq              int            `gorm:"not null"`
	Content          string         `gorm:"type:text;not null"`
	Embedding        datatypes.JSON `gorm:"type:jsonb"`
}

// TableName specifies the table name for DocumentChunk.
func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// EtoD converts the database entity to the domain model.
func (d *Document) EtoD() *document.Document {
	return &document.Document{
		ID:         d.ID,
		PublicID:   d.PublicID,
		UserID:     d.UserID,
		Filename:   d.Filename,
		Type:       document.Type(d.Type),
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

// NewSchemaDocument converts the domain model to a database entity.
func NewSchemaDocument(d *document.Document) *Document {
	return &Document{
		ID:         d.ID,
		PublicID:   d.PublicID,
		UserID:     d.UserID,
		Filename:   d.Filename,
		Type:       string(d.Type),
		ChunkCount: d.ChunkCount,
	}
}

// EtoD converts the chunk entity to the domain model.
func (c *DocumentChunk) EtoD() (document.Chunk, error) {
	chunk := document.Chunk{
		ID:         c.ChunkID,
		DocumentID: c.DocumentPublicID,
		UserID:     c.UserID,
		Seq:        c.Seq,
		Content:    c.Content,
	}
	if len(c.Embedding) > 0 {
		if err := json.Unmarshal(c.Embedding, &chunk.Embedding); err != nil {
			return document.Chunk{}, fmt.Errorf("decode chunk embedding: %w", err)
		}
	}
	return chunk, nil
}

// NewSchemaChunk converts the domain chunk to a database entity.
func NewSchemaChunk(c document.Chunk) (*DocumentChunk, error) {
	embedding, err := json.Marshal(c.Embedding)
	if err != nil {
		return nil, fmt.Errorf("encode chunk embedding: %w", err)
	}
	return &DocumentChunk{
		ChunkID:          c.ID,
		DocumentPublicID: c.DocumentID,
		UserID:           c.UserID,
		Seq:              c.Seq,
		Content:          c.Content,
		Embedding:        datatypes.JSON(embedding),
	}, nil
}
