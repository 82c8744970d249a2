// Package document covers reference material uploads: typing, chunking,
// and the ingestion pipeline that feeds the retrieval index.
package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies an uploaded file.
type Type string

const (
	TypeText     Type = "text"
	TypeMarkdown Type = "markdown"
	TypePDF      Type = "pdf"
	TypeImage    Type = "image"
)

// ParseType validates a declared document type.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeText:
		return TypeText, nil
	case TypeMarkdown:
		return TypeMarkdown, nil
	case TypePDF:
		return TypePDF, nil
	case TypeImage:
		return TypeImage, nil
	default:
		return "", fmt.Errorf("unsupported document type %q", raw)
	}
}

// IsImage reports whether the type goes through the vision path.
func (t Type) IsImage() bool {
	return t == TypeImage
}

// Document is one ingested reference file.
type Document struct {
	ID         uint
	PublicID   string
	UserID     string
	Filename   string
	Type       Type
	ChunkCount int
	CreatedAt  time.Time
}

// NewDocument creates the record for a fresh upload.
func NewDocument(userID, filename string, docType Type) *Document {
	return &Document{
		PublicID:  "doc_" + uuid.NewString(),
		UserID:    userID,
		Filename:  filename,
		Type:      docType,
		CreatedAt: time.Now().UTC(),
	}
}

// Chunk is one embeddable piece of a document.
type Chunk struct {
	ID         string
	DocumentID string
	UserID     string
	Seq        int
	Content    string
	Embedding  []float32
}

// Repository persists documents and their chunks. CreateWithChunks is
// transactional: either the document and every chunk land, or nothing does.
type Repository interface {
	CreateWithChunks(ctx context.Context, doc *Document, chunks []Chunk) error
	GetByPublicID(ctx context.Context, publicID, userID string) (*Document, error)
	ListByUser(ctx context.Context, userID string) ([]*Document, error)
	Delete(ctx context.Context, publicID, userID string) error
	ListChunksByUser(ctx context.Context, userID string) ([]Chunk, error)
}

// TextExtractor pulls plain text out of a PDF byte stream.
type TextExtractor interface {
	ExtractPDF(ctx context.Context, data []byte) (string, error)
}
