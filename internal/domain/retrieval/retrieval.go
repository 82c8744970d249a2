// Package retrieval answers similarity queries over a user's ingested chunks.
package retrieval

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/domain/llm"
)

// Match is one retrieved chunk with its similarity score.
type Match struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// Index is a per-user vector index over chunk embeddings.
type Index interface {
	AddChunks(userID string, chunks []document.Chunk)
	Query(userID string, vector []float32, k int) []Match
	RemoveDocument(userID, documentID string)
	Loaded(userID string) bool
	MarkLoaded(userID string)
}

// ChunkSource supplies a user's persisted chunks for index rebuilds.
type ChunkSource interface {
	ListChunksByUser(ctx context.Context, userID string) ([]document.Chunk, error)
}

// Service embeds queries and searches the index, rebuilding a user's
// partition from storage on first touch after a restart.
type Service struct {
	embedder llm.Embedder
	index    Index
	source   ChunkSource
	topK     int
	log      zerolog.Logger
}

// NewService constructs the retrieval service.
func NewService(embedder llm.Embedder, index Index, source ChunkSource, topK int, log zerolog.Logger) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		embedder: embedder,
		index:    index,
		source:   source,
		topK:     topK,
		log:      log.With().Str("component", "retrieval").Logger(),
	}
}

// Retrieve returns the top-k chunks for a query. k <= 0 uses the configured
// default. A user with no documents gets an empty result, not an error.
func (s *Service) Retrieve(ctx context.Context, userID, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = s.topK
	}

	if err := s.ensureLoaded(ctx, userID); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}

	return s.index.Query(userID, vectors[0], k), nil
}

// ensureLoaded lazily rebuilds the user's index partition from storage so the
// index mirrors their non-deleted documents across restarts.
func (s *Service) ensureLoaded(ctx context.Context, userID string) error {
	if s.index.Loaded(userID) {
		return nil
	}

	chunks, err := s.source.ListChunksByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("rebuild index for user: %w", err)
	}
	s.index.AddChunks(userID, chunks)
	s.index.MarkLoaded(userID)

	s.log.Debug().
		Str("user_id", userID).
		Int("chunks", len(chunks)).
		Msg("rebuilt retrieval index partition")
	return nil
}
