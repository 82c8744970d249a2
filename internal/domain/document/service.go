package document

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/utils/userlock"
)

const (
	embedBatchSize   = 64
	embedConcurrency = 4
)

// IndexWriter is the slice of the retrieval index the ingestion pipeline
// needs: adding freshly committed chunks and dropping a deleted document.
type IndexWriter interface {
	AddChunks(userID string, chunks []Chunk)
	RemoveDocument(userID, documentID string)
}

// Service runs the ingestion pipeline end to end. Uploads and deletions
// share the per-user lock registry with the conversation service, so they
// never interleave with a turn for the same user.
type Service struct {
	repo      Repository
	chunker   *Chunker
	embedder  llm.Embedder
	vision    llm.VisionDescriber
	extractor TextExtractor
	index     IndexWriter
	locks     *userlock.Registry
	log       zerolog.Logger
}

// NewService constructs the ingestion service. extractor may be nil when no
// PDF extraction backend is configured.
func NewService(
	repo Repository,
	chunker *Chunker,
	embedder llm.Embedder,
	vision llm.VisionDescriber,
	extractor TextExtractor,
	index IndexWriter,
	locks *userlock.Registry,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		chunker:   chunker,
		embedder:  embedder,
		vision:    vision,
		extractor: extractor,
		index:     index,
		locks:     locks,
		log:       log.With().Str("component", "ingestion").Logger(),
	}
}

// Ingest processes one upload: extract text, chunk, embed, and persist
// atomically. A failure at any step rejects the whole file; no partial
// document ever lands in storage or the index.
func (s *Service) Ingest(ctx context.Context, userID, filename, declaredType string, data []byte, mimeType string) (*Document, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	docType, err := ParseType(declaredType)
	if err != nil {
		return nil, domainerrors.NewAgentError(
			domainerrors.ErrCodeUnsupportedFile, err.Error(), domainerrors.SeverityUser)
	}
	if len(data) == 0 {
		return nil, domainerrors.NewIngestionError("uploaded file is empty", nil)
	}

	texts, err := s.chunkTexts(ctx, docType, data, mimeType)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, domainerrors.NewIngestionError("no extractable text in file", nil)
	}

	vectors, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	doc := NewDocument(userID, filename, docType)
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.PublicID,
			UserID:     userID,
			Seq:        i,
			Content:    text,
			Embedding:  vectors[i],
		}
	}
	doc.ChunkCount = len(chunks)

	if err := s.repo.CreateWithChunks(ctx, doc, chunks); err != nil {
		return nil, err
	}

	s.index.AddChunks(userID, chunks)

	s.log.Info().
		Str("document_id", doc.PublicID).
		Str("user_id", userID).
		Str("type", string(docType)).
		Int("chunks", len(chunks)).
		Msg("document ingested")

	return doc, nil
}

func (s *Service) chunkTexts(ctx context.Context, docType Type, data []byte, mimeType string) ([]string, error) {
	switch docType {
	case TypeText, TypeMarkdown:
		return s.chunker.Split(string(data)), nil
	case TypePDF:
		if s.extractor == nil {
			return nil, domainerrors.NewIngestionError("pdf extraction is not configured", nil)
		}
		text, err := s.extractor.ExtractPDF(ctx, data)
		if err != nil {
			return nil, domainerrors.NewIngestionError("pdf text extraction failed", err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, domainerrors.NewIngestionError("pdf contains no extractable text", nil)
		}
		return s.chunker.Split(text), nil
	case TypeImage:
		description, err := s.vision.DescribeImage(ctx, data, mimeType)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(description) == "" {
			return nil, domainerrors.NewIngestionError("image produced no description", nil)
		}
		// A wireframe description is short enough to stay a single chunk.
		return []string{strings.TrimSpace(description)}, nil
	default:
		return nil, domainerrors.NewAgentError(
			domainerrors.ErrCodeUnsupportedFile, "unsupported document type", domainerrors.SeverityUser)
	}
}

// embedAll embeds chunk texts in fixed-size batches with bounded concurrency.
// Order is preserved by writing each batch into its own output window.
func (s *Service) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		g.Go(func() error {
			batch, err := s.embedder.EmbedTexts(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(batch) != end-start {
				return domainerrors.NewExternalModelError("embedding count mismatch", nil)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Get returns a single document owned by the user.
func (s *Service) Get(ctx context.Context, userID, publicID string) (*Document, error) {
	return s.repo.GetByPublicID(ctx, publicID, userID)
}

// List returns the user's documents.
func (s *Service) List(ctx context.Context, userID string) ([]*Document, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes a document, its chunks, and its index entries.
func (s *Service) Delete(ctx context.Context, userID, publicID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.repo.Delete(ctx, publicID, userID); err != nil {
		return err
	}
	s.index.RemoveDocument(userID, publicID)

	s.log.Info().
		Str("document_id", publicID).
		Str("user_id", userID).
		Msg("document deleted")
	return nil
}
