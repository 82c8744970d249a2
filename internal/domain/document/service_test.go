package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "bootlang/services/agent-api/internal/domain/errors"
	"bootlang/services/agent-api/internal/utils/userlock"
)

type fakeRepo struct {
	created   []*Document
	chunks    []Chunk
	createErr error
	deleteErr error
	deleted   []string
}

func (f *fakeRepo) CreateWithChunks(_ context.Context, doc *Document, chunks []Chunk) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, doc)
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeRepo) GetByPublicID(_ context.Context, publicID, _ string) (*Document, error) {
	for _, d := range f.created {
		if d.PublicID == publicID {
			return d, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRepo) ListByUser(_ context.Context, _ string) ([]*Document, error) {
	return f.created, nil
}

func (f *fakeRepo) Delete(_ context.Context, publicID, _ string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeRepo) ListChunksByUser(_ context.Context, _ string) ([]Chunk, error) {
	return f.chunks, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeVision struct {
	description string
	err         error
}

func (f *fakeVision) DescribeImage(_ context.Context, _ []byte, _ string) (string, error) {
	return f.description, f.err
}

type fakeIndex struct {
	added   []Chunk
	removed []string
}

func (f *fakeIndex) AddChunks(_ string, chunks []Chunk) {
	f.added = append(f.added, chunks...)
}

func (f *fakeIndex) RemoveDocument(_, documentID string) {
	f.removed = append(f.removed, documentID)
}

func newTestService(repo *fakeRepo, embedder *fakeEmbedder, vision *fakeVision, index *fakeIndex) *Service {
	return NewService(repo, NewChunker(100, 20), embedder, vision, nil, index, userlock.NewRegistry(), zerolog.Nop())
}

func TestIngestTextPersistsAndIndexes(t *testing.T) {
	repo := &fakeRepo{}
	index := &fakeIndex{}
	svc := newTestService(repo, &fakeEmbedder{}, &fakeVision{}, index)

	doc, err := svc.Ingest(context.Background(), "user-1", "notes.md", "markdown",
		[]byte(strings.Repeat("requirement detail ", 50)), "text/markdown")

	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, doc.ChunkCount, len(repo.chunks))
	assert.Greater(t, doc.ChunkCount, 1)
	assert.Len(t, index.added, doc.ChunkCount)

	for i, chunk := range repo.chunks {
		assert.Equal(t, i, chunk.Seq)
		assert.Equal(t, doc.PublicID, chunk.DocumentID)
		assert.NotEmpty(t, chunk.Embedding)
	}
}

func TestIngestEmbeddingFailureIsAllOrNothing(t *testing.T) {
	repo := &fakeRepo{}
	index := &fakeIndex{}
	svc := newTestService(repo, &fakeEmbedder{err: domainerrors.NewExternalModelError("provider down", nil)}, &fakeVision{}, index)

	_, err := svc.Ingest(context.Background(), "user-1", "notes.txt", "text",
		[]byte("some requirements text"), "text/plain")

	require.Error(t, err)
	assert.Empty(t, repo.created, "nothing may be persisted on failure")
	assert.Empty(t, index.added, "nothing may be indexed on failure")
}

func TestIngestStorageFailureSkipsIndex(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("db down")}
	index := &fakeIndex{}
	svc := newTestService(repo, &fakeEmbedder{}, &fakeVision{}, index)

	_, err := svc.Ingest(context.Background(), "user-1", "notes.txt", "text",
		[]byte("some requirements text"), "text/plain")

	require.Error(t, err)
	assert.Empty(t, index.added)
}

func TestIngestImageUsesVisionAsSingleChunk(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeEmbedder{}, &fakeVision{description: "Two-column layout with a sidebar and a task list."}, &fakeIndex{})

	doc, err := svc.Ingest(context.Background(), "user-1", "wireframe.png", "image",
		[]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")

	require.NoError(t, err)
	assert.Equal(t, 1, doc.ChunkCount)
	require.Len(t, repo.chunks, 1)
	assert.Contains(t, repo.chunks[0].Content, "sidebar")
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeEmbedder{}, &fakeVision{}, &fakeIndex{})

	_, err := svc.Ingest(context.Background(), "user-1", "a.docx", "docx", []byte("x"), "")

	require.Error(t, err)
	assert.True(t, domainerrors.IsIngestionError(err))
}

func TestIngestRejectsEmptyFile(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeEmbedder{}, &fakeVision{}, &fakeIndex{})

	_, err := svc.Ingest(context.Background(), "user-1", "a.txt", "text", nil, "")

	require.Error(t, err)
	assert.True(t, domainerrors.IsIngestionError(err))
}

func TestIngestPDFWithoutExtractorIsRejected(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeEmbedder{}, &fakeVision{}, &fakeIndex{})

	_, err := svc.Ingest(context.Background(), "user-1", "spec.pdf", "pdf", []byte("%PDF-1.4"), "application/pdf")

	require.Error(t, err)
	assert.True(t, domainerrors.IsIngestionError(err))
}

func TestIngestWaitsForUserLock(t *testing.T) {
	locks := userlock.NewRegistry()
	repo := &fakeRepo{}
	svc := NewService(repo, NewChunker(100, 20), &fakeEmbedder{}, &fakeVision{}, nil, &fakeIndex{}, locks, zerolog.Nop())

	// Another mutation for the same user is in flight.
	unlock := locks.Lock("user-1")

	done := make(chan struct{})
	var ingestErr error
	go func() {
		defer close(done)
		_, ingestErr = svc.Ingest(context.Background(), "user-1", "notes.txt", "text",
			[]byte("some requirements text"), "text/plain")
	}()

	// While the lock is held the upload cannot commit anything.
	assert.Empty(t, repo.created)

	unlock()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ingest never finished after the lock was released")
	}

	require.NoError(t, ingestErr)
	assert.Len(t, repo.created, 1)
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	repo := &fakeRepo{}
	index := &fakeIndex{}
	svc := newTestService(repo, &fakeEmbedder{}, &fakeVision{}, index)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "doc_123"))

	assert.Equal(t, []string{"doc_123"}, repo.deleted)
	assert.Equal(t, []string{"doc_123"}, index.removed)
}

func TestDeleteStorageFailureLeavesIndexAlone(t *testing.T) {
	repo := &fakeRepo{deleteErr: errors.New("db down")}
	index := &fakeIndex{}
	svc := newTestService(repo, &fakeEmbedder{}, &fakeVision{}, index)

	require.Error(t, svc.Delete(context.Background(), "user-1", "doc_123"))
	assert.Empty(t, index.removed)
}
