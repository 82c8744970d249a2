package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootlang/services/agent-api/internal/domain/document"
)

func chunk(id, docID string, vec []float32) document.Chunk {
	return document.Chunk{ID: id, DocumentID: docID, Content: "content " + id, Embedding: vec}
}

func TestQueryRanksBySimilarity(t *testing.T) {
	idx := NewMemory()
	idx.AddChunks("user-1", []document.Chunk{
		chunk("c1", "doc_a", []float32{1, 0, 0}),
		chunk("c2", "doc_a", []float32{0.9, 0.1, 0}),
		chunk("c3", "doc_b", []float32{0, 1, 0}),
	})

	matches := idx.Query("user-1", []float32{1, 0, 0}, 2)

	require.Len(t, matches, 2)
	assert.Equal(t, "c1", matches[0].ChunkID)
	assert.Equal(t, "c2", matches[1].ChunkID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestQueryIsScopedPerUser(t *testing.T) {
	idx := NewMemory()
	idx.AddChunks("user-1", []document.Chunk{chunk("c1", "doc_a", []float32{1, 0})})
	idx.AddChunks("user-2", []document.Chunk{chunk("c2", "doc_b", []float32{1, 0})})

	matches := idx.Query("user-1", []float32{1, 0}, 10)

	require.Len(t, matches, 1)
	assert.Equal(t, "c1", matches[0].ChunkID)
}

func TestRemoveDocumentDropsAllItsChunks(t *testing.T) {
	idx := NewMemory()
	idx.AddChunks("user-1", []document.Chunk{
		chunk("c1", "doc_a", []float32{1, 0}),
		chunk("c2", "doc_a", []float32{0.8, 0.2}),
		chunk("c3", "doc_b", []float32{0.9, 0.1}),
	})

	idx.RemoveDocument("user-1", "doc_a")

	matches := idx.Query("user-1", []float32{1, 0}, 10)
	require.Len(t, matches, 1)
	assert.Equal(t, "c3", matches[0].ChunkID)
}

func TestRemoveDocumentUnknownUserIsNoop(t *testing.T) {
	idx := NewMemory()
	idx.RemoveDocument("ghost", "doc_a")
	assert.Empty(t, idx.Query("ghost", []float32{1}, 5))
}

func TestLoadedTracking(t *testing.T) {
	idx := NewMemory()
	assert.False(t, idx.Loaded("user-1"))

	idx.MarkLoaded("user-1")
	assert.True(t, idx.Loaded("user-1"))
	assert.False(t, idx.Loaded("user-2"))
}

func TestQuerySkipsZeroVectors(t *testing.T) {
	idx := NewMemory()
	idx.AddChunks("user-1", []document.Chunk{
		chunk("c1", "doc_a", []float32{0, 0}),
		chunk("c2", "doc_a", []float32{1, 0}),
	})

	matches := idx.Query("user-1", []float32{1, 0}, 10)
	require.Len(t, matches, 1)
	assert.Equal(t, "c2", matches[0].ChunkID)
}
