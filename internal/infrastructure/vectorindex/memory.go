// Package vectorindex provides an in-memory cosine-similarity index,
// partitioned per user and rebuilt lazily from chunk storage.
package vectorindex

import (
	"math"
	"sort"
	"sync"

	"bootlang/services/agent-api/internal/domain/document"
	"bootlang/services/agent-api/internal/domain/retrieval"
)

type entry struct {
	chunkID    string
	documentID string
	content    string
	vector     []float32
}

type partition struct {
	chunks map[string]entry    // chunk ID -> entry
	docs   map[string][]string // document ID -> chunk IDs
	loaded bool
}

// Memory is a thread-safe in-memory implementation of retrieval.Index and
// the ingestion pipeline's IndexWriter.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*partition
}

var (
	_ retrieval.Index      = (*Memory)(nil)
	_ document.IndexWriter = (*Memory)(nil)
)

// NewMemory creates an empty index.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*partition)}
}

func (m *Memory) partitionFor(userID string) *partition {
	p, ok := m.users[userID]
	if !ok {
		p = &partition{
			chunks: make(map[string]entry),
			docs:   make(map[string][]string),
		}
		m.users[userID] = p
	}
	return p
}

// AddChunks inserts chunk vectors into the user's partition.
func (m *Memory) AddChunks(userID string, chunks []document.Chunk) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.partitionFor(userID)
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			continue
		}
		p.chunks[c.ID] = entry{
			chunkID:    c.ID,
			documentID: c.DocumentID,
			content:    c.Content,
			vector:     c.Embedding,
		}
		p.docs[c.DocumentID] = append(p.docs[c.DocumentID], c.ID)
	}
}

// Query returns the top-k most similar chunks for the user.
func (m *Memory) Query(userID string, vector []float32, k int) []retrieval.Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.users[userID]
	if !ok || k <= 0 {
		return nil
	}

	matches := make([]retrieval.Match, 0, len(p.chunks))
	for _, e := range p.chunks {
		score := cosineSimilarity(vector, e.vector)
		if score <= 0 {
			continue
		}
		matches = append(matches, retrieval.Match{
			ChunkID:    e.chunkID,
			DocumentID: e.documentID,
			Content:    e.content,
			Score:      score,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// RemoveDocument drops every chunk of the document from the user's partition.
func (m *Memory) RemoveDocument(userID, documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.users[userID]
	if !ok {
		return
	}
	for _, chunkID := range p.docs[documentID] {
		delete(p.chunks, chunkID)
	}
	delete(p.docs, documentID)
}

// Loaded reports whether the user's partition has been hydrated from storage.
func (m *Memory) Loaded(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.users[userID]
	return ok && p.loaded
}

// MarkLoaded flags the user's partition as hydrated.
func (m *Memory) MarkLoaded(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitionFor(userID).loaded = true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
