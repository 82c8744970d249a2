// Package llm defines the narrow model interfaces the agent depends on.
// Infrastructure provides implementations; domain logic only sees these.
package llm

import (
	"context"

	"bootlang/services/agent-api/internal/domain/requirements"
)

// ExtractionInput carries one user turn plus the context the extractor needs.
type ExtractionInput struct {
	Message        string
	RecentHistory  []string
	CurrentSummary string
}

// Extractor pulls slot updates out of a free-form user message.
type Extractor interface {
	ExtractUpdates(ctx context.Context, input ExtractionInput) ([]requirements.SlotUpdate, error)
}

// Verdict is a conflict judgement for one slot.
type Verdict struct {
	Conflicts bool   `json:"conflicts"`
	Question  string `json:"question,omitempty"`
}

// ConflictJudge decides whether a proposed value contradicts a confirmed one.
// Callers short-circuit identical strings before reaching the judge.
type ConflictJudge interface {
	JudgeConflict(ctx context.Context, slot requirements.Slot, confirmed, proposed string) (Verdict, error)
}

// ProseRequest asks for one prose section of an artifact.
type ProseRequest struct {
	Section string
	Summary string
	Context []string
}

// ProseWriter turns a schema snapshot into readable document prose.
type ProseWriter interface {
	WriteProse(ctx context.Context, req ProseRequest) (string, error)
}

// VisionDescriber turns a wireframe or mockup image into a textual
// description of its layout and components.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Embedder maps texts to embedding vectors, one vector per input, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
