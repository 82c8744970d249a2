// Package artifact renders the planning document set from a completed
// requirements schema.
package artifact

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Artifact names. The set and its section structure are fixed; only prose
// varies between generations.
const (
	NameRequirements = "requirements.md"
	NamePhaseData    = "phase_1_data.md"
	NamePhaseService = "phase_2_service.md"
	NamePhaseUI      = "phase_3_presentation.md"
	NameReadme       = "README.md"
)

// Artifact is one rendered document.
type Artifact struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Set is the latest generated document set for a conversation.
type Set struct {
	ID             uint
	PublicID       string
	ConversationID string
	UserID         string
	ProjectName    string
	Artifacts      []Artifact
	GeneratedAt    time.Time
}

// NewSet creates an empty set for a conversation.
func NewSet(conversationID, userID, projectName string) *Set {
	return &Set{
		PublicID:       "art_" + uuid.NewString(),
		ConversationID: conversationID,
		UserID:         userID,
		ProjectName:    projectName,
		GeneratedAt:    time.Now().UTC(),
	}
}

// Names returns the artifact names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Artifacts))
	for i, a := range s.Artifacts {
		names[i] = a.Name
	}
	return names
}

// Repository persists artifact sets. SaveLatest replaces any prior set for
// the same conversation, keeping exactly one "latest" per conversation.
type Repository interface {
	SaveLatest(ctx context.Context, set *Set) error
	GetLatest(ctx context.Context, conversationID, userID string) (*Set, error)
}

// ProjectName derives a filesystem-safe directory name from the goal text.
func ProjectName(goal string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(goal)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	name := strings.Trim(b.String(), "-")
	if len(name) > 40 {
		name = strings.Trim(name[:40], "-")
	}
	if name == "" {
		return "poc-project"
	}
	return name
}
