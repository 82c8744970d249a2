// Package validator checks extracted requirement updates for contradictions
// against confirmed slots and for over-scoping beyond the proof-of-concept
// tier. Findings are advisory: the state machine turns them into questions
// and suggestions, never into transport errors.
package validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bootlang/services/agent-api/internal/domain/llm"
	"bootlang/services/agent-api/internal/domain/requirements"
)

// ConflictFlag describes one detected contradiction.
type ConflictFlag struct {
	Slot       requirements.Slot
	PriorValue string
	NewValue   string
	Question   string
}

// ScopeFlag describes a complexity ceiling breach with a concrete
// simplification the user can accept.
type ScopeFlag struct {
	FeatureCount     int
	IntegrationCount int
	Suggestion       string
}

// Validator runs both checks over a proposed set of slot updates.
type Validator struct {
	judge           llm.ConflictJudge
	maxFeatures     int
	maxIntegrations int
	log             zerolog.Logger
}

// New constructs a Validator with the configured ceilings.
func New(judge llm.ConflictJudge, maxFeatures, maxIntegrations int, log zerolog.Logger) *Validator {
	return &Validator{
		judge:           judge,
		maxFeatures:     maxFeatures,
		maxIntegrations: maxIntegrations,
		log:             log.With().Str("component", "validator").Logger(),
	}
}

// CheckContradictions compares each proposed update against the confirmed
// value of its slot. Identical text never conflicts; only semantically
// differing values reach the judge. The first conflict wins, since a
// conversation holds at most one pending clarification.
func (v *Validator) CheckContradictions(ctx context.Context, schema *requirements.Schema, updates []requirements.SlotUpdate) (*ConflictFlag, error) {
	for _, u := range updates {
		if !u.Slot.Valid() {
			continue
		}
		current := schema.Get(u.Slot)
		if current.State != requirements.StateConfirmed {
			continue
		}

		proposed := proposedText(u)
		confirmed := confirmedText(current)
		if proposed == "" || confirmed == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(proposed), strings.TrimSpace(confirmed)) {
			continue
		}

		verdict, err := v.judge.JudgeConflict(ctx, u.Slot, confirmed, proposed)
		if err != nil {
			return nil, fmt.Errorf("judge conflict for slot %s: %w", u.Slot, err)
		}
		if !verdict.Conflicts {
			continue
		}

		question := verdict.Question
		if question == "" {
			question = fmt.Sprintf(
				"Earlier you said the %s should be %q, but now I heard %q. Which one should I keep?",
				u.Slot.Label(), confirmed, proposed,
			)
		}

		v.log.Debug().
			Str("slot", string(u.Slot)).
			Str("confirmed", confirmed).
			Str("proposed", proposed).
			Msg("contradiction detected")

		return &ConflictFlag{
			Slot:       u.Slot,
			PriorValue: confirmed,
			NewValue:   proposed,
			Question:   question,
		}, nil
	}
	return nil, nil
}

// CheckScope counts workflow features and integrations on a post-merge
// preview of the schema and flags a breach with a keep/defer suggestion.
func (v *Validator) CheckScope(schema *requirements.Schema, updates []requirements.SlotUpdate) *ScopeFlag {
	preview := schema.Clone()
	preview.Merge(forceExplicit(updates), time.Now().UTC())

	features := preview.Get(requirements.SlotWorkflow).Items
	integrations := preview.Get(requirements.SlotIntegrations).Items

	overFeatures := len(features) > v.maxFeatures
	overIntegrations := len(integrations) > v.maxIntegrations
	if !overFeatures && !overIntegrations {
		return nil
	}

	var parts []string
	if overFeatures {
		parts = append(parts, keepDefer("features", features, v.maxFeatures))
	}
	if overIntegrations {
		parts = append(parts, keepDefer("integrations", integrations, v.maxIntegrations))
	}

	return &ScopeFlag{
		FeatureCount:     len(features),
		IntegrationCount: len(integrations),
		Suggestion: "That is a lot for a first proof of concept. " +
			strings.Join(parts, " ") +
			" Would you like to trim the scope, or keep everything anyway?",
	}
}

func keepDefer(kind string, items []string, limit int) string {
	keep := items[:limit]
	deferred := items[limit:]
	return fmt.Sprintf("For %s, I suggest keeping %s and deferring %s.",
		kind, joinQuoted(keep), joinQuoted(deferred))
}

func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	if len(quoted) == 2 {
		return quoted[0] + " and " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}

// forceExplicit lets the preview merge land on confirmed slots too, so the
// counts reflect what the schema would hold if the user insists.
func forceExplicit(updates []requirements.SlotUpdate) []requirements.SlotUpdate {
	out := make([]requirements.SlotUpdate, len(updates))
	for i, u := range updates {
		u.Explicit = true
		out[i] = u
	}
	return out
}

func proposedText(u requirements.SlotUpdate) string {
	if strings.TrimSpace(u.Value) != "" {
		return strings.TrimSpace(u.Value)
	}
	return strings.Join(u.Items, ", ")
}

func confirmedText(v requirements.SlotValue) string {
	if strings.TrimSpace(v.Value) != "" {
		return strings.TrimSpace(v.Value)
	}
	return strings.Join(v.Items, ", ")
}
