// Package requirements holds the fixed-slot requirements schema the agent
// fills over the course of a conversation.
package requirements

import (
	"fmt"
	"strings"
	"time"
)

// Slot identifies one requirement category.
type Slot string

const (
	SlotGoal         Slot = "goal"
	SlotUsers        Slot = "users"
	SlotWorkflow     Slot = "workflow"
	SlotFrontend     Slot = "frontend"
	SlotBackend      Slot = "backend"
	SlotDataEntities Slot = "data_entities"
	SlotIntegrations Slot = "integrations"
	SlotConstraints  Slot = "constraints"
)

// AllSlots returns every slot in presentation order.
func AllSlots() []Slot {
	return []Slot{
		SlotGoal,
		SlotUsers,
		SlotWorkflow,
		SlotFrontend,
		SlotBackend,
		SlotDataEntities,
		SlotIntegrations,
		SlotConstraints,
	}
}

// requiredSlots must be confirmed before generation. Integrations and
// constraints may legitimately stay empty.
var requiredSlots = []Slot{
	SlotGoal,
	SlotUsers,
	SlotWorkflow,
	SlotFrontend,
	SlotBackend,
	SlotDataEntities,
}

// Valid reports whether the slot name is known.
func (s Slot) Valid() bool {
	for _, known := range AllSlots() {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable heading for the slot.
func (s Slot) Label() string {
	switch s {
	case SlotGoal:
		return "Goal"
	case SlotUsers:
		return "Users"
	case SlotWorkflow:
		return "Core Workflow"
	case SlotFrontend:
		return "Frontend"
	case SlotBackend:
		return "Backend"
	case SlotDataEntities:
		return "Data Entities"
	case SlotIntegrations:
		return "Integrations"
	case SlotConstraints:
		return "Constraints"
	default:
		return string(s)
	}
}

// SlotState tracks how settled a slot's value is.
type SlotState string

const (
	StateUnset     SlotState = "unset"
	StateTentative SlotState = "tentative"
	StateConfirmed SlotState = "confirmed"
)

// SlotValue is the current content of one slot.
type SlotValue struct {
	State     SlotState `json:"state"`
	Value     string    `json:"value,omitempty"`
	Items     []string  `json:"items,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Empty reports whether the slot carries no content.
func (v SlotValue) Empty() bool {
	return strings.TrimSpace(v.Value) == "" && len(v.Items) == 0
}

// SlotUpdate is one extracted change to a single slot.
type SlotUpdate struct {
	Slot  Slot     `json:"slot"`
	Value string   `json:"value,omitempty"`
	Items []string `json:"items,omitempty"`
	// Explicit is set when the user directly restated this slot, which is
	// the only way a confirmed value may change.
	Explicit bool `json:"explicit,omitempty"`
}

// Schema is the full requirements picture for one conversation.
type Schema struct {
	Slots map[Slot]SlotValue `json:"slots"`
}

// NewSchema returns a schema with every slot unset.
func NewSchema() *Schema {
	slots := make(map[Slot]SlotValue, len(AllSlots()))
	for _, s := range AllSlots() {
		slots[s] = SlotValue{State: StateUnset}
	}
	return &Schema{Slots: slots}
}

// Get returns the slot value, defaulting to unset for unknown keys.
func (s *Schema) Get(slot Slot) SlotValue {
	if s.Slots == nil {
		return SlotValue{State: StateUnset}
	}
	v, ok := s.Slots[slot]
	if !ok {
		return SlotValue{State: StateUnset}
	}
	return v
}

// Merge applies extracted updates slot by slot and returns the slots that
// changed. Updates never touch slots they do not name: a confirmed slot only
// moves when its update carries the Explicit flag, and an update for one slot
// never clears another.
func (s *Schema) Merge(updates []SlotUpdate, now time.Time) []Slot {
	if s.Slots == nil {
		s.Slots = NewSchema().Slots
	}

	var changed []Slot
	for _, u := range updates {
		if !u.Slot.Valid() {
			continue
		}
		if strings.TrimSpace(u.Value) == "" && len(u.Items) == 0 {
			continue
		}

		current := s.Get(u.Slot)
		switch current.State {
		case StateUnset:
			s.Slots[u.Slot] = SlotValue{
				State:     StateTentative,
				Value:     strings.TrimSpace(u.Value),
				Items:     mergeItems(nil, u.Items),
				UpdatedAt: now,
			}
			changed = append(changed, u.Slot)
		case StateTentative:
			next := current
			if strings.TrimSpace(u.Value) != "" {
				next.Value = strings.TrimSpace(u.Value)
			}
			next.Items = mergeItems(current.Items, u.Items)
			next.UpdatedAt = now
			s.Slots[u.Slot] = next
			changed = append(changed, u.Slot)
		case StateConfirmed:
			if !u.Explicit {
				continue
			}
			// An explicit restatement reopens the slot for re-confirmation.
			next := SlotValue{
				State:     StateTentative,
				Value:     strings.TrimSpace(u.Value),
				Items:     mergeItems(nil, u.Items),
				UpdatedAt: now,
			}
			if next.Value == "" {
				next.Value = current.Value
			}
			s.Slots[u.Slot] = next
			changed = append(changed, u.Slot)
		}
	}
	return changed
}

func mergeItems(existing, incoming []string) []string {
	out := make([]string, 0, len(existing)+len(incoming))
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, it := range existing {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(it))
	}
	for _, it := range incoming {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(it))
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Confirm locks a slot at its current value.
func (s *Schema) Confirm(slot Slot) {
	v := s.Get(slot)
	if v.State == StateTentative && !v.Empty() {
		v.State = StateConfirmed
		s.Slots[slot] = v
	}
}

// ConfirmAll locks every filled tentative slot, used when the user approves
// the summary wholesale.
func (s *Schema) ConfirmAll() {
	for _, slot := range AllSlots() {
		s.Confirm(slot)
	}
}

// Complete reports whether every required slot is confirmed and non-empty.
func (s *Schema) Complete() bool {
	return len(s.MissingSlots()) == 0
}

// Filled reports whether every required slot carries content, confirmed or not.
func (s *Schema) Filled() bool {
	for _, slot := range requiredSlots {
		if s.Get(slot).Empty() {
			return false
		}
	}
	return true
}

// MissingSlots lists required slots that are not yet confirmed.
func (s *Schema) MissingSlots() []string {
	var missing []string
	for _, slot := range requiredSlots {
		v := s.Get(slot)
		if v.State != StateConfirmed || v.Empty() {
			missing = append(missing, string(slot))
		}
	}
	return missing
}

// Summary renders the current picture for the confirmation prompt.
func (s *Schema) Summary() string {
	var b strings.Builder
	b.WriteString("Here is what I have so far:\n")
	for _, slot := range AllSlots() {
		v := s.Get(slot)
		if v.Empty() {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s", slot.Label(), v.Value)
		if len(v.Items) > 0 {
			if v.Value != "" {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "(%s)", strings.Join(v.Items, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for slot, v := range s.Slots {
		copied := v
		if len(v.Items) > 0 {
			copied.Items = append([]string(nil), v.Items...)
		}
		out.Slots[slot] = copied
	}
	return out
}
