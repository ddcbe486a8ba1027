package plan

import (
	"strings"

	"github.com/google/uuid"
)

// MealType labels a position in a day's meal grid. The set is open and
// ordered: a plan may carry any labels, in the order the slots were laid
// out, not just the three classic ones.
type MealType string

// Common meal type labels
const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// Normalize lowercases and trims a meal type label so that grid lookups
// are insensitive to caller formatting.
func (m MealType) Normalize() MealType {
	return MealType(strings.ToLower(strings.TrimSpace(string(m))))
}

// MealAssignment binds a recipe to a slot, carrying denormalized display
// fields so the grid can render without recipe lookups.
type MealAssignment struct {
	RecipeID          uuid.UUID `json:"recipeId"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	IngredientPreview []string  `json:"ingredientPreview,omitempty"`
	Collection        string    `json:"collection,omitempty"`
	SimilarityScore   float64   `json:"similarityScore,omitempty"`
}

// Clone returns a deep copy of the assignment
func (a *MealAssignment) Clone() *MealAssignment {
	if a == nil {
		return nil
	}
	preview := make([]string, len(a.IngredientPreview))
	copy(preview, a.IngredientPreview)
	clone := *a
	clone.IngredientPreview = preview
	return &clone
}

// MealSlot pairs an ordered meal type label with an optional assignment
type MealSlot struct {
	Type       MealType        `json:"type"`
	Assignment *MealAssignment `json:"assignment,omitempty"`
}

// DaySlot holds one day's ordered meal slots. Number is 1-based and must
// stay contiguous across the plan.
type DaySlot struct {
	Number int        `json:"number"`
	Meals  []MealSlot `json:"meals"`
}

// Clone returns a deep copy of the day slot
func (d DaySlot) Clone() DaySlot {
	meals := make([]MealSlot, len(d.Meals))
	for i, m := range d.Meals {
		meals[i] = MealSlot{Type: m.Type, Assignment: m.Assignment.Clone()}
	}
	return DaySlot{Number: d.Number, Meals: meals}
}

// slotIndex returns the index of the slot with the given meal type, or -1
func (d DaySlot) slotIndex(mealType MealType) int {
	normalized := mealType.Normalize()
	for i, m := range d.Meals {
		if m.Type.Normalize() == normalized {
			return i
		}
	}
	return -1
}

// AssignedCount returns the number of non-empty slots in the day
func (d DaySlot) AssignedCount() int {
	count := 0
	for _, m := range d.Meals {
		if m.Assignment != nil {
			count++
		}
	}
	return count
}

// PlanState represents the mutation lifecycle state of a plan
type PlanState string

const (
	// PlanStateStable means the plan accepts a new mutation
	PlanStateStable PlanState = "stable"
	// PlanStateMutating means a mutation is in flight; a second concurrent
	// mutation is rejected with a conflict rather than silently overwritten
	PlanStateMutating PlanState = "mutating"
)

// Settings holds per-plan presentation preferences. They used to live in
// a process-wide toggle; persisting them with the plan keeps concurrent
// sessions from trampling each other.
type Settings struct {
	InstructionsSeen bool `json:"instructionsSeen"`
}
