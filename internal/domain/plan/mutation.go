package plan

import (
	"time"

	"github.com/google/uuid"
)

// MutationOp identifies a structural edit operation
type MutationOp string

const (
	OpMoveMeal      MutationOp = "move_meal"
	OpSwapDays      MutationOp = "swap_days"
	OpReorderDays   MutationOp = "reorder_days"
	OpReplaceRecipe MutationOp = "replace_recipe"
)

// Mutation describes one structural edit. Every applied mutation returns
// the Mutation that undoes it, so callers can replay the inverse to roll
// back an optimistic edit without refetching the whole plan.
type Mutation struct {
	Op MutationOp `json:"op"`

	// move_meal
	SourceDay      int      `json:"sourceDay,omitempty"`
	SourceMealType MealType `json:"sourceMealType,omitempty"`
	DestDay        int      `json:"destDay,omitempty"`
	DestMealType   MealType `json:"destMealType,omitempty"`

	// swap_days
	DayA int `json:"dayA,omitempty"`
	DayB int `json:"dayB,omitempty"`

	// reorder_days: original day numbers in their new sequence
	Order []int `json:"order,omitempty"`

	// replace_recipe
	Day         int             `json:"day,omitempty"`
	MealType    MealType        `json:"mealType,omitempty"`
	OldRecipeID uuid.UUID       `json:"oldRecipeId,omitempty"`
	Replacement *MealAssignment `json:"replacement,omitempty"`
}

// Apply dispatches a mutation onto the plan and returns its inverse.
// Used to replay engine-provided inverse mutations for undo.
func (p *MealPlan) Apply(m Mutation) (*Mutation, error) {
	switch m.Op {
	case OpMoveMeal:
		return p.MoveMeal(m.SourceDay, m.SourceMealType, m.DestDay, m.DestMealType)
	case OpSwapDays:
		return p.SwapDays(m.DayA, m.DayB)
	case OpReorderDays:
		return p.ReorderDays(m.Order)
	case OpReplaceRecipe:
		if m.Replacement == nil {
			return nil, ErrRecipeMismatch
		}
		return p.ReplaceRecipe(m.Day, m.MealType, m.OldRecipeID, *m.Replacement)
	default:
		return nil, ErrInvalidPermutation
	}
}

// MoveMeal relocates a single assignment from one slot to another. When
// the destination already holds an assignment the two are exchanged,
// never silently dropped. The returned inverse is the mirrored move, so
// MoveMeal is its own inverse.
func (p *MealPlan) MoveMeal(sourceDay int, sourceMealType MealType, destDay int, destMealType MealType) (*Mutation, error) {
	days := cloneDays(p.days)

	srcIdx, srcSlot, err := locateSlot(days, sourceDay, sourceMealType)
	if err != nil {
		return nil, err
	}
	dstIdx, dstSlot, err := locateSlot(days, destDay, destMealType)
	if err != nil {
		return nil, err
	}
	if days[srcIdx].Meals[srcSlot].Assignment == nil {
		return nil, ErrEmptyAssignment
	}

	days[srcIdx].Meals[srcSlot].Assignment, days[dstIdx].Meals[dstSlot].Assignment =
		days[dstIdx].Meals[dstSlot].Assignment, days[srcIdx].Meals[srcSlot].Assignment

	if err := validateDays(days, p.mealsPerDay); err != nil {
		return nil, err
	}
	p.commit(days, OpMoveMeal)

	return &Mutation{
		Op:             OpMoveMeal,
		SourceDay:      destDay,
		SourceMealType: destMealType,
		DestDay:        sourceDay,
		DestMealType:   sourceMealType,
	}, nil
}

// SwapDays exchanges the full meal sets of two days. Day numbers are
// unaffected; only content moves. The operation is its own inverse.
func (p *MealPlan) SwapDays(dayA, dayB int) (*Mutation, error) {
	if dayA < 1 || dayA > len(p.days) || dayB < 1 || dayB > len(p.days) {
		return nil, ErrDayOutOfRange
	}

	days := cloneDays(p.days)
	days[dayA-1].Meals, days[dayB-1].Meals = days[dayB-1].Meals, days[dayA-1].Meals

	if err := validateDays(days, p.mealsPerDay); err != nil {
		return nil, err
	}
	p.commit(days, OpSwapDays)

	return &Mutation{Op: OpSwapDays, DayA: dayA, DayB: dayB}, nil
}

// ReorderDays relabels every day's ordinal number in one operation.
// order lists the original day numbers in their new sequence: order[i]
// is the original day whose content becomes day i+1. A single atomic
// permutation never transiently violates the contiguous-numbering
// invariant the way a sequence of pairwise swaps can.
func (p *MealPlan) ReorderDays(order []int) (*Mutation, error) {
	n := len(p.days)
	if len(order) != n {
		return nil, ErrInvalidPermutation
	}
	seen := make(map[int]bool, n)
	for _, num := range order {
		if num < 1 || num > n || seen[num] {
			return nil, ErrInvalidPermutation
		}
		seen[num] = true
	}

	days := make([]DaySlot, n)
	for i, num := range order {
		days[i] = p.days[num-1].Clone()
		days[i].Number = i + 1
	}

	if err := validateDays(days, p.mealsPerDay); err != nil {
		return nil, err
	}

	// Build the inverse permutation before committing: original day j is
	// now at the position where order holds j.
	inverse := make([]int, n)
	for i, num := range order {
		inverse[num-1] = i + 1
	}

	p.commit(days, OpReorderDays)
	return &Mutation{Op: OpReorderDays, Order: inverse}, nil
}

// ReplaceRecipe swaps the recipe in one slot for another. The current
// assignment must match oldRecipeID or the operation fails without
// touching the plan, letting the caller retry with fresh state.
func (p *MealPlan) ReplaceRecipe(day int, mealType MealType, oldRecipeID uuid.UUID, replacement MealAssignment) (*Mutation, error) {
	days := cloneDays(p.days)

	dayIdx, slot, err := locateSlot(days, day, mealType)
	if err != nil {
		return nil, err
	}
	current := days[dayIdx].Meals[slot].Assignment
	if current == nil || current.RecipeID != oldRecipeID {
		return nil, ErrRecipeMismatch
	}

	restore := current.Clone()
	days[dayIdx].Meals[slot].Assignment = replacement.Clone()

	if err := validateDays(days, p.mealsPerDay); err != nil {
		return nil, err
	}
	p.commit(days, OpReplaceRecipe)

	return &Mutation{
		Op:          OpReplaceRecipe,
		Day:         day,
		MealType:    mealType,
		OldRecipeID: replacement.RecipeID,
		Replacement: restore,
	}, nil
}

// commit swaps the validated grid in and stamps the mutation
func (p *MealPlan) commit(days []DaySlot, op MutationOp) {
	now := time.Now()
	p.days = days
	p.updatedAt = now
	p.lastMutatedAt = now
	p.version++
	p.AddEvent(PlanMutatedEvent{PlanID: p.id, Op: op, MutatedAt: now})
}

// locateSlot resolves a (day, mealType) address within a candidate grid
func locateSlot(days []DaySlot, day int, mealType MealType) (int, int, error) {
	idx := day - 1
	if idx < 0 || idx >= len(days) {
		return 0, 0, ErrDayOutOfRange
	}
	slot := days[idx].slotIndex(mealType)
	if slot < 0 {
		return 0, 0, ErrMealTypeNotFound
	}
	return idx, slot, nil
}
