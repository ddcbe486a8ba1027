// Package plan contains the core domain logic for meal plans.
// A plan is a day/meal grid of recipe assignments produced by generation
// and edited through structural mutations, each of which yields an
// inverse mutation for undo.
package plan

import (
	"sort"
	"time"

	"github.com/alchemorsel/planner/internal/domain/shared"
	"github.com/google/uuid"
)

// MealPlan is the aggregate root for a multi-day meal grid.
type MealPlan struct {
	shared.AggregateRoot

	id      uuid.UUID
	version int64

	ownerID        uuid.UUID
	conversationID uuid.UUID

	name        string
	explanation string
	mealsPerDay int
	days        []DaySlot

	state    PlanState
	settings Settings

	createdAt     time.Time
	updatedAt     time.Time
	lastMutatedAt time.Time
}

// NewMealPlan creates a new MealPlan with validation
func NewMealPlan(ownerID, conversationID uuid.UUID, name string, mealsPerDay int, days []DaySlot, explanation string) (*MealPlan, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if mealsPerDay <= 0 {
		return nil, ErrInvalidMealsPerDay
	}
	if len(days) == 0 {
		return nil, ErrInvalidDayCount
	}

	now := time.Now()
	p := &MealPlan{
		id:             uuid.New(),
		version:        1,
		ownerID:        ownerID,
		conversationID: conversationID,
		name:           name,
		explanation:    explanation,
		mealsPerDay:    mealsPerDay,
		days:           sortDays(cloneDays(days)),
		state:          PlanStateStable,
		createdAt:      now,
		updatedAt:      now,
		lastMutatedAt:  now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	p.AddEvent(PlanCreatedEvent{
		PlanID:         p.id,
		OwnerID:        ownerID,
		ConversationID: conversationID,
		Name:           name,
		Days:           len(days),
		CreatedAt:      now,
	})

	return p, nil
}

// Rehydrate reconstructs a MealPlan from persisted state without raising
// creation events. Used by the persistence layer only.
func Rehydrate(id, ownerID, conversationID uuid.UUID, version int64, name, explanation string, mealsPerDay int, days []DaySlot, state PlanState, settings Settings, createdAt, updatedAt, lastMutatedAt time.Time) *MealPlan {
	return &MealPlan{
		id:             id,
		version:        version,
		ownerID:        ownerID,
		conversationID: conversationID,
		name:           name,
		explanation:    explanation,
		mealsPerDay:    mealsPerDay,
		days:           sortDays(days),
		state:          state,
		settings:       settings,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		lastMutatedAt:  lastMutatedAt,
	}
}

// Fork creates a new plan from this one for text-edit regeneration. The
// fork shares the conversation and owner but carries fresh identity, the
// regenerated grid, and its own explanation.
func (p *MealPlan) Fork(name string, days []DaySlot, explanation string) (*MealPlan, error) {
	fork, err := NewMealPlan(p.ownerID, p.conversationID, name, p.mealsPerDay, days, explanation)
	if err != nil {
		return nil, err
	}
	fork.ClearEvents()
	fork.AddEvent(PlanForkedEvent{
		PlanID:       fork.id,
		SourcePlanID: p.id,
		ForkedAt:     fork.createdAt,
	})
	return fork, nil
}

// ID returns the plan's unique identifier
func (p *MealPlan) ID() uuid.UUID {
	return p.id
}

// Version returns the plan's optimistic-locking version
func (p *MealPlan) Version() int64 {
	return p.version
}

// OwnerID returns the plan owner's identifier
func (p *MealPlan) OwnerID() uuid.UUID {
	return p.ownerID
}

// ConversationID returns the conversation this plan belongs to
func (p *MealPlan) ConversationID() uuid.UUID {
	return p.conversationID
}

// Name returns the plan's display name
func (p *MealPlan) Name() string {
	return p.name
}

// Explanation returns the free-text explanation attached at generation
func (p *MealPlan) Explanation() string {
	return p.explanation
}

// MealsPerDay returns the grid's meal capacity per day
func (p *MealPlan) MealsPerDay() int {
	return p.mealsPerDay
}

// DayCount returns the number of days in the plan
func (p *MealPlan) DayCount() int {
	return len(p.days)
}

// Days returns a deep copy of the day grid. Mutations go through the
// mutation operations, never through this snapshot.
func (p *MealPlan) Days() []DaySlot {
	return cloneDays(p.days)
}

// Day returns a copy of a single day by its 1-based number
func (p *MealPlan) Day(number int) (DaySlot, error) {
	idx := number - 1
	if idx < 0 || idx >= len(p.days) {
		return DaySlot{}, ErrDayOutOfRange
	}
	return p.days[idx].Clone(), nil
}

// Assignment returns the assignment at the given day and meal type, which
// may be nil for an empty slot
func (p *MealPlan) Assignment(day int, mealType MealType) (*MealAssignment, error) {
	idx := day - 1
	if idx < 0 || idx >= len(p.days) {
		return nil, ErrDayOutOfRange
	}
	slot := p.days[idx].slotIndex(mealType)
	if slot < 0 {
		return nil, ErrMealTypeNotFound
	}
	return p.days[idx].Meals[slot].Assignment.Clone(), nil
}

// State returns the plan's mutation lifecycle state
func (p *MealPlan) State() PlanState {
	return p.state
}

// Settings returns the per-plan presentation settings
func (p *MealPlan) Settings() Settings {
	return p.settings
}

// UpdateSettings replaces the per-plan presentation settings
func (p *MealPlan) UpdateSettings(s Settings) {
	p.settings = s
	p.updatedAt = time.Now()
}

// CreatedAt returns when the plan was created
func (p *MealPlan) CreatedAt() time.Time {
	return p.createdAt
}

// UpdatedAt returns when the plan was last changed
func (p *MealPlan) UpdatedAt() time.Time {
	return p.updatedAt
}

// LastMutatedAt returns when an assignment last changed. Derived state
// such as grocery lists is stale relative to this instant.
func (p *MealPlan) LastMutatedAt() time.Time {
	return p.lastMutatedAt
}

// BeginMutation transitions the plan into the mutating state. A plan that
// is already mutating rejects the transition so concurrent edits surface
// as conflicts instead of silent overwrites.
func (p *MealPlan) BeginMutation() error {
	if p.state == PlanStateMutating {
		return ErrPlanMutating
	}
	p.state = PlanStateMutating
	return nil
}

// EndMutation returns the plan to the stable state
func (p *MealPlan) EndMutation() {
	p.state = PlanStateStable
}

// Validate checks the grid invariants: contiguous 1..N day numbers, no
// meal type assigned twice within a day, and the assigned slot count not
// exceeding days times meals per day.
func (p *MealPlan) Validate() error {
	return validateDays(p.days, p.mealsPerDay)
}

// UpdateName updates the plan's display name with validation
func (p *MealPlan) UpdateName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	p.name = name
	p.updatedAt = time.Now()
	return nil
}

// validateDays enforces the grid invariants on a candidate day set
func validateDays(days []DaySlot, mealsPerDay int) error {
	seen := make(map[int]bool, len(days))
	assigned := 0
	for _, d := range days {
		if d.Number < 1 || d.Number > len(days) || seen[d.Number] {
			return ErrDayNumbersNotContiguous
		}
		seen[d.Number] = true

		types := make(map[MealType]bool, len(d.Meals))
		for _, m := range d.Meals {
			if m.Assignment == nil {
				continue
			}
			normalized := m.Type.Normalize()
			if types[normalized] {
				return ErrDuplicateMealType
			}
			types[normalized] = true
			assigned++
		}
	}
	if assigned > len(days)*mealsPerDay {
		return ErrTooManyAssignments
	}
	return nil
}

func validateName(name string) error {
	if len(name) < 3 {
		return ErrNameTooShort
	}
	if len(name) > 200 {
		return ErrNameTooLong
	}
	return nil
}

func cloneDays(days []DaySlot) []DaySlot {
	clone := make([]DaySlot, len(days))
	for i, d := range days {
		clone[i] = d.Clone()
	}
	return clone
}

// sortDays orders the grid by day number so day N lives at index N-1
func sortDays(days []DaySlot) []DaySlot {
	sort.Slice(days, func(i, j int) bool { return days[i].Number < days[j].Number })
	return days
}
