// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/google/uuid"
)

// PlanningService defines the use cases for conversational meal planning
// This is the primary port that HTTP handlers and other driving adapters will use
type PlanningService interface {
	// Commands - operations that modify state
	GeneratePlan(ctx context.Context, cmd GeneratePlanCommand) (*PlanDTO, error)
	EditPlanWithText(ctx context.Context, cmd EditPlanCommand) (*PlanDTO, error)
	MoveMeal(ctx context.Context, cmd MoveMealCommand) (*MutationResult, error)
	SwapDays(ctx context.Context, cmd SwapDaysCommand) (*MutationResult, error)
	ReorderDays(ctx context.Context, cmd ReorderDaysCommand) (*MutationResult, error)
	ReplaceRecipe(ctx context.Context, cmd ReplaceRecipeCommand) (*MutationResult, error)
	ApplyMutation(ctx context.Context, planID, userID uuid.UUID, m plan.Mutation) (*MutationResult, error)
	MarkInstructionsSeen(ctx context.Context, planID, userID uuid.UUID) error
	DeleteConversation(ctx context.Context, conversationID, userID uuid.UUID) error

	// Queries - operations that read state. Reads carry the caller's
	// identity and are refused for plans and threads the caller does
	// not own, same as the mutation paths.
	GetPlan(ctx context.Context, planID, userID uuid.UUID) (*PlanDTO, error)
	GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*ConversationDTO, error)
	ListConversations(ctx context.Context, userID uuid.UUID, offset, limit int) ([]ConversationSummaryDTO, int, error)
}

// GroceryService defines the use cases for shopping list synthesis
type GroceryService interface {
	GetGroceryList(ctx context.Context, planID, userID uuid.UUID, forceRegenerate bool) (*GroceryListDTO, error)
	InvalidateForPlan(ctx context.Context, planID, userID uuid.UUID) error
}

// Command objects for operations

// GeneratePlanCommand contains data for generating a plan from a request
type GeneratePlanCommand struct {
	UserID         uuid.UUID
	ConversationID uuid.UUID // uuid.Nil starts a new conversation
	Request        string
	Days           int
	MealsPerDay    int
}

// EditPlanCommand contains data for a free-text regeneration of a plan
type EditPlanCommand struct {
	UserID  uuid.UUID
	PlanID  uuid.UUID
	Request string
}

// MoveMealCommand moves a meal between day slots
type MoveMealCommand struct {
	UserID         uuid.UUID
	PlanID         uuid.UUID
	SourceDay      int
	SourceMealType string
	DestDay        int
	DestMealType   string
}

// SwapDaysCommand exchanges the contents of two days
type SwapDaysCommand struct {
	UserID uuid.UUID
	PlanID uuid.UUID
	DayA   int
	DayB   int
}

// ReorderDaysCommand relabels days according to a permutation
type ReorderDaysCommand struct {
	UserID uuid.UUID
	PlanID uuid.UUID
	Order  []int
}

// ReplaceRecipeCommand swaps one assigned recipe for another. The new
// recipe is resolved against the catalog server-side; callers only name
// the id.
type ReplaceRecipeCommand struct {
	UserID      uuid.UUID
	PlanID      uuid.UUID
	Day         int
	MealType    string
	OldRecipeID uuid.UUID
	NewRecipeID uuid.UUID
}

// Data transfer objects

// MutationResult carries the mutated plan plus the inverse operation
// that undoes it
type MutationResult struct {
	Plan    *PlanDTO      `json:"plan"`
	Inverse plan.Mutation `json:"inverse"`
}

// PlanDTO is the outward representation of a meal plan
type PlanDTO struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID uuid.UUID     `json:"conversation_id"`
	OwnerID        uuid.UUID     `json:"owner_id"`
	Name           string        `json:"name"`
	Explanation    string        `json:"explanation,omitempty"`
	MealsPerDay    int           `json:"meals_per_day"`
	Days           []DayDTO      `json:"days"`
	State          string        `json:"state"`
	Version        int64         `json:"version"`
	Settings       plan.Settings `json:"settings"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	LastMutatedAt  time.Time     `json:"last_mutated_at"`
}

// DayDTO is one day of a plan
type DayDTO struct {
	Number int       `json:"number"`
	Meals  []MealDTO `json:"meals"`
}

// MealDTO is one meal slot, empty when Assignment is nil
type MealDTO struct {
	Type       string               `json:"type"`
	Assignment *plan.MealAssignment `json:"assignment,omitempty"`
}

// ConversationDTO is the outward representation of a conversation
type ConversationDTO struct {
	ID          uuid.UUID                    `json:"id"`
	Title       string                       `json:"title"`
	Turns       []TurnDTO                    `json:"turns"`
	Preferences conversation.Preferences     `json:"preferences"`
	PlanHistory []uuid.UUID                  `json:"plan_history"`
	Analysis    conversation.AnalysisContext `json:"analysis"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// ConversationSummaryDTO is a list-view projection of a conversation
type ConversationSummaryDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TurnDTO is one conversation turn
type TurnDTO struct {
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	ProducedPlan bool      `json:"produced_plan,omitempty"`
}

// GroceryListDTO is the outward representation of a shopping list
type GroceryListDTO struct {
	PlanID      uuid.UUID      `json:"plan_id"`
	Items       []grocery.Item `json:"items"`
	Stale       bool           `json:"stale"`
	FromCache   bool           `json:"from_cache"`
	GeneratedAt time.Time      `json:"generated_at"`
}
