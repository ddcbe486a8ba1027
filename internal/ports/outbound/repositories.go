// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"time"

	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/google/uuid"
)

// PlanRepository defines the interface for meal plan persistence
type PlanRepository interface {
	Create(ctx context.Context, p *plan.MealPlan) error
	Update(ctx context.Context, p *plan.MealPlan) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*plan.MealPlan, error)
	FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]*plan.MealPlan, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*plan.MealPlan, int, error)

	// Optimistic locking
	UpdateWithVersion(ctx context.Context, p *plan.MealPlan, expectedVersion int64) error
}

// ConversationRepository defines the interface for conversation persistence
type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.ConversationContext) error
	Update(ctx context.Context, c *conversation.ConversationContext) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*conversation.ConversationContext, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*conversation.ConversationContext, int, error)
}

// GroceryListRepository defines the interface for grocery list persistence
type GroceryListRepository interface {
	Save(ctx context.Context, l *grocery.List) error
	FindByPlanID(ctx context.Context, planID uuid.UUID) (*grocery.List, error)
	DeleteByPlanID(ctx context.Context, planID uuid.UUID) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
