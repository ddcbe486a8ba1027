// Mapping between domain aggregates and GORM models
package gorm

import (
	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/google/uuid"
)

// PlanToModel converts a domain meal plan to a GORM model
func PlanToModel(p *plan.MealPlan) *MealPlanModel {
	return &MealPlanModel{
		ID:               p.ID(),
		Version:          p.Version(),
		OwnerID:          p.OwnerID(),
		ConversationID:   p.ConversationID(),
		Name:             p.Name(),
		Explanation:      p.Explanation(),
		MealsPerDay:      p.MealsPerDay(),
		Days:             DaysJSON(p.Days()),
		State:            string(p.State()),
		InstructionsSeen: p.Settings().InstructionsSeen,
		CreatedAt:        p.CreatedAt(),
		UpdatedAt:        p.UpdatedAt(),
		LastMutatedAt:    p.LastMutatedAt(),
	}
}

// ModelToPlan converts a GORM model to a domain meal plan
func ModelToPlan(m *MealPlanModel) *plan.MealPlan {
	return plan.Rehydrate(
		m.ID,
		m.OwnerID,
		m.ConversationID,
		m.Version,
		m.Name,
		m.Explanation,
		m.MealsPerDay,
		[]plan.DaySlot(m.Days),
		plan.PlanState(m.State),
		plan.Settings{InstructionsSeen: m.InstructionsSeen},
		m.CreatedAt,
		m.UpdatedAt,
		m.LastMutatedAt,
	)
}

// ConversationToModel converts a domain conversation to a GORM model
func ConversationToModel(c *conversation.ConversationContext) *ConversationModel {
	return &ConversationModel{
		ID:          c.ID(),
		OwnerID:     c.OwnerID(),
		Title:       c.Title(),
		Turns:       TurnsJSON(c.Turns()),
		PlanHistory: UUIDSlice(c.PlanHistory()),
		Analysis:    AnalysisJSON(c.Analysis()),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
	}
}

// ModelToConversation converts a GORM model to a domain conversation
func ModelToConversation(m *ConversationModel) *conversation.ConversationContext {
	return conversation.Rehydrate(
		m.ID,
		m.OwnerID,
		m.Title,
		[]conversation.Turn(m.Turns),
		[]uuid.UUID(m.PlanHistory),
		conversation.AnalysisContext(m.Analysis),
		m.CreatedAt,
		m.UpdatedAt,
	)
}

// ListToModel converts a domain grocery list to a GORM model
func ListToModel(l *grocery.List) *GroceryListModel {
	return &GroceryListModel{
		ID:          l.ID(),
		PlanID:      l.PlanID(),
		Items:       ItemsJSON(l.Items()),
		PlanStamp:   l.PlanStamp(),
		GeneratedAt: l.GeneratedAt(),
	}
}

// ModelToList converts a GORM model to a domain grocery list
func ModelToList(m *GroceryListModel) *grocery.List {
	return grocery.RehydrateList(m.ID, m.PlanID, []grocery.Item(m.Items), m.PlanStamp, m.GeneratedAt)
}
