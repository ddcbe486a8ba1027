package planning

import (
	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/inbound"
)

func toPlanDTO(p *plan.MealPlan) *inbound.PlanDTO {
	days := p.Days()
	dayDTOs := make([]inbound.DayDTO, len(days))
	for i, d := range days {
		meals := make([]inbound.MealDTO, len(d.Meals))
		for j, m := range d.Meals {
			meals[j] = inbound.MealDTO{
				Type:       string(m.Type),
				Assignment: m.Assignment,
			}
		}
		dayDTOs[i] = inbound.DayDTO{Number: d.Number, Meals: meals}
	}

	return &inbound.PlanDTO{
		ID:             p.ID(),
		ConversationID: p.ConversationID(),
		OwnerID:        p.OwnerID(),
		Name:           p.Name(),
		Explanation:    p.Explanation(),
		MealsPerDay:    p.MealsPerDay(),
		Days:           dayDTOs,
		State:          string(p.State()),
		Version:        p.Version(),
		Settings:       p.Settings(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
		LastMutatedAt:  p.LastMutatedAt(),
	}
}

func toConversationDTO(c *conversation.ConversationContext) *inbound.ConversationDTO {
	turns := c.Turns()
	turnDTOs := make([]inbound.TurnDTO, len(turns))
	for i, t := range turns {
		turnDTOs[i] = inbound.TurnDTO{
			Role:         string(t.Role),
			Content:      t.Content,
			Timestamp:    t.Timestamp,
			ProducedPlan: t.ProducedPlan,
		}
	}

	return &inbound.ConversationDTO{
		ID:          c.ID(),
		Title:       c.Title(),
		Turns:       turnDTOs,
		Preferences: c.Preferences(),
		PlanHistory: c.PlanHistory(),
		Analysis:    c.Analysis(),
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
	}
}

func toConversationSummaryDTO(c *conversation.ConversationContext) inbound.ConversationSummaryDTO {
	return inbound.ConversationSummaryDTO{
		ID:        c.ID(),
		Title:     c.Title(),
		TurnCount: len(c.Turns()),
		UpdatedAt: c.UpdatedAt(),
	}
}
