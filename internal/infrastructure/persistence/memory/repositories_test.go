package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brokenGridPlan() *plan.MealPlan {
	now := time.Now()
	days := []plan.DaySlot{
		{Number: 1, Meals: []plan.MealSlot{{Type: plan.MealTypeDinner}}},
		{Number: 3, Meals: []plan.MealSlot{{Type: plan.MealTypeDinner}}},
	}
	return plan.Rehydrate(uuid.New(), uuid.New(), uuid.New(), 1,
		"Broken Plan", "", 1, days, plan.PlanStateStable, plan.Settings{}, now, now, now)
}

func TestPlanWriteRejectsBrokenDayGrid(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository()
	broken := brokenGridPlan()

	assert.ErrorIs(t, repo.Create(ctx, broken), plan.ErrDayNumbersNotContiguous)
	assert.ErrorIs(t, repo.Update(ctx, broken), plan.ErrDayNumbersNotContiguous)
	assert.ErrorIs(t, repo.UpdateWithVersion(ctx, broken, 1), plan.ErrDayNumbersNotContiguous)

	_, err := repo.FindByID(ctx, broken.ID())
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestPlanUpdateWithVersionRejectsStaleAggregate(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository()

	days := []plan.DaySlot{{Number: 1, Meals: []plan.MealSlot{{Type: plan.MealTypeDinner}}}}
	p, err := plan.NewMealPlan(uuid.New(), uuid.New(), "1-Day Plan", 1, days, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	stale := plan.Rehydrate(p.ID(), p.OwnerID(), p.ConversationID(), p.Version(),
		p.Name(), p.Explanation(), p.MealsPerDay(), days, plan.PlanStateStable,
		plan.Settings{}, p.CreatedAt(), p.UpdatedAt(), p.LastMutatedAt())
	assert.ErrorIs(t, repo.UpdateWithVersion(ctx, stale, p.Version()+3), plan.ErrPlanMutating)
}
