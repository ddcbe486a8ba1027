package plan

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// PlanTestSuite provides a test suite for the MealPlan entity
type PlanTestSuite struct {
	suite.Suite
}

// buildDays creates a fully assigned n-day grid with the given meal types
func buildDays(n int, types ...MealType) []DaySlot {
	if len(types) == 0 {
		types = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}
	}
	days := make([]DaySlot, n)
	for i := 0; i < n; i++ {
		meals := make([]MealSlot, len(types))
		for j, t := range types {
			meals[j] = MealSlot{
				Type: t,
				Assignment: &MealAssignment{
					RecipeID:          uuid.New(),
					Name:              string(t) + " recipe",
					IngredientPreview: []string{"olive oil", "garlic"},
					Collection:        "plant-based",
					SimilarityScore:   0.8,
				},
			}
		}
		days[i] = DaySlot{Number: i + 1, Meals: meals}
	}
	return days
}

func newTestPlan(t *testing.T, n int) *MealPlan {
	t.Helper()
	p, err := NewMealPlan(uuid.New(), uuid.New(), "Weekly Plan", 3, buildDays(n), "balanced week")
	require.NoError(t, err)
	p.Events()
	return p
}

func (suite *PlanTestSuite) TestPlanCreation() {
	suite.Run("ValidPlan_ShouldCreateSuccessfully", func() {
		ownerID := uuid.New()
		conversationID := uuid.New()

		p, err := NewMealPlan(ownerID, conversationID, "Vegetarian Week", 3, buildDays(5), "five veggie days")

		require.NoError(suite.T(), err)
		require.NotNil(suite.T(), p)
		assert.NotEqual(suite.T(), uuid.Nil, p.ID())
		assert.Equal(suite.T(), ownerID, p.OwnerID())
		assert.Equal(suite.T(), conversationID, p.ConversationID())
		assert.Equal(suite.T(), 5, p.DayCount())
		assert.Equal(suite.T(), PlanStateStable, p.State())
		assert.Equal(suite.T(), int64(1), p.Version())

		events := p.Events()
		require.Len(suite.T(), events, 1)
		created, ok := events[0].(PlanCreatedEvent)
		assert.True(suite.T(), ok, "Should emit PlanCreatedEvent")
		assert.Equal(suite.T(), p.ID(), created.PlanID)
		assert.Equal(suite.T(), 5, created.Days)
	})

	suite.Run("NameTooShort_ShouldReturnError", func() {
		p, err := NewMealPlan(uuid.New(), uuid.New(), "AB", 3, buildDays(3), "")

		assert.Nil(suite.T(), p)
		assert.Equal(suite.T(), ErrNameTooShort, err)
	})

	suite.Run("NoDays_ShouldReturnError", func() {
		p, err := NewMealPlan(uuid.New(), uuid.New(), "Empty Plan", 3, nil, "")

		assert.Nil(suite.T(), p)
		assert.Equal(suite.T(), ErrInvalidDayCount, err)
	})

	suite.Run("ZeroMealsPerDay_ShouldReturnError", func() {
		p, err := NewMealPlan(uuid.New(), uuid.New(), "Weekly Plan", 0, buildDays(3), "")

		assert.Nil(suite.T(), p)
		assert.Equal(suite.T(), ErrInvalidMealsPerDay, err)
	})

	suite.Run("GappedDayNumbers_ShouldReturnError", func() {
		days := buildDays(3)
		days[2].Number = 5

		p, err := NewMealPlan(uuid.New(), uuid.New(), "Broken Plan", 3, days, "")

		assert.Nil(suite.T(), p)
		assert.Equal(suite.T(), ErrDayNumbersNotContiguous, err)
	})

	suite.Run("DuplicateMealType_ShouldReturnError", func() {
		days := buildDays(2)
		days[0].Meals[1].Type = MealTypeBreakfast

		p, err := NewMealPlan(uuid.New(), uuid.New(), "Broken Plan", 3, days, "")

		assert.Nil(suite.T(), p)
		assert.Equal(suite.T(), ErrDuplicateMealType, err)
	})

	suite.Run("UnsortedDays_ShouldOrderByNumber", func() {
		days := buildDays(3)
		days[0], days[2] = days[2], days[0]

		p, err := NewMealPlan(uuid.New(), uuid.New(), "Weekly Plan", 3, days, "")

		require.NoError(suite.T(), err)
		for i, d := range p.Days() {
			assert.Equal(suite.T(), i+1, d.Number)
		}
	})
}

func (suite *PlanTestSuite) TestMutationState() {
	suite.Run("BeginMutation_StablePlan_ShouldTransition", func() {
		p := newTestPlan(suite.T(), 3)

		require.NoError(suite.T(), p.BeginMutation())
		assert.Equal(suite.T(), PlanStateMutating, p.State())

		p.EndMutation()
		assert.Equal(suite.T(), PlanStateStable, p.State())
	})

	suite.Run("BeginMutation_MutatingPlan_ShouldConflict", func() {
		p := newTestPlan(suite.T(), 3)
		require.NoError(suite.T(), p.BeginMutation())

		err := p.BeginMutation()

		assert.Equal(suite.T(), ErrPlanMutating, err)
	})
}

func (suite *PlanTestSuite) TestFork() {
	suite.Run("Fork_ShouldShareConversationWithFreshIdentity", func() {
		p := newTestPlan(suite.T(), 3)

		fork, err := p.Fork("Revised Plan", buildDays(4), "more days")

		require.NoError(suite.T(), err)
		assert.NotEqual(suite.T(), p.ID(), fork.ID())
		assert.Equal(suite.T(), p.ConversationID(), fork.ConversationID())
		assert.Equal(suite.T(), p.OwnerID(), fork.OwnerID())
		assert.Equal(suite.T(), 4, fork.DayCount())

		events := fork.Events()
		require.Len(suite.T(), events, 1)
		forked, ok := events[0].(PlanForkedEvent)
		assert.True(suite.T(), ok, "Should emit PlanForkedEvent")
		assert.Equal(suite.T(), p.ID(), forked.SourcePlanID)
	})
}

func (suite *PlanTestSuite) TestDaysSnapshotIsolation() {
	suite.Run("MutatingSnapshot_ShouldNotAffectPlan", func() {
		p := newTestPlan(suite.T(), 2)

		snapshot := p.Days()
		snapshot[0].Meals[0].Assignment = nil

		current, err := p.Assignment(1, MealTypeBreakfast)
		require.NoError(suite.T(), err)
		assert.NotNil(suite.T(), current)
	})
}

func TestPlanTestSuite(t *testing.T) {
	suite.Run(t, new(PlanTestSuite))
}
