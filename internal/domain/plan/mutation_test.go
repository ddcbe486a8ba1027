package plan

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assignmentMap flattens the grid into (day, mealType) -> recipe id for
// comparing plan content across mutations
func assignmentMap(p *MealPlan) map[[2]string]uuid.UUID {
	m := make(map[[2]string]uuid.UUID)
	for _, d := range p.Days() {
		for _, slot := range d.Meals {
			if slot.Assignment != nil {
				m[[2]string{string(rune('0' + d.Number)), string(slot.Type)}] = slot.Assignment.RecipeID
			}
		}
	}
	return m
}

func assertContiguousDays(t *testing.T, p *MealPlan) {
	t.Helper()
	days := p.Days()
	for i, d := range days {
		require.Equal(t, i+1, d.Number, "day numbers must be a contiguous 1..N sequence")
	}
}

func TestMoveMeal(t *testing.T) {
	t.Run("move to empty slot relocates the assignment", func(t *testing.T) {
		days := buildDays(3)
		days[1].Meals[2].Assignment = nil // day 2 dinner is open
		p, err := NewMealPlan(uuid.New(), uuid.New(), "Weekly Plan", 3, days, "")
		require.NoError(t, err)
		orig := mustAssignment(t, p, 1, MealTypeLunch)

		inv, err := p.MoveMeal(1, MealTypeLunch, 2, MealTypeDinner)
		require.NoError(t, err)
		require.NotNil(t, inv)

		moved := mustAssignment(t, p, 2, MealTypeDinner)
		assert.Equal(t, orig.RecipeID, moved.RecipeID)

		src, err := p.Assignment(1, MealTypeLunch)
		require.NoError(t, err)
		assert.Nil(t, src)
		assertContiguousDays(t, p)
	})

	t.Run("empty source fails without change", func(t *testing.T) {
		days := buildDays(2)
		days[0].Meals[0].Assignment = nil
		p, err := NewMealPlan(uuid.New(), uuid.New(), "Weekly Plan", 3, days, "")
		require.NoError(t, err)
		before := assignmentMap(p)

		_, err = p.MoveMeal(1, MealTypeBreakfast, 2, MealTypeLunch)

		assert.Equal(t, ErrEmptyAssignment, err)
		assert.Equal(t, before, assignmentMap(p))
	})

	t.Run("occupied destination exchanges the two assignments", func(t *testing.T) {
		p := newTestPlan(t, 3)
		src := mustAssignment(t, p, 1, MealTypeBreakfast)
		dst := mustAssignment(t, p, 3, MealTypeDinner)

		_, err := p.MoveMeal(1, MealTypeBreakfast, 3, MealTypeDinner)
		require.NoError(t, err)

		assert.Equal(t, dst.RecipeID, mustAssignment(t, p, 1, MealTypeBreakfast).RecipeID)
		assert.Equal(t, src.RecipeID, mustAssignment(t, p, 3, MealTypeDinner).RecipeID)
	})

	t.Run("is its own inverse", func(t *testing.T) {
		p := newTestPlan(t, 4)
		before := assignmentMap(p)

		inv, err := p.MoveMeal(2, MealTypeLunch, 4, MealTypeBreakfast)
		require.NoError(t, err)

		_, err = p.Apply(*inv)
		require.NoError(t, err)

		assert.Equal(t, before, assignmentMap(p))
		assertContiguousDays(t, p)
	})

	t.Run("out of range day fails without change", func(t *testing.T) {
		p := newTestPlan(t, 2)
		before := assignmentMap(p)

		_, err := p.MoveMeal(1, MealTypeLunch, 9, MealTypeDinner)

		assert.Equal(t, ErrDayOutOfRange, err)
		assert.Equal(t, before, assignmentMap(p))
	})

	t.Run("unknown meal type fails without change", func(t *testing.T) {
		p := newTestPlan(t, 2)
		before := assignmentMap(p)

		_, err := p.MoveMeal(1, "brunch", 2, MealTypeDinner)

		assert.Equal(t, ErrMealTypeNotFound, err)
		assert.Equal(t, before, assignmentMap(p))
	})
}

func TestSwapDays(t *testing.T) {
	t.Run("exchanges content and keeps day numbers", func(t *testing.T) {
		p := newTestPlan(t, 5)
		day1 := mustAssignment(t, p, 1, MealTypeBreakfast)
		day3 := mustAssignment(t, p, 3, MealTypeBreakfast)

		_, err := p.SwapDays(1, 3)
		require.NoError(t, err)

		assert.Equal(t, day3.RecipeID, mustAssignment(t, p, 1, MealTypeBreakfast).RecipeID)
		assert.Equal(t, day1.RecipeID, mustAssignment(t, p, 3, MealTypeBreakfast).RecipeID)
		assertContiguousDays(t, p)
	})

	t.Run("applied twice restores the original plan", func(t *testing.T) {
		p := newTestPlan(t, 5)
		before := assignmentMap(p)

		_, err := p.SwapDays(1, 3)
		require.NoError(t, err)
		_, err = p.SwapDays(1, 3)
		require.NoError(t, err)

		assert.Equal(t, before, assignmentMap(p))
	})

	t.Run("inverse mutation restores the original plan", func(t *testing.T) {
		p := newTestPlan(t, 4)
		before := assignmentMap(p)

		inv, err := p.SwapDays(2, 4)
		require.NoError(t, err)
		_, err = p.Apply(*inv)
		require.NoError(t, err)

		assert.Equal(t, before, assignmentMap(p))
	})

	t.Run("out of range day fails", func(t *testing.T) {
		p := newTestPlan(t, 3)

		_, err := p.SwapDays(1, 7)

		assert.Equal(t, ErrDayOutOfRange, err)
	})
}

func TestReorderDays(t *testing.T) {
	t.Run("relabels ordinals according to the permutation", func(t *testing.T) {
		p := newTestPlan(t, 3)
		day3Breakfast := mustAssignment(t, p, 3, MealTypeBreakfast)

		// day 3 content becomes day 1
		_, err := p.ReorderDays([]int{3, 1, 2})
		require.NoError(t, err)

		assert.Equal(t, day3Breakfast.RecipeID, mustAssignment(t, p, 1, MealTypeBreakfast).RecipeID)
		assertContiguousDays(t, p)
	})

	t.Run("inverse permutation restores the day-to-content mapping", func(t *testing.T) {
		p := newTestPlan(t, 5)
		before := assignmentMap(p)

		inv, err := p.ReorderDays([]int{4, 2, 5, 1, 3})
		require.NoError(t, err)
		_, err = p.Apply(*inv)
		require.NoError(t, err)

		assert.Equal(t, before, assignmentMap(p))
		assertContiguousDays(t, p)
	})

	t.Run("rejects non-permutations", func(t *testing.T) {
		p := newTestPlan(t, 3)
		before := assignmentMap(p)

		for _, order := range [][]int{
			{1, 2},       // wrong length
			{1, 2, 2},    // duplicate
			{0, 1, 2},    // out of range
			{1, 2, 4},    // out of range
			{1, 2, 3, 4}, // wrong length
		} {
			_, err := p.ReorderDays(order)
			assert.Equal(t, ErrInvalidPermutation, err)
		}
		assert.Equal(t, before, assignmentMap(p))
	})
}

func TestReplaceRecipe(t *testing.T) {
	t.Run("replaces assignment and returns restoring inverse", func(t *testing.T) {
		p := newTestPlan(t, 3)
		old := mustAssignment(t, p, 2, MealTypeLunch)
		replacement := MealAssignment{
			RecipeID:          uuid.New(),
			Name:              "Chickpea Curry",
			IngredientPreview: []string{"chickpeas", "coconut milk"},
			Collection:        "plant-based",
		}

		inv, err := p.ReplaceRecipe(2, MealTypeLunch, old.RecipeID, replacement)
		require.NoError(t, err)

		assert.Equal(t, replacement.RecipeID, mustAssignment(t, p, 2, MealTypeLunch).RecipeID)

		_, err = p.Apply(*inv)
		require.NoError(t, err)
		assert.Equal(t, old.RecipeID, mustAssignment(t, p, 2, MealTypeLunch).RecipeID)
		assert.Equal(t, old.Name, mustAssignment(t, p, 2, MealTypeLunch).Name)
	})

	t.Run("stale old recipe id conflicts and leaves plan unchanged", func(t *testing.T) {
		p := newTestPlan(t, 3)
		before := assignmentMap(p)

		_, err := p.ReplaceRecipe(2, MealTypeLunch, uuid.New(), MealAssignment{RecipeID: uuid.New(), Name: "anything"})

		assert.Equal(t, ErrRecipeMismatch, err)
		assert.Equal(t, before, assignmentMap(p))
	})

	t.Run("version advances on every committed mutation", func(t *testing.T) {
		p := newTestPlan(t, 3)
		v := p.Version()

		_, err := p.SwapDays(1, 2)
		require.NoError(t, err)

		assert.Equal(t, v+1, p.Version())
	})
}

func mustAssignment(t *testing.T, p *MealPlan, day int, mealType MealType) *MealAssignment {
	t.Helper()
	a, err := p.Assignment(day, mealType)
	require.NoError(t, err)
	require.NotNil(t, a)
	return a
}

func BenchmarkReorderDays(b *testing.B) {
	p, _ := NewMealPlan(uuid.New(), uuid.New(), "Bench Plan", 3, buildDays(7), "")
	order := []int{7, 6, 5, 4, 3, 2, 1}
	inverse := order

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.ReorderDays(order); err != nil {
			b.Fatal(err)
		}
		if _, err := p.ReorderDays(inverse); err != nil {
			b.Fatal(err)
		}
	}
}
