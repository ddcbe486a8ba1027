package planning

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedLLM replays canned responses and records the prompts it saw
type scriptedLLM struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", fmt.Errorf("no scripted response for call %d", i)
}

func candidatePool(n int) []outbound.VectorHit {
	hits := make([]outbound.VectorHit, n)
	for i := range hits {
		hits[i] = outbound.VectorHit{
			RecipeID:          uuid.New(),
			Name:              fmt.Sprintf("dish %d", i),
			IngredientPreview: []string{"salt"},
			Collection:        "recipes_general",
			Score:             0.9 - float64(i)*0.01,
		}
	}
	return hits
}

func validResponse(candidates []outbound.VectorHit, days, mealsPerDay int) string {
	var b strings.Builder
	b.WriteString(`{"name": "Test Plan", "explanation": "ok", "days": [`)
	next := 0
	labels := []string{"breakfast", "lunch", "dinner", "snack"}
	for d := 1; d <= days; d++ {
		if d > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"day": %d, "meals": [`, d)
		for m := 0; m < mealsPerDay; m++ {
			if m > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"meal_type": %q, "recipe_id": %q}`,
				labels[m], candidates[next%len(candidates)].RecipeID)
			next++
		}
		b.WriteString("]}")
	}
	b.WriteString("]}")
	return b.String()
}

func promptInput(candidates []outbound.VectorHit, days, mealsPerDay int) PromptInput {
	return PromptInput{
		Request:     "a week of dinners",
		Days:        days,
		MealsPerDay: mealsPerDay,
		Candidates:  candidates,
	}
}

func TestOrchestratorGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid response on first attempt", func(t *testing.T) {
		pool := candidatePool(6)
		llm := &scriptedLLM{responses: []string{validResponse(pool, 3, 2)}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		draft, err := o.Generate(ctx, promptInput(pool, 3, 2))
		require.NoError(t, err)

		assert.Equal(t, "Test Plan", draft.Name)
		assert.Len(t, draft.Days, 3)
		assert.False(t, draft.Retried)
		assert.Equal(t, 1, llm.calls)
	})

	t.Run("markdown fences are tolerated", func(t *testing.T) {
		pool := candidatePool(4)
		fenced := "```json\n" + validResponse(pool, 2, 2) + "\n```"
		llm := &scriptedLLM{responses: []string{fenced}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		draft, err := o.Generate(ctx, promptInput(pool, 2, 2))
		require.NoError(t, err)
		assert.Len(t, draft.Days, 2)
	})

	t.Run("malformed first attempt triggers a strict retry", func(t *testing.T) {
		pool := candidatePool(4)
		llm := &scriptedLLM{responses: []string{"sure! here is your plan:", validResponse(pool, 2, 2)}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		draft, err := o.Generate(ctx, promptInput(pool, 2, 2))
		require.NoError(t, err)

		assert.True(t, draft.Retried)
		require.Len(t, llm.prompts, 2)
		assert.NotContains(t, llm.prompts[0], "IMPORTANT")
		assert.Contains(t, llm.prompts[1], "IMPORTANT")
	})

	t.Run("two malformed attempts are terminal", func(t *testing.T) {
		pool := candidatePool(4)
		llm := &scriptedLLM{responses: []string{"nope", "still nope"}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		_, err := o.Generate(ctx, promptInput(pool, 2, 2))

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeGenerationMalformed))
		assert.Equal(t, 2, llm.calls)
	})

	t.Run("recipe outside the pool is rejected", func(t *testing.T) {
		pool := candidatePool(4)
		stranger := candidatePool(1)
		bad := validResponse(stranger, 2, 1)
		llm := &scriptedLLM{responses: []string{bad, bad}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		_, err := o.Generate(ctx, promptInput(pool, 2, 1))

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeGenerationMalformed))
	})

	t.Run("duplicate meal type within a day is rejected", func(t *testing.T) {
		pool := candidatePool(2)
		bad := fmt.Sprintf(
			`{"name":"x","days":[{"day":1,"meals":[{"meal_type":"lunch","recipe_id":%q},{"meal_type":"Lunch","recipe_id":%q}]}]}`,
			pool[0].RecipeID, pool[1].RecipeID)
		llm := &scriptedLLM{responses: []string{bad, bad}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		_, err := o.Generate(ctx, promptInput(pool, 1, 2))

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeGenerationMalformed))
	})

	t.Run("wrong day count is rejected", func(t *testing.T) {
		pool := candidatePool(4)
		short := validResponse(pool, 2, 1)
		llm := &scriptedLLM{responses: []string{short, short}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		_, err := o.Generate(ctx, promptInput(pool, 5, 1))

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeGenerationMalformed))
	})

	t.Run("timeouts on both attempts surface as timeout", func(t *testing.T) {
		pool := candidatePool(2)
		llm := &scriptedLLM{errs: []error{context.DeadlineExceeded, context.DeadlineExceeded}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		_, err := o.Generate(ctx, promptInput(pool, 2, 1))

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeGenerationTimeout))
	})

	t.Run("canceled parent context is a timeout, not a retry", func(t *testing.T) {
		pool := candidatePool(2)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		llm := &scriptedLLM{errs: []error{context.Canceled}}
		o := NewOrchestrator(llm, time.Second, zap.NewNop())

		_, err := o.Generate(canceled, promptInput(pool, 2, 1))

		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.CodeGenerationTimeout))
		assert.Equal(t, 1, llm.calls)
	})
}

func TestBuildPromptDeterminism(t *testing.T) {
	pool := candidatePool(10)
	in := promptInput(pool, 5, 3)

	first := BuildPrompt(in)

	// Shuffle the candidate order; the rendered prompt must not change.
	shuffled := make([]outbound.VectorHit, len(pool))
	copy(shuffled, pool)
	for i := range shuffled {
		j := (i * 7) % len(shuffled)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	in.Candidates = shuffled

	assert.Equal(t, first, BuildPrompt(in))
}

func TestBuildPromptSections(t *testing.T) {
	pool := candidatePool(2)
	in := promptInput(pool, 4, 2)
	in.Preferences.DietaryRestrictions = []string{"vegan"}
	in.Preferences.Allergies = []string{"peanut"}

	prompt := BuildPrompt(in)

	assert.Contains(t, prompt, "Plan length: 4 days, 2 meals per day.")
	assert.Contains(t, prompt, "Dietary restrictions: vegan")
	assert.Contains(t, prompt, "Allergies: peanut")
	assert.Contains(t, prompt, "[recipes_general]")
	assert.Contains(t, prompt, pool[0].RecipeID.String())
	// Each candidate line carries its similarity score so the model can
	// weigh relevance.
	assert.Contains(t, prompt, fmt.Sprintf("id=%s name=%q score=0.90", pool[0].RecipeID, pool[0].Name))
	assert.NotContains(t, prompt, "IMPORTANT")
}
