package planning

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// generatedPlan mirrors the JSON shape the model is instructed to emit
type generatedPlan struct {
	Name        string         `json:"name"`
	Explanation string         `json:"explanation"`
	Days        []generatedDay `json:"days"`
}

type generatedDay struct {
	Day   int             `json:"day"`
	Meals []generatedMeal `json:"meals"`
}

type generatedMeal struct {
	MealType string `json:"meal_type"`
	RecipeID string `json:"recipe_id"`
}

// Draft is a validated generation outcome, ready to become a plan
type Draft struct {
	Name        string
	Explanation string
	Days        []plan.DaySlot
	// Retried reports that the first attempt was unusable and the
	// strict re-prompt produced this draft.
	Retried bool
}

// Orchestrator drives one generation: prompt the model, parse and
// validate the reply, and re-prompt once in strict mode when the first
// reply is malformed or times out. A second failure is terminal.
type Orchestrator struct {
	llm         outbound.LLMService
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewOrchestrator creates a generation orchestrator
func NewOrchestrator(llm outbound.LLMService, callTimeout time.Duration, logger *zap.Logger) *Orchestrator {
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Orchestrator{
		llm:         llm,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Generate runs the prompt through the model and returns a validated
// draft. in.Strict is ignored; strict mode is applied internally on the
// retry attempt.
func (o *Orchestrator) Generate(ctx context.Context, in PromptInput) (*Draft, error) {
	candidates := indexCandidates(in.Candidates)

	in.Strict = false
	draft, firstErr := o.attempt(ctx, in, candidates)
	if firstErr == nil {
		return draft, nil
	}
	if ctx.Err() != nil {
		return nil, errors.NewGenerationTimeoutError(ctx.Err())
	}

	o.logger.Warn("generation attempt failed, retrying strict", zap.Error(firstErr))

	in.Strict = true
	draft, retryErr := o.attempt(ctx, in, candidates)
	if retryErr == nil {
		draft.Retried = true
		return draft, nil
	}
	if timeoutErr(retryErr) {
		return nil, errors.NewGenerationTimeoutError(retryErr)
	}
	return nil, errors.NewGenerationMalformedError(retryErr.Error())
}

func (o *Orchestrator) attempt(ctx context.Context, in PromptInput, candidates map[uuid.UUID]outbound.VectorHit) (*Draft, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	raw, err := o.llm.Complete(callCtx, BuildPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	var parsed generatedPlan
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	days, err := buildDays(parsed, in.Days, in.MealsPerDay, candidates)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(parsed.Name)
	if name == "" {
		name = fmt.Sprintf("%d-Day Meal Plan", in.Days)
	}
	return &Draft{
		Name:        name,
		Explanation: strings.TrimSpace(parsed.Explanation),
		Days:        days,
	}, nil
}

// buildDays converts the parsed reply into domain day slots, enforcing
// the structural rules the prompt stated: exactly the requested day
// numbers, the meal-per-day cap, no duplicate meal types within a day,
// and only candidate recipe ids.
func buildDays(parsed generatedPlan, dayCount, mealsPerDay int, candidates map[uuid.UUID]outbound.VectorHit) ([]plan.DaySlot, error) {
	if len(parsed.Days) != dayCount {
		return nil, fmt.Errorf("expected %d days, got %d", dayCount, len(parsed.Days))
	}

	seen := make(map[int]bool, dayCount)
	days := make([]plan.DaySlot, 0, dayCount)
	for _, gd := range parsed.Days {
		if gd.Day < 1 || gd.Day > dayCount {
			return nil, fmt.Errorf("day number %d out of range 1..%d", gd.Day, dayCount)
		}
		if seen[gd.Day] {
			return nil, fmt.Errorf("day number %d repeated", gd.Day)
		}
		seen[gd.Day] = true

		if len(gd.Meals) > mealsPerDay {
			return nil, fmt.Errorf("day %d has %d meals, cap is %d", gd.Day, len(gd.Meals), mealsPerDay)
		}

		usedTypes := make(map[plan.MealType]bool, len(gd.Meals))
		meals := make([]plan.MealSlot, 0, len(gd.Meals))
		for _, gm := range gd.Meals {
			mealType := plan.MealType(gm.MealType).Normalize()
			if mealType == "" {
				return nil, fmt.Errorf("day %d has a meal without a type", gd.Day)
			}
			if usedTypes[mealType] {
				return nil, fmt.Errorf("day %d repeats meal type %q", gd.Day, mealType)
			}
			usedTypes[mealType] = true

			recipeID, err := uuid.Parse(gm.RecipeID)
			if err != nil {
				return nil, fmt.Errorf("recipe id %q is not a valid id", gm.RecipeID)
			}
			candidate, ok := candidates[recipeID]
			if !ok {
				return nil, fmt.Errorf("recipe id %q is not in the candidate pool", gm.RecipeID)
			}
			meals = append(meals, plan.MealSlot{
				Type: mealType,
				Assignment: &plan.MealAssignment{
					RecipeID:          candidate.RecipeID,
					Name:              candidate.Name,
					Description:       candidate.Description,
					IngredientPreview: candidate.IngredientPreview,
					Collection:        candidate.Collection,
					SimilarityScore:   candidate.Score,
				},
			})
		}
		days = append(days, plan.DaySlot{Number: gd.Day, Meals: meals})
	}
	return days, nil
}

func indexCandidates(hits []outbound.VectorHit) map[uuid.UUID]outbound.VectorHit {
	index := make(map[uuid.UUID]outbound.VectorHit, len(hits))
	for _, h := range hits {
		index[h.RecipeID] = h
	}
	return index
}

// extractJSON tolerates markdown fences and prose around the object by
// slicing from the first '{' to the last '}'
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

func timeoutErr(err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded)
}
