// Package planning implements the conversational meal-plan use cases:
// prompt construction, generation orchestration, structural mutations
// and plan forking.
package planning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/ports/outbound"
)

// PromptInput carries everything the constructor folds into one prompt
type PromptInput struct {
	Request     string
	Days        int
	MealsPerDay int
	Preferences conversation.Preferences
	Candidates  []outbound.VectorHit
	// Strict adds a reminder block after a malformed first attempt
	Strict bool
}

// BuildPrompt renders a generation prompt. The output is a pure function
// of its input: candidates are re-sorted internally and every section is
// emitted in a fixed order, so identical inputs produce byte-identical
// prompts.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are a meal planning assistant. Build a meal plan using ONLY the candidate recipes listed below.\n\n")

	fmt.Fprintf(&b, "Request: %s\n", strings.TrimSpace(in.Request))
	fmt.Fprintf(&b, "Plan length: %d days, %d meals per day.\n", in.Days, in.MealsPerDay)

	writePreferences(&b, in.Preferences)
	writeCandidates(&b, in.Candidates)
	writeOutputFormat(&b, in.Days, in.MealsPerDay)

	if in.Strict {
		b.WriteString("\nIMPORTANT: your previous answer was not valid. Respond with the JSON object only. No prose, no markdown fences, no recipe ids outside the candidate list.\n")
	}
	return b.String()
}

func writePreferences(b *strings.Builder, p conversation.Preferences) {
	if p.IsEmpty() {
		return
	}
	b.WriteString("\nUser profile:\n")
	writeProfileLine(b, "Dietary restrictions", p.DietaryRestrictions)
	writeProfileLine(b, "Allergies", p.Allergies)
	writeProfileLine(b, "Disliked ingredients", p.DislikedIngredients)
	writeProfileLine(b, "Preferred cuisines", p.PreferredCuisines)
}

func writeProfileLine(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, strings.Join(values, ", "))
}

// writeCandidates lists the pool grouped by collection. Ordering is
// collection name, then score descending, then recipe id, independent of
// the order candidates arrived in.
func writeCandidates(b *strings.Builder, candidates []outbound.VectorHit) {
	sorted := make([]outbound.VectorHit, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Collection != sorted[j].Collection {
			return sorted[i].Collection < sorted[j].Collection
		}
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].RecipeID.String() < sorted[j].RecipeID.String()
	})

	b.WriteString("\nCandidate recipes:\n")
	currentCollection := ""
	for _, c := range sorted {
		if c.Collection != currentCollection {
			currentCollection = c.Collection
			fmt.Fprintf(b, "\n[%s]\n", currentCollection)
		}
		fmt.Fprintf(b, "- id=%s name=%q score=%.2f", c.RecipeID, c.Name, c.Score)
		if c.Description != "" {
			fmt.Fprintf(b, " description=%q", c.Description)
		}
		if len(c.IngredientPreview) > 0 {
			fmt.Fprintf(b, " ingredients=%s", strings.Join(c.IngredientPreview, ","))
		}
		b.WriteString("\n")
	}
}

func writeOutputFormat(b *strings.Builder, days, mealsPerDay int) {
	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"name": "plan name", "explanation": "one short paragraph", "days": [{"day": 1, "meals": [{"meal_type": "breakfast", "recipe_id": "<candidate id>"}]}]}`)
	b.WriteString("\n")
	fmt.Fprintf(b, "Rules: exactly %d days numbered 1..%d, at most %d meals per day, no meal_type repeated within a day, every recipe_id taken from the candidate list.\n", days, days, mealsPerDay)
}
