// Package mock provides an offline LLM adapter. It reads the candidate
// ids and the requested plan shape straight out of the prompt and emits
// a valid response without any network call, which makes it usable both
// for development mode and for deterministic tests.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/alchemorsel/planner/internal/ports/outbound"
)

var (
	candidatePattern = regexp.MustCompile(`(?m)^- id=([0-9a-f-]{36}) name="([^"]*)"`)
	shapePattern     = regexp.MustCompile(`Plan length: (\d+) days, (\d+) meals per day`)
)

var mealLabels = []string{"breakfast", "lunch", "dinner", "snack", "brunch", "supper"}

// Client satisfies the LLM port without an external model
type Client struct{}

// NewClient creates the offline completion client
func NewClient() *Client {
	return &Client{}
}

var _ outbound.LLMService = (*Client)(nil)

// Complete builds a plan response by cycling through the prompt's
// candidate list in order
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	shape := shapePattern.FindStringSubmatch(prompt)
	if shape == nil {
		return "", fmt.Errorf("prompt carries no plan shape")
	}
	days, _ := strconv.Atoi(shape[1])
	mealsPerDay, _ := strconv.Atoi(shape[2])
	if mealsPerDay > len(mealLabels) {
		mealsPerDay = len(mealLabels)
	}

	candidates := candidatePattern.FindAllStringSubmatch(prompt, -1)
	if len(candidates) == 0 {
		return "", fmt.Errorf("prompt carries no candidates")
	}

	type meal struct {
		MealType string `json:"meal_type"`
		RecipeID string `json:"recipe_id"`
	}
	type day struct {
		Day   int    `json:"day"`
		Meals []meal `json:"meals"`
	}

	next := 0
	response := struct {
		Name        string `json:"name"`
		Explanation string `json:"explanation"`
		Days        []day  `json:"days"`
	}{
		Name:        fmt.Sprintf("%d-Day Meal Plan", days),
		Explanation: "A rotation through the closest matching recipes.",
	}
	for d := 1; d <= days; d++ {
		entry := day{Day: d}
		for m := 0; m < mealsPerDay; m++ {
			entry.Meals = append(entry.Meals, meal{
				MealType: mealLabels[m],
				RecipeID: candidates[next%len(candidates)][1],
			})
			next++
		}
		response.Days = append(response.Days, entry)
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}
