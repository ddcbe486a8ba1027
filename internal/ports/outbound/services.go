package outbound

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRecipeNotFound reports that the catalog holds no recipe for the id
var ErrRecipeNotFound = errors.New("recipe not found")

// VectorHit is one scored search result from a recipe collection
type VectorHit struct {
	RecipeID          uuid.UUID
	Name              string
	Description       string
	IngredientPreview []string
	Collection        string
	Score             float64
}

// VectorSearchService defines the interface for similarity search against
// one recipe collection at a time
type VectorSearchService interface {
	Search(ctx context.Context, collection, query string, limit, offset int) ([]VectorHit, error)
	Collections(ctx context.Context) ([]string, error)
}

// LLMService defines the interface for plan generation completions
type LLMService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Recipe is the catalog projection denormalized into slot assignments
type Recipe struct {
	ID          uuid.UUID
	Name        string
	Description string
	Ingredients []string
	Collection  string
}

// RecipeService defines the interface for resolving recipe ids against
// the recipe catalog
type RecipeService interface {
	Get(ctx context.Context, id uuid.UUID) (*Recipe, error)
}
