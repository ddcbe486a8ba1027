// Package recipes provides an HTTP client for the recipe catalog.
package recipes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alchemorsel/planner/internal/infrastructure/config"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client resolves recipe ids against a remote recipe catalog
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new recipe catalog client
func NewClient(cfg config.RecipeConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("recipe-client"),
	}
}

var _ outbound.RecipeService = (*Client)(nil)

type recipeResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Collection  string   `json:"collection"`
}

// Get fetches one recipe by id. A catalog 404 surfaces as
// outbound.ErrRecipeNotFound.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*outbound.Recipe, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/recipes/"+id.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get recipe %s: %w", id, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode == http.StatusNotFound {
		return nil, outbound.ErrRecipeNotFound
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recipe catalog error %d: %s", httpResp.StatusCode, string(body))
	}

	var resp recipeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	recipeID, err := uuid.Parse(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("catalog returned malformed recipe id %q", resp.ID)
	}
	return &outbound.Recipe{
		ID:          recipeID,
		Name:        resp.Name,
		Description: resp.Description,
		Ingredients: resp.Ingredients,
		Collection:  resp.Collection,
	}, nil
}
