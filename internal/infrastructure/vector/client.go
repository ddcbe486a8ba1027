// Package vector provides an HTTP client for the recipe vector store.
package vector

import (
	"bytes"
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

// Client implements similarity search against a remote vector store
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a new vector store client
func NewClient(cfg config.VectorConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("vector-client"),
	}
}

var _ outbound.VectorSearchService = (*Client)(nil)

type searchRequest struct {
	Collection string `json:"collection"`
	Query      string `json:"query"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

type searchHit struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Score       float64  `json:"score"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type collectionsResponse struct {
	Collections []string `json:"collections"`
}

// Search runs one similarity query against a single collection. Hits
// with ids the store corrupted are dropped rather than failing the call.
func (c *Client) Search(ctx context.Context, collection, query string, limit, offset int) ([]outbound.VectorHit, error) {
	reqBody := searchRequest{
		Collection: collection,
		Query:      query,
		Limit:      limit,
		Offset:     offset,
	}

	var resp searchResponse
	if err := c.post(ctx, "/v1/search", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}

	hits := make([]outbound.VectorHit, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			c.logger.Warn("Dropping hit with malformed recipe id",
				zap.String("collection", collection),
				zap.String("id", h.ID))
			continue
		}
		hits = append(hits, outbound.VectorHit{
			RecipeID:          id,
			Name:              h.Name,
			Description:       h.Description,
			IngredientPreview: h.Ingredients,
			Collection:        collection,
			Score:             h.Score,
		})
	}
	return hits, nil
}

// Collections lists the collections the store currently serves
func (c *Client) Collections(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/collections", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vector store error %d: %s", httpResp.StatusCode, string(body))
	}

	var resp collectionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp.Collections, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vector store error %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}
