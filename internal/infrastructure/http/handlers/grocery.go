package handlers

import (
	"net/http"

	"github.com/alchemorsel/planner/internal/ports/inbound"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GroceryHandler serves the shopping list endpoints
type GroceryHandler struct {
	grocery inbound.GroceryService
	logger  *zap.Logger
}

// NewGroceryHandler creates a new grocery handler
func NewGroceryHandler(grocery inbound.GroceryService, logger *zap.Logger) *GroceryHandler {
	return &GroceryHandler{grocery: grocery, logger: logger}
}

// RegisterRoutes registers grocery routes
func (h *GroceryHandler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.GET("/:id/grocery-list", h.GetGroceryList)
		plans.DELETE("/:id/grocery-list", h.InvalidateGroceryList)
	}
}

// GetGroceryList returns the shopping list for a plan, regenerating it
// when the plan changed since the list was synthesized or when the
// caller asks with ?refresh=true
func (h *GroceryHandler) GetGroceryList(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	refresh := c.Query("refresh") == "true"

	list, err := h.grocery.GetGroceryList(c.Request.Context(), planID, userID, refresh)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// InvalidateGroceryList drops the stored and cached list for a plan
func (h *GroceryHandler) InvalidateGroceryList(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	if err := h.grocery.InvalidateForPlan(c.Request.Context(), planID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
