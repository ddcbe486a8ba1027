// Package handlers provides the JSON API handlers for meal planning
package handlers

import (
	"net/http"
	"strconv"

	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/inbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanningHandler serves the plan generation and mutation endpoints
type PlanningHandler struct {
	planning inbound.PlanningService
	logger   *zap.Logger
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(planning inbound.PlanningService, logger *zap.Logger) *PlanningHandler {
	return &PlanningHandler{planning: planning, logger: logger}
}

// RegisterRoutes registers planning routes
func (h *PlanningHandler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.POST("/generate", h.GeneratePlan)
		plans.GET("/:id", h.GetPlan)
		plans.POST("/:id/edit", h.EditPlan)
		plans.POST("/:id/mutations/move-meal", h.MoveMeal)
		plans.POST("/:id/mutations/swap-days", h.SwapDays)
		plans.POST("/:id/mutations/reorder-days", h.ReorderDays)
		plans.POST("/:id/mutations/replace-recipe", h.ReplaceRecipe)
		plans.POST("/:id/mutations/apply", h.ApplyMutation)
		plans.POST("/:id/instructions-seen", h.MarkInstructionsSeen)
	}

	conversations := r.Group("/conversations")
	{
		conversations.GET("", h.ListConversations)
		conversations.GET("/:id", h.GetConversation)
		conversations.DELETE("/:id", h.DeleteConversation)
	}
}

type generatePlanRequest struct {
	ConversationID string `json:"conversation_id"`
	Request        string `json:"request" binding:"required"`
	Days           int    `json:"days"`
	MealsPerDay    int    `json:"meals_per_day"`
}

// GeneratePlan produces a plan from a free-text request, starting a new
// conversation when no conversation id is supplied
func (h *PlanningHandler) GeneratePlan(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req generatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}

	conversationID := uuid.Nil
	if req.ConversationID != "" {
		parsed, err := uuid.Parse(req.ConversationID)
		if err != nil {
			respondError(c, h.logger, errors.NewBadRequestError("invalid conversation id"))
			return
		}
		conversationID = parsed
	}

	planDTO, err := h.planning.GeneratePlan(c.Request.Context(), inbound.GeneratePlanCommand{
		UserID:         userID,
		ConversationID: conversationID,
		Request:        req.Request,
		Days:           req.Days,
		MealsPerDay:    req.MealsPerDay,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, planDTO)
}

// GetPlan returns one plan by id
func (h *PlanningHandler) GetPlan(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	planDTO, err := h.planning.GetPlan(c.Request.Context(), planID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, planDTO)
}

type editPlanRequest struct {
	Request string `json:"request" binding:"required"`
}

// EditPlan regenerates a plan from a free-text edit, returning a fork of
// the original
func (h *PlanningHandler) EditPlan(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	var req editPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}

	planDTO, err := h.planning.EditPlanWithText(c.Request.Context(), inbound.EditPlanCommand{
		UserID:  userID,
		PlanID:  planID,
		Request: req.Request,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, planDTO)
}

type moveMealRequest struct {
	SourceDay      int    `json:"source_day" binding:"required"`
	SourceMealType string `json:"source_meal_type" binding:"required"`
	DestDay        int    `json:"dest_day" binding:"required"`
	DestMealType   string `json:"dest_meal_type" binding:"required"`
}

// MoveMeal relocates one meal assignment between slots
func (h *PlanningHandler) MoveMeal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	var req moveMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.planning.MoveMeal(c.Request.Context(), inbound.MoveMealCommand{
		UserID:         userID,
		PlanID:         planID,
		SourceDay:      req.SourceDay,
		SourceMealType: req.SourceMealType,
		DestDay:        req.DestDay,
		DestMealType:   req.DestMealType,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type swapDaysRequest struct {
	DayA int `json:"day_a" binding:"required"`
	DayB int `json:"day_b" binding:"required"`
}

// SwapDays exchanges the contents of two days
func (h *PlanningHandler) SwapDays(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	var req swapDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.planning.SwapDays(c.Request.Context(), inbound.SwapDaysCommand{
		UserID: userID,
		PlanID: planID,
		DayA:   req.DayA,
		DayB:   req.DayB,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reorderDaysRequest struct {
	Order []int `json:"order" binding:"required"`
}

// ReorderDays relabels days according to a permutation
func (h *PlanningHandler) ReorderDays(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	var req reorderDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.planning.ReorderDays(c.Request.Context(), inbound.ReorderDaysCommand{
		UserID: userID,
		PlanID: planID,
		Order:  req.Order,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type replaceRecipeRequest struct {
	Day         int    `json:"day" binding:"required"`
	MealType    string `json:"meal_type" binding:"required"`
	OldRecipeID string `json:"old_recipe_id" binding:"required"`
	NewRecipeID string `json:"new_recipe_id" binding:"required"`
}

// ReplaceRecipe swaps one assigned recipe for another, resolved by id
// against the recipe catalog
func (h *PlanningHandler) ReplaceRecipe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	var req replaceRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}
	oldRecipeID, err := uuid.Parse(req.OldRecipeID)
	if err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid recipe id"))
		return
	}
	newRecipeID, err := uuid.Parse(req.NewRecipeID)
	if err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid recipe id"))
		return
	}

	result, err := h.planning.ReplaceRecipe(c.Request.Context(), inbound.ReplaceRecipeCommand{
		UserID:      userID,
		PlanID:      planID,
		Day:         req.Day,
		MealType:    req.MealType,
		OldRecipeID: oldRecipeID,
		NewRecipeID: newRecipeID,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ApplyMutation replays a previously returned mutation, typically an
// inverse for undo
func (h *PlanningHandler) ApplyMutation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	var m plan.Mutation
	if err := c.ShouldBindJSON(&m); err != nil {
		respondError(c, h.logger, errors.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.planning.ApplyMutation(c.Request.Context(), planID, userID, m)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MarkInstructionsSeen records that the owner has dismissed the plan's
// onboarding hints
func (h *PlanningHandler) MarkInstructionsSeen(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	planID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	if err := h.planning.MarkInstructionsSeen(c.Request.Context(), planID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListConversations returns a page of the caller's conversations
func (h *PlanningHandler) ListConversations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	summaries, total, err := h.planning.ListConversations(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conversations": summaries,
		"total":         total,
		"offset":        offset,
		"limit":         limit,
	})
}

// GetConversation returns one conversation with its full turn history
func (h *PlanningHandler) GetConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}
	conversationDTO, err := h.planning.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, conversationDTO)
}

// DeleteConversation removes a conversation and every plan generated in it
func (h *PlanningHandler) DeleteConversation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	conversationID, ok := pathUUID(c, h.logger, "id")
	if !ok {
		return
	}

	if err := h.planning.DeleteConversation(c.Request.Context(), conversationID, userID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
