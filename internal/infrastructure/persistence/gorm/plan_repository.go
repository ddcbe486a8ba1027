package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanRepository implements the plan repository interface using GORM
type PlanRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB) outbound.PlanRepository {
	return &PlanRepository{db: db}
}

// Create persists a new meal plan. The day grid invariants are
// re-checked at the write boundary; a broken aggregate never reaches
// the database.
func (r *PlanRepository) Create(ctx context.Context, p *plan.MealPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(PlanToModel(p)).Error
}

// Update saves a meal plan unconditionally
func (r *PlanRepository) Update(ctx context.Context, p *plan.MealPlan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Save(PlanToModel(p))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return plan.ErrPlanNotFound
	}
	return nil
}

// Delete removes a meal plan and its grocery list
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&GroceryListModel{}, "plan_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&MealPlanModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return plan.ErrPlanNotFound
		}
		return nil
	})
}

// FindByID loads a meal plan by id
func (r *PlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.MealPlan, error) {
	var model MealPlanModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, plan.ErrPlanNotFound
		}
		return nil, result.Error
	}
	return ModelToPlan(&model), nil
}

// FindByConversation loads every plan generated in a conversation,
// oldest first
func (r *PlanRepository) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]*plan.MealPlan, error) {
	var models []MealPlanModel
	result := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	plans := make([]*plan.MealPlan, len(models))
	for i := range models {
		plans[i] = ModelToPlan(&models[i])
	}
	return plans, nil
}

// FindByOwner loads a page of an owner's plans, newest first
func (r *PlanRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*plan.MealPlan, int, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&MealPlanModel{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []MealPlanModel
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	plans := make([]*plan.MealPlan, len(models))
	for i := range models {
		plans[i] = ModelToPlan(&models[i])
	}
	return plans, int(total), nil
}

// UpdateWithVersion saves a plan only if the stored row still carries
// the expected version. A zero-row update means another writer won.
func (r *PlanRepository) UpdateWithVersion(ctx context.Context, p *plan.MealPlan, expectedVersion int64) error {
	if err := p.Validate(); err != nil {
		return err
	}
	model := PlanToModel(p)
	result := r.db.WithContext(ctx).
		Model(&MealPlanModel{}).
		Where("id = ? AND version = ?", p.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"version":           model.Version,
			"name":              model.Name,
			"explanation":       model.Explanation,
			"meals_per_day":     model.MealsPerDay,
			"days":              model.Days,
			"state":             model.State,
			"instructions_seen": model.InstructionsSeen,
			"updated_at":        model.UpdatedAt,
			"last_mutated_at":   model.LastMutatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("meal plan %s changed concurrently, expected version %d", p.ID(), expectedVersion)
	}
	return nil
}
