package gorm

import (
	"context"
	"errors"

	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroceryListRepository implements the grocery list repository interface using GORM
type GroceryListRepository struct {
	db *gorm.DB
}

// NewGroceryListRepository creates a new grocery list repository
func NewGroceryListRepository(db *gorm.DB) outbound.GroceryListRepository {
	return &GroceryListRepository{db: db}
}

// Save upserts the list for a plan. One plan keeps at most one list.
func (r *GroceryListRepository) Save(ctx context.Context, l *grocery.List) error {
	model := ListToModel(l)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plan_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindByPlanID loads the stored list for a plan
func (r *GroceryListRepository) FindByPlanID(ctx context.Context, planID uuid.UUID) (*grocery.List, error) {
	var model GroceryListModel
	result := r.db.WithContext(ctx).First(&model, "plan_id = ?", planID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, grocery.ErrListNotFound
		}
		return nil, result.Error
	}
	return ModelToList(&model), nil
}

// DeleteByPlanID removes the stored list for a plan
func (r *GroceryListRepository) DeleteByPlanID(ctx context.Context, planID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&GroceryListModel{}, "plan_id = ?", planID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return grocery.ErrListNotFound
	}
	return nil
}
