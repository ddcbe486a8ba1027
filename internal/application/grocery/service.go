// Package grocery implements shopping list synthesis on top of the plan
// repository, with a cache in front so unchanged plans are served the
// same list bytes.
package grocery

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/inbound"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const cacheTTL = 24 * time.Hour

// cachedList is the cache wire form of a synthesized list
type cachedList struct {
	ID          uuid.UUID      `json:"id"`
	PlanID      uuid.UUID      `json:"plan_id"`
	Items       []grocery.Item `json:"items"`
	PlanStamp   time.Time      `json:"plan_stamp"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Service synthesizes and caches grocery lists
type Service struct {
	plans  outbound.PlanRepository
	lists  outbound.GroceryListRepository
	cache  outbound.CacheRepository
	logger *zap.Logger
}

// NewService creates the grocery application service
func NewService(
	plans outbound.PlanRepository,
	lists outbound.GroceryListRepository,
	cache outbound.CacheRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		plans:  plans,
		lists:  lists,
		cache:  cache,
		logger: logger,
	}
}

var _ inbound.GroceryService = (*Service)(nil)

// GetGroceryList returns the shopping list for a plan, reusing the
// cached or stored list while the plan is unchanged. forceRegenerate
// bypasses both and rebuilds from the current plan. Only the plan's
// owner may read its list.
func (s *Service) GetGroceryList(ctx context.Context, planID, userID uuid.UUID, forceRegenerate bool) (*inbound.GroceryListDTO, error) {
	p, err := s.loadOwnedPlan(ctx, planID, userID)
	if err != nil {
		return nil, err
	}

	if !forceRegenerate {
		if list := s.lookupFresh(ctx, p); list != nil {
			return toDTO(list, p, true), nil
		}
	}

	list, err := grocery.Synthesize(planID, planIngredients(p), p.LastMutatedAt())
	if err != nil {
		if stderrors.Is(err, grocery.ErrEmptyPlan) {
			return nil, errors.NewBadRequestError("plan has no assigned meals to shop for")
		}
		return nil, errors.Wrap(err, "synthesize grocery list")
	}

	if err := s.lists.Save(ctx, list); err != nil {
		return nil, errors.NewDatabaseError("save grocery list", err)
	}
	s.storeCached(ctx, list)

	return toDTO(list, p, false), nil
}

// InvalidateForPlan drops the stored and cached list for a plan, owner
// only
func (s *Service) InvalidateForPlan(ctx context.Context, planID, userID uuid.UUID) error {
	if _, err := s.loadOwnedPlan(ctx, planID, userID); err != nil {
		return err
	}
	if err := s.lists.DeleteByPlanID(ctx, planID); err != nil && !stderrors.Is(err, grocery.ErrListNotFound) {
		return errors.NewDatabaseError("delete grocery list", err)
	}
	if err := s.cache.Delete(ctx, cacheKey(planID)); err != nil {
		s.logger.Warn("grocery cache invalidation failed",
			zap.String("plan_id", planID.String()),
			zap.Error(err),
		)
	}
	return nil
}

func (s *Service) loadOwnedPlan(ctx context.Context, planID, userID uuid.UUID) (*plan.MealPlan, error) {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if stderrors.Is(err, plan.ErrPlanNotFound) {
			return nil, errors.NewPlanNotFoundError(planID.String())
		}
		return nil, errors.NewDatabaseError("load meal plan", err)
	}
	if p.OwnerID() != userID {
		return nil, errors.NewForbiddenError("")
	}
	return p, nil
}

// lookupFresh returns the cached or stored list when it matches the
// plan's current mutation stamp, nil otherwise. Cache problems degrade
// to the repository, repository problems to resynthesis.
func (s *Service) lookupFresh(ctx context.Context, p *plan.MealPlan) *grocery.List {
	if raw, err := s.cache.Get(ctx, cacheKey(p.ID())); err == nil && len(raw) > 0 {
		var cached cachedList
		if err := json.Unmarshal(raw, &cached); err == nil {
			list := grocery.RehydrateList(cached.ID, cached.PlanID, cached.Items, cached.PlanStamp, cached.GeneratedAt)
			if !list.StaleFor(p.LastMutatedAt()) {
				return list
			}
		}
	}

	list, err := s.lists.FindByPlanID(ctx, p.ID())
	if err != nil {
		return nil
	}
	if list.StaleFor(p.LastMutatedAt()) {
		return nil
	}
	s.storeCached(ctx, list)
	return list
}

func (s *Service) storeCached(ctx context.Context, list *grocery.List) {
	payload, err := json.Marshal(cachedList{
		ID:          list.ID(),
		PlanID:      list.PlanID(),
		Items:       list.Items(),
		PlanStamp:   list.PlanStamp(),
		GeneratedAt: list.GeneratedAt(),
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(list.PlanID()), payload, cacheTTL); err != nil {
		s.logger.Warn("grocery cache write failed",
			zap.String("plan_id", list.PlanID().String()),
			zap.Error(err),
		)
	}
}

// planIngredients flattens every assigned meal's ingredient preview.
// Recipes without previews contribute their name so the list is never
// silently missing a meal.
func planIngredients(p *plan.MealPlan) []string {
	var out []string
	for _, day := range p.Days() {
		for _, meal := range day.Meals {
			if meal.Assignment == nil {
				continue
			}
			if len(meal.Assignment.IngredientPreview) > 0 {
				out = append(out, meal.Assignment.IngredientPreview...)
				continue
			}
			out = append(out, meal.Assignment.Name)
		}
	}
	return out
}

func toDTO(list *grocery.List, p *plan.MealPlan, fromCache bool) *inbound.GroceryListDTO {
	return &inbound.GroceryListDTO{
		PlanID:      list.PlanID(),
		Items:       list.Items(),
		Stale:       list.StaleFor(p.LastMutatedAt()),
		FromCache:   fromCache,
		GeneratedAt: list.GeneratedAt(),
	}
}

func cacheKey(planID uuid.UUID) string {
	return fmt.Sprintf("grocery:plan:%s", planID)
}
