package planning

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alchemorsel/planner/internal/application/retrieval"
	"github.com/alchemorsel/planner/internal/domain/plan"
	aimock "github.com/alchemorsel/planner/internal/infrastructure/ai/mock"
	"github.com/alchemorsel/planner/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/planner/internal/ports/inbound"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// fixedVector serves the same candidate pool for every collection
type fixedVector struct {
	hits []outbound.VectorHit
}

func (f *fixedVector) Search(ctx context.Context, collection, query string, limit, offset int) ([]outbound.VectorHit, error) {
	if offset >= len(f.hits) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.hits) {
		end = len(f.hits)
	}
	return f.hits[offset:end], nil
}

func (f *fixedVector) Collections(ctx context.Context) ([]string, error) {
	return []string{retrieval.CollectionGeneral}, nil
}

// fixedCatalog resolves ids from a canned recipe set
type fixedCatalog struct {
	recipes map[uuid.UUID]outbound.Recipe
}

func (f *fixedCatalog) Get(ctx context.Context, id uuid.UUID) (*outbound.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, outbound.ErrRecipeNotFound
	}
	return &r, nil
}

// gateLLM wraps the offline model with a switchable gate so a test can
// hold a generation mid-flight
type gateLLM struct {
	inner   outbound.LLMService
	gate    chan struct{}
	entered chan struct{}
	armed   atomic.Bool
}

func (g *gateLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if g.armed.Load() {
		g.entered <- struct{}{}
		<-g.gate
	}
	return g.inner.Complete(ctx, prompt)
}

type ServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	userID     uuid.UUID
	plans      *memory.PlanRepository
	convs      *memory.ConversationRepository
	catalog    *fixedCatalog
	aggregator *retrieval.Aggregator
	service    *Service
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.userID = uuid.New()
	s.plans = memory.NewPlanRepository()
	s.convs = memory.NewConversationRepository()
	s.catalog = &fixedCatalog{recipes: make(map[uuid.UUID]outbound.Recipe)}

	pool := make([]outbound.VectorHit, 12)
	for i := range pool {
		pool[i] = outbound.VectorHit{
			RecipeID:          uuid.New(),
			Name:              fmt.Sprintf("dish %d", i),
			IngredientPreview: []string{"tomato", "rice"},
			Collection:        retrieval.CollectionGeneral,
			Score:             0.95 - float64(i)*0.01,
		}
		s.catalog.recipes[pool[i].RecipeID] = outbound.Recipe{
			ID:          pool[i].RecipeID,
			Name:        pool[i].Name,
			Ingredients: pool[i].IngredientPreview,
			Collection:  pool[i].Collection,
		}
	}
	s.aggregator = retrieval.NewAggregator(&fixedVector{hits: pool}, retrieval.DefaultOptions(), zap.NewNop())
	orchestrator := NewOrchestrator(aimock.NewClient(), time.Second, zap.NewNop())

	s.service = NewService(s.plans, s.convs, s.aggregator, orchestrator, s.catalog, NopMetrics{}, zap.NewNop())
}

func (s *ServiceTestSuite) generate(days, meals int) *inbound.PlanDTO {
	dto, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:      s.userID,
		Request:     "a simple week of meals",
		Days:        days,
		MealsPerDay: meals,
	})
	s.Require().NoError(err)
	return dto
}

func (s *ServiceTestSuite) TestGeneratePlanStartsConversation() {
	dto := s.generate(3, 2)

	s.Equal(3, len(dto.Days))
	s.Equal("stable", dto.State)
	s.NotEqual(uuid.Nil, dto.ConversationID)

	conv, err := s.service.GetConversation(s.ctx, dto.ConversationID, s.userID)
	s.Require().NoError(err)
	s.Len(conv.Turns, 2)
	s.Equal("user", conv.Turns[0].Role)
	s.Equal("system", conv.Turns[1].Role)
	s.True(conv.Turns[1].ProducedPlan)
	s.Equal([]uuid.UUID{dto.ID}, conv.PlanHistory)
	s.True(conv.Analysis.AIEnhanced)
	s.Greater(conv.Analysis.CandidatesFound, 0)
}

func (s *ServiceTestSuite) TestGeneratePlanInExistingConversation() {
	first := s.generate(3, 2)

	second, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:         s.userID,
		ConversationID: first.ConversationID,
		Request:        "another round please",
		Days:           3,
		MealsPerDay:    2,
	})
	s.Require().NoError(err)

	conv, err := s.service.GetConversation(s.ctx, first.ConversationID, s.userID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{first.ID, second.ID}, conv.PlanHistory)
	s.Len(conv.Turns, 4)
}

func (s *ServiceTestSuite) TestGeneratePlanValidation() {
	_, err := s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{UserID: s.userID})
	s.True(errors.Is(err, errors.CodeBadRequest))

	_, err = s.service.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:  s.userID,
		Request: "too long",
		Days:    40,
	})
	s.True(errors.Is(err, errors.CodeValidationFailed))
}

func (s *ServiceTestSuite) TestEditPlanWithTextForks() {
	base := s.generate(3, 2)

	fork, err := s.service.EditPlanWithText(s.ctx, inbound.EditPlanCommand{
		UserID:  s.userID,
		PlanID:  base.ID,
		Request: "swap in lighter dinners",
	})
	s.Require().NoError(err)

	s.NotEqual(base.ID, fork.ID)
	s.Equal(base.ConversationID, fork.ConversationID)

	// The original plan is untouched by the edit.
	original, err := s.service.GetPlan(s.ctx, base.ID, s.userID)
	s.Require().NoError(err)
	s.Equal(base.Version, original.Version)

	conv, err := s.service.GetConversation(s.ctx, base.ConversationID, s.userID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{base.ID, fork.ID}, conv.PlanHistory)
}

func (s *ServiceTestSuite) TestMoveMealAndUndo() {
	dto := s.generate(3, 2)
	before := dto.Days

	res, err := s.service.MoveMeal(s.ctx, inbound.MoveMealCommand{
		UserID:         s.userID,
		PlanID:         dto.ID,
		SourceDay:      1,
		SourceMealType: "breakfast",
		DestDay:        3,
		DestMealType:   "lunch",
	})
	s.Require().NoError(err)
	s.Equal(plan.OpMoveMeal, res.Inverse.Op)
	s.Equal(dto.Version+1, res.Plan.Version)

	undone, err := s.service.ApplyMutation(s.ctx, dto.ID, s.userID, res.Inverse)
	s.Require().NoError(err)
	s.Equal(before, undone.Plan.Days)
}

func (s *ServiceTestSuite) TestMutationRejectionLeavesPlanUntouched() {
	dto := s.generate(3, 2)

	_, err := s.service.SwapDays(s.ctx, inbound.SwapDaysCommand{
		UserID: s.userID,
		PlanID: dto.ID,
		DayA:   1,
		DayB:   9,
	})
	s.True(errors.Is(err, errors.CodeInvariantViolation))

	after, err := s.service.GetPlan(s.ctx, dto.ID, s.userID)
	s.Require().NoError(err)
	s.Equal(dto.Version, after.Version)
	s.Equal("stable", after.State)
}

func (s *ServiceTestSuite) TestMutationConflictWhileLocked() {
	dto := s.generate(3, 2)

	release, ok := s.service.planLocks.TryLock(dto.ID)
	s.Require().True(ok)
	defer release()

	_, err := s.service.SwapDays(s.ctx, inbound.SwapDaysCommand{
		UserID: s.userID,
		PlanID: dto.ID,
		DayA:   1,
		DayB:   2,
	})
	s.True(errors.Is(err, errors.CodeMutationConflict))
}

func (s *ServiceTestSuite) TestOwnershipEnforced() {
	dto := s.generate(3, 2)
	stranger := uuid.New()

	_, err := s.service.SwapDays(s.ctx, inbound.SwapDaysCommand{
		UserID: stranger,
		PlanID: dto.ID,
		DayA:   1,
		DayB:   2,
	})
	s.True(errors.Is(err, errors.CodeForbidden))

	err = s.service.DeleteConversation(s.ctx, dto.ConversationID, stranger)
	s.True(errors.Is(err, errors.CodeForbidden))
}

func (s *ServiceTestSuite) TestReadsRequireOwnership() {
	dto := s.generate(3, 2)
	stranger := uuid.New()

	_, err := s.service.GetPlan(s.ctx, dto.ID, stranger)
	s.True(errors.Is(err, errors.CodeForbidden))

	_, err = s.service.GetConversation(s.ctx, dto.ConversationID, stranger)
	s.True(errors.Is(err, errors.CodeForbidden))
}

func (s *ServiceTestSuite) TestReplaceRecipeResolvesFromCatalog() {
	dto := s.generate(3, 2)
	current := dto.Days[0].Meals[0].Assignment
	s.Require().NotNil(current)

	newID := uuid.New()
	s.catalog.recipes[newID] = outbound.Recipe{
		ID:          newID,
		Name:        "Miso Ramen",
		Description: "broth forward",
		Ingredients: []string{"noodles", "miso"},
		Collection:  "recipes_general",
	}

	res, err := s.service.ReplaceRecipe(s.ctx, inbound.ReplaceRecipeCommand{
		UserID:      s.userID,
		PlanID:      dto.ID,
		Day:         1,
		MealType:    dto.Days[0].Meals[0].Type,
		OldRecipeID: current.RecipeID,
		NewRecipeID: newID,
	})
	s.Require().NoError(err)

	// The assignment carries the catalog's projection of the recipe.
	replaced := res.Plan.Days[0].Meals[0].Assignment
	s.Require().NotNil(replaced)
	s.Equal(newID, replaced.RecipeID)
	s.Equal("Miso Ramen", replaced.Name)
	s.Equal("broth forward", replaced.Description)
	s.Equal([]string{"noodles", "miso"}, replaced.IngredientPreview)
	s.Equal(plan.OpReplaceRecipe, res.Inverse.Op)
}

func (s *ServiceTestSuite) TestReplaceRecipeUnknownRecipe() {
	dto := s.generate(3, 2)
	current := dto.Days[0].Meals[0].Assignment
	s.Require().NotNil(current)

	_, err := s.service.ReplaceRecipe(s.ctx, inbound.ReplaceRecipeCommand{
		UserID:      s.userID,
		PlanID:      dto.ID,
		Day:         1,
		MealType:    dto.Days[0].Meals[0].Type,
		OldRecipeID: current.RecipeID,
		NewRecipeID: uuid.New(),
	})
	s.True(errors.Is(err, errors.CodeNotFound))
}

func (s *ServiceTestSuite) TestReplaceRecipeStaleSlotIsConflict() {
	dto := s.generate(3, 2)
	current := dto.Days[0].Meals[0].Assignment
	s.Require().NotNil(current)

	newID := uuid.New()
	s.catalog.recipes[newID] = outbound.Recipe{ID: newID, Name: "Miso Ramen"}

	// The caller believes the slot holds a different recipe than it does.
	_, err := s.service.ReplaceRecipe(s.ctx, inbound.ReplaceRecipeCommand{
		UserID:      s.userID,
		PlanID:      dto.ID,
		Day:         1,
		MealType:    dto.Days[0].Meals[0].Type,
		OldRecipeID: uuid.New(),
		NewRecipeID: newID,
	})
	s.True(errors.Is(err, errors.CodeMutationConflict))

	after, err := s.service.GetPlan(s.ctx, dto.ID, s.userID)
	s.Require().NoError(err)
	s.Equal(dto.Version, after.Version)
}

func (s *ServiceTestSuite) TestConversationNotLockedDuringGeneration() {
	llm := &gateLLM{
		inner:   aimock.NewClient(),
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	orchestrator := NewOrchestrator(llm, time.Second, zap.NewNop())
	svc := NewService(s.plans, s.convs, s.aggregator, orchestrator, s.catalog, NopMetrics{}, zap.NewNop())

	first, err := svc.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
		UserID:  s.userID,
		Request: "a simple week of meals",
		Days:    2, MealsPerDay: 2,
	})
	s.Require().NoError(err)

	llm.armed.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := svc.GeneratePlan(s.ctx, inbound.GeneratePlanCommand{
			UserID:         s.userID,
			ConversationID: first.ConversationID,
			Request:        "another round please",
			Days:           2, MealsPerDay: 2,
		})
		done <- err
	}()

	// With the generation parked inside the model call, work needing
	// the conversation lock must still go through.
	<-llm.entered
	s.Require().NoError(svc.DeleteConversation(s.ctx, first.ConversationID, s.userID))

	close(llm.gate)
	err = <-done
	s.True(errors.Is(err, errors.CodeConversationNotFound))
}

func (s *ServiceTestSuite) TestMutateMissingPlan() {
	_, err := s.service.SwapDays(s.ctx, inbound.SwapDaysCommand{
		UserID: s.userID,
		PlanID: uuid.New(),
		DayA:   1,
		DayB:   2,
	})
	s.True(errors.Is(err, errors.CodePlanNotFound))
}

func (s *ServiceTestSuite) TestMarkInstructionsSeen() {
	dto := s.generate(2, 2)
	s.False(dto.Settings.InstructionsSeen)

	s.Require().NoError(s.service.MarkInstructionsSeen(s.ctx, dto.ID, s.userID))

	after, err := s.service.GetPlan(s.ctx, dto.ID, s.userID)
	s.Require().NoError(err)
	s.True(after.Settings.InstructionsSeen)
}

func (s *ServiceTestSuite) TestDeleteConversationRemovesPlans() {
	dto := s.generate(2, 2)

	s.Require().NoError(s.service.DeleteConversation(s.ctx, dto.ConversationID, s.userID))

	_, err := s.service.GetPlan(s.ctx, dto.ID, s.userID)
	s.True(errors.Is(err, errors.CodePlanNotFound))
	_, err = s.service.GetConversation(s.ctx, dto.ConversationID, s.userID)
	s.True(errors.Is(err, errors.CodeConversationNotFound))
}

func (s *ServiceTestSuite) TestListConversations() {
	first := s.generate(2, 2)
	_ = s.generate(2, 2)

	summaries, total, err := s.service.ListConversations(s.ctx, s.userID, 0, 10)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(summaries, 2)
	s.NotEqual(uuid.Nil, first.ConversationID)

	// A negative offset reads from the start rather than panicking.
	summaries, total, err = s.service.ListConversations(s.ctx, s.userID, -5, 10)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(summaries, 2)
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
