package planning

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/alchemorsel/planner/internal/application/retrieval"
	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/alchemorsel/planner/internal/ports/inbound"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxPlanDays    = 14
	maxMealsPerDay = 6
	defaultDays    = 7
	defaultMeals   = 3
)

// Service implements the planning use cases. Conversation work is
// serialized per conversation with a blocking lock; plan mutations use a
// non-blocking lock so a concurrent mutation is reported as a conflict
// instead of queueing. No lock is ever held across a provider call:
// generation appends and commits the user turn under the lock, releases
// it for retrieval and the model round-trip, then re-acquires it to
// commit the result.
type Service struct {
	plans         outbound.PlanRepository
	conversations outbound.ConversationRepository
	aggregator    *retrieval.Aggregator
	orchestrator  *Orchestrator
	recipes       outbound.RecipeService
	metrics       Metrics
	logger        *zap.Logger

	planLocks *keyedLock
	convLocks *keyedLock

	// cursorsMu guards per-conversation retrieval offsets used to pull
	// fresh candidates on follow-up generations.
	cursorsMu sync.Mutex
	cursors   map[uuid.UUID]map[string]int
}

// NewService creates the planning application service
func NewService(
	plans outbound.PlanRepository,
	conversations outbound.ConversationRepository,
	aggregator *retrieval.Aggregator,
	orchestrator *Orchestrator,
	recipes outbound.RecipeService,
	metrics Metrics,
	logger *zap.Logger,
) *Service {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Service{
		plans:         plans,
		conversations: conversations,
		aggregator:    aggregator,
		orchestrator:  orchestrator,
		recipes:       recipes,
		metrics:       metrics,
		logger:        logger,
		planLocks:     newKeyedLock(),
		convLocks:     newKeyedLock(),
		cursors:       make(map[uuid.UUID]map[string]int),
	}
}

var _ inbound.PlanningService = (*Service)(nil)

// GeneratePlan runs the full pipeline: load or start the conversation,
// retrieve candidates, prompt the model, validate, persist.
func (s *Service) GeneratePlan(ctx context.Context, cmd inbound.GeneratePlanCommand) (*inbound.PlanDTO, error) {
	if err := validateGenerateCommand(&cmd); err != nil {
		return nil, err
	}

	conv, isNew, err := s.loadOrStartConversation(ctx, cmd.ConversationID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.commitUserTurn(ctx, conv, isNew, cmd.Request); err != nil {
		return nil, err
	}

	// Retrieval and the model round-trip run without the conversation
	// lock; other work on the thread is free to proceed.
	draft, analysis, err := s.generate(ctx, conv, cmd.Request, cmd.Days, cmd.MealsPerDay)
	if err != nil {
		return nil, err
	}

	release := s.convLocks.Lock(conv.ID())
	defer release()

	// Reload under the lock; the thread may have moved on or been
	// deleted while the model was thinking.
	conv, err = s.loadConversation(ctx, conv.ID())
	if err != nil {
		return nil, err
	}

	name := draft.Name
	if conv.Title() != "" {
		name = conv.Title()
	}
	p, err := plan.NewMealPlan(cmd.UserID, conv.ID(), name, cmd.MealsPerDay, draft.Days, draft.Explanation)
	if err != nil {
		s.metrics.ObserveGeneration(OutcomeRejected, 0)
		return nil, errors.NewInvariantViolationError("generated plan failed validation", err)
	}
	if err := s.plans.Create(ctx, p); err != nil {
		return nil, errors.NewDatabaseError("create meal plan", err)
	}

	if err := s.recordGeneration(ctx, conv, p, analysis); err != nil {
		return nil, err
	}

	s.logger.Info("plan generated",
		zap.String("plan_id", p.ID().String()),
		zap.String("conversation_id", conv.ID().String()),
		zap.Int("days", p.DayCount()),
	)
	return toPlanDTO(p), nil
}

// EditPlanWithText regenerates a plan from a free-text instruction. The
// result is a fork; the original plan is left untouched.
func (s *Service) EditPlanWithText(ctx context.Context, cmd inbound.EditPlanCommand) (*inbound.PlanDTO, error) {
	if cmd.Request == "" {
		return nil, errors.NewBadRequestError("request text is required")
	}

	base, err := s.loadOwnedPlan(ctx, cmd.PlanID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	conv, err := s.loadConversation(ctx, base.ConversationID())
	if err != nil {
		return nil, err
	}
	if conv.OwnerID() != cmd.UserID {
		return nil, errors.NewForbiddenError("")
	}

	if err := s.commitUserTurn(ctx, conv, false, cmd.Request); err != nil {
		return nil, err
	}

	draft, analysis, err := s.generate(ctx, conv, cmd.Request, base.DayCount(), base.MealsPerDay())
	if err != nil {
		return nil, err
	}

	release := s.convLocks.Lock(conv.ID())
	defer release()

	conv, err = s.loadConversation(ctx, conv.ID())
	if err != nil {
		return nil, err
	}

	fork, err := base.Fork(base.Name(), draft.Days, draft.Explanation)
	if err != nil {
		s.metrics.ObserveGeneration(OutcomeRejected, 0)
		return nil, errors.NewInvariantViolationError("regenerated plan failed validation", err)
	}
	if err := s.plans.Create(ctx, fork); err != nil {
		return nil, errors.NewDatabaseError("create forked plan", err)
	}

	if err := s.recordGeneration(ctx, conv, fork, analysis); err != nil {
		return nil, err
	}

	s.logger.Info("plan regenerated",
		zap.String("base_plan_id", base.ID().String()),
		zap.String("plan_id", fork.ID().String()),
	)
	return toPlanDTO(fork), nil
}

// MoveMeal moves or exchanges a meal between two slots
func (s *Service) MoveMeal(ctx context.Context, cmd inbound.MoveMealCommand) (*inbound.MutationResult, error) {
	return s.mutate(ctx, cmd.PlanID, cmd.UserID, string(plan.OpMoveMeal), func(p *plan.MealPlan) (*plan.Mutation, error) {
		return p.MoveMeal(cmd.SourceDay, plan.MealType(cmd.SourceMealType), cmd.DestDay, plan.MealType(cmd.DestMealType))
	})
}

// SwapDays exchanges the contents of two days
func (s *Service) SwapDays(ctx context.Context, cmd inbound.SwapDaysCommand) (*inbound.MutationResult, error) {
	return s.mutate(ctx, cmd.PlanID, cmd.UserID, string(plan.OpSwapDays), func(p *plan.MealPlan) (*plan.Mutation, error) {
		return p.SwapDays(cmd.DayA, cmd.DayB)
	})
}

// ReorderDays relabels days according to a permutation
func (s *Service) ReorderDays(ctx context.Context, cmd inbound.ReorderDaysCommand) (*inbound.MutationResult, error) {
	return s.mutate(ctx, cmd.PlanID, cmd.UserID, string(plan.OpReorderDays), func(p *plan.MealPlan) (*plan.Mutation, error) {
		return p.ReorderDays(cmd.Order)
	})
}

// ReplaceRecipe swaps one assigned recipe for another. The new recipe
// is resolved against the catalog before the plan lock is taken so the
// lookup never extends the mutation's critical section.
func (s *Service) ReplaceRecipe(ctx context.Context, cmd inbound.ReplaceRecipeCommand) (*inbound.MutationResult, error) {
	recipe, err := s.recipes.Get(ctx, cmd.NewRecipeID)
	if err != nil {
		if stderrors.Is(err, outbound.ErrRecipeNotFound) {
			return nil, errors.NewAppError(errors.CodeNotFound, "recipe not found", cmd.NewRecipeID.String())
		}
		return nil, errors.NewExternalServiceError("recipe catalog", err)
	}
	replacement := plan.MealAssignment{
		RecipeID:          recipe.ID,
		Name:              recipe.Name,
		Description:       recipe.Description,
		IngredientPreview: recipe.Ingredients,
		Collection:        recipe.Collection,
	}
	return s.mutate(ctx, cmd.PlanID, cmd.UserID, string(plan.OpReplaceRecipe), func(p *plan.MealPlan) (*plan.Mutation, error) {
		return p.ReplaceRecipe(cmd.Day, plan.MealType(cmd.MealType), cmd.OldRecipeID, replacement)
	})
}

// ApplyMutation applies an arbitrary mutation, typically an inverse
// returned by an earlier operation, which makes undo a plain replay.
func (s *Service) ApplyMutation(ctx context.Context, planID, userID uuid.UUID, m plan.Mutation) (*inbound.MutationResult, error) {
	return s.mutate(ctx, planID, userID, string(m.Op), func(p *plan.MealPlan) (*plan.Mutation, error) {
		return p.Apply(m)
	})
}

// MarkInstructionsSeen persists the per-plan instructions dismissal
func (s *Service) MarkInstructionsSeen(ctx context.Context, planID, userID uuid.UUID) error {
	p, err := s.loadOwnedPlan(ctx, planID, userID)
	if err != nil {
		return err
	}
	settings := p.Settings()
	if settings.InstructionsSeen {
		return nil
	}
	settings.InstructionsSeen = true
	p.UpdateSettings(settings)
	if err := s.plans.Update(ctx, p); err != nil {
		return errors.NewDatabaseError("update plan settings", err)
	}
	return nil
}

// DeleteConversation removes a thread and every plan generated in it
func (s *Service) DeleteConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.OwnerID() != userID {
		return errors.NewForbiddenError("")
	}

	release := s.convLocks.Lock(conversationID)
	defer release()

	plans, err := s.plans.FindByConversation(ctx, conversationID)
	if err != nil {
		return errors.NewDatabaseError("list conversation plans", err)
	}
	for _, p := range plans {
		if err := s.plans.Delete(ctx, p.ID()); err != nil {
			return errors.NewDatabaseError("delete meal plan", err)
		}
	}
	if err := s.conversations.Delete(ctx, conversationID); err != nil {
		return errors.NewDatabaseError("delete conversation", err)
	}

	s.cursorsMu.Lock()
	delete(s.cursors, conversationID)
	s.cursorsMu.Unlock()

	s.logger.Info("conversation deleted",
		zap.String("conversation_id", conversationID.String()),
		zap.Int("plans_removed", len(plans)),
	)
	return nil
}

// GetPlan returns a plan by id, owner only
func (s *Service) GetPlan(ctx context.Context, planID, userID uuid.UUID) (*inbound.PlanDTO, error) {
	p, err := s.loadOwnedPlan(ctx, planID, userID)
	if err != nil {
		return nil, err
	}
	return toPlanDTO(p), nil
}

// GetConversation returns a conversation with its full turn log, owner
// only
func (s *Service) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*inbound.ConversationDTO, error) {
	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.OwnerID() != userID {
		return nil, errors.NewForbiddenError("")
	}
	return toConversationDTO(conv), nil
}

// ListConversations returns a page of conversation summaries
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, offset, limit int) ([]inbound.ConversationSummaryDTO, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	convs, total, err := s.conversations.FindByOwner(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, errors.NewDatabaseError("list conversations", err)
	}
	summaries := make([]inbound.ConversationSummaryDTO, len(convs))
	for i, c := range convs {
		summaries[i] = toConversationSummaryDTO(c)
	}
	return summaries, total, nil
}

// generate runs retrieval and orchestration for an already locked
// conversation and returns the validated draft plus analysis facts.
func (s *Service) generate(ctx context.Context, conv *conversation.ConversationContext, request string, days, mealsPerDay int) (*Draft, conversation.AnalysisContext, error) {
	prefs := conv.Preferences()
	collections := retrieval.DetectCollections(request, prefs.DietaryRestrictions)

	retrieved, err := s.aggregator.Retrieve(ctx, request, collections, s.cursorsFor(conv.ID()))
	if err != nil {
		return nil, conversation.AnalysisContext{}, err
	}
	s.metrics.ObserveRetrieval(len(retrieved.Candidates), len(retrieved.Failed))
	s.storeCursors(conv.ID(), retrieved.Cursors)

	start := time.Now()
	draft, err := s.orchestrator.Generate(ctx, PromptInput{
		Request:     request,
		Days:        days,
		MealsPerDay: mealsPerDay,
		Preferences: prefs,
		Candidates:  retrieved.Candidates,
	})
	if err != nil {
		s.metrics.ObserveGeneration(generationOutcome(err), time.Since(start))
		return nil, conversation.AnalysisContext{}, err
	}
	outcome := OutcomeOK
	if draft.Retried {
		outcome = OutcomeRetried
	}
	s.metrics.ObserveGeneration(outcome, time.Since(start))

	analysis := conversation.AnalysisContext{
		AIEnhanced:        true,
		CandidatesFound:   len(retrieved.Candidates),
		AverageSimilarity: retrieved.AverageScore,
		CollectionsUsed:   retrieved.Searched,
		FallbackUsed:      len(retrieved.Failed) > 0,
	}
	return draft, analysis, nil
}

// commitUserTurn appends the user's message and persists the thread
// before any provider call, holding the conversation lock only for this
// append-and-commit step.
func (s *Service) commitUserTurn(ctx context.Context, conv *conversation.ConversationContext, isNew bool, request string) error {
	release := s.convLocks.Lock(conv.ID())
	defer release()

	if err := conv.Append(conversation.Turn{Role: conversation.RoleUser, Content: request}); err != nil {
		return errors.NewBadRequestError(err.Error())
	}
	if isNew {
		if err := s.conversations.Create(ctx, conv); err != nil {
			return errors.NewDatabaseError("create conversation", err)
		}
		return nil
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return errors.NewDatabaseError("update conversation", err)
	}
	return nil
}

// recordGeneration persists the conversation-side bookkeeping of a
// successful generation: plan history, analysis, and the system turn.
// The caller holds the conversation lock.
func (s *Service) recordGeneration(ctx context.Context, conv *conversation.ConversationContext, p *plan.MealPlan, analysis conversation.AnalysisContext) error {
	conv.RecordPlan(p.ID())
	conv.SetAnalysis(analysis)
	systemTurn := conversation.Turn{
		Role:         conversation.RoleSystem,
		Content:      fmt.Sprintf("Generated %q: %d days, %d meals per day.", p.Name(), p.DayCount(), p.MealsPerDay()),
		ProducedPlan: true,
	}
	if err := conv.Append(systemTurn); err != nil {
		return errors.NewInternalError(err.Error())
	}
	if err := s.conversations.Update(ctx, conv); err != nil {
		return errors.NewDatabaseError("update conversation", err)
	}
	return nil
}

// mutate is the shared clone-validate-commit path for structural
// mutations. The plan lock is acquired without blocking; losing the race
// is a conflict, not a queue.
func (s *Service) mutate(ctx context.Context, planID, userID uuid.UUID, op string, apply func(*plan.MealPlan) (*plan.Mutation, error)) (*inbound.MutationResult, error) {
	release, ok := s.planLocks.TryLock(planID)
	if !ok {
		s.metrics.ObserveMutation(op, OutcomeConflict)
		return nil, errors.NewMutationConflictError(planID.String())
	}
	defer release()

	p, err := s.loadOwnedPlan(ctx, planID, userID)
	if err != nil {
		return nil, err
	}

	if err := p.BeginMutation(); err != nil {
		s.metrics.ObserveMutation(op, OutcomeConflict)
		return nil, errors.NewMutationConflictError(planID.String())
	}
	expectedVersion := p.Version()

	inverse, err := apply(p)
	p.EndMutation()
	if err != nil {
		// A slot holding a different recipe than the caller last saw
		// means they mutated against stale state.
		if stderrors.Is(err, plan.ErrRecipeMismatch) {
			s.metrics.ObserveMutation(op, OutcomeConflict)
			return nil, errors.NewMutationConflictError(planID.String()).WithCause(err)
		}
		s.metrics.ObserveMutation(op, OutcomeRejected)
		return nil, errors.NewInvariantViolationError(err.Error(), err)
	}

	if err := s.plans.UpdateWithVersion(ctx, p, expectedVersion); err != nil {
		s.metrics.ObserveMutation(op, OutcomeConflict)
		return nil, errors.NewMutationConflictError(planID.String()).WithCause(err)
	}

	s.metrics.ObserveMutation(op, OutcomeOK)
	return &inbound.MutationResult{
		Plan:    toPlanDTO(p),
		Inverse: *inverse,
	}, nil
}

func (s *Service) loadOrStartConversation(ctx context.Context, id, userID uuid.UUID) (*conversation.ConversationContext, bool, error) {
	if id == uuid.Nil {
		return conversation.NewConversation(userID), true, nil
	}
	conv, err := s.loadConversation(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if conv.OwnerID() != userID {
		return nil, false, errors.NewForbiddenError("")
	}
	return conv, false, nil
}

func (s *Service) loadConversation(ctx context.Context, id uuid.UUID) (*conversation.ConversationContext, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, conversation.ErrConversationNotFound) {
			return nil, errors.NewConversationNotFoundError(id.String())
		}
		return nil, errors.NewDatabaseError("load conversation", err)
	}
	return conv, nil
}

func (s *Service) loadOwnedPlan(ctx context.Context, planID, userID uuid.UUID) (*plan.MealPlan, error) {
	p, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, planLookupError(planID, err)
	}
	if p.OwnerID() != userID {
		return nil, errors.NewForbiddenError("")
	}
	return p, nil
}

func (s *Service) cursorsFor(conversationID uuid.UUID) map[string]int {
	s.cursorsMu.Lock()
	defer s.cursorsMu.Unlock()
	cursors := make(map[string]int, len(s.cursors[conversationID]))
	for k, v := range s.cursors[conversationID] {
		cursors[k] = v
	}
	return cursors
}

func (s *Service) storeCursors(conversationID uuid.UUID, cursors map[string]int) {
	s.cursorsMu.Lock()
	defer s.cursorsMu.Unlock()
	s.cursors[conversationID] = cursors
}

func validateGenerateCommand(cmd *inbound.GeneratePlanCommand) error {
	if cmd.Request == "" {
		return errors.NewBadRequestError("request text is required")
	}
	if cmd.Days == 0 {
		cmd.Days = defaultDays
	}
	if cmd.MealsPerDay == 0 {
		cmd.MealsPerDay = defaultMeals
	}
	if cmd.Days < 1 || cmd.Days > maxPlanDays {
		return errors.NewValidationError(fmt.Sprintf("days must be between 1 and %d", maxPlanDays))
	}
	if cmd.MealsPerDay < 1 || cmd.MealsPerDay > maxMealsPerDay {
		return errors.NewValidationError(fmt.Sprintf("meals per day must be between 1 and %d", maxMealsPerDay))
	}
	return nil
}

func planLookupError(planID uuid.UUID, err error) error {
	if stderrors.Is(err, plan.ErrPlanNotFound) {
		return errors.NewPlanNotFoundError(planID.String())
	}
	return errors.NewDatabaseError("load meal plan", err)
}

func generationOutcome(err error) string {
	switch errors.GetCode(err) {
	case errors.CodeGenerationTimeout:
		return OutcomeTimeout
	case errors.CodeGenerationMalformed:
		return OutcomeMalformed
	default:
		return OutcomeRejected
	}
}
