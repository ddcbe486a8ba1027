package plan

import (
	"time"

	"github.com/google/uuid"
)

// Domain Events - Events that occur within the meal plan domain

// PlanCreatedEvent is raised when a new meal plan is created
type PlanCreatedEvent struct {
	PlanID         uuid.UUID
	OwnerID        uuid.UUID
	ConversationID uuid.UUID
	Name           string
	Days           int
	CreatedAt      time.Time
}

func (e PlanCreatedEvent) EventName() string {
	return "plan.created"
}

func (e PlanCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// PlanMutatedEvent is raised when a structural edit is committed
type PlanMutatedEvent struct {
	PlanID    uuid.UUID
	Op        MutationOp
	MutatedAt time.Time
}

func (e PlanMutatedEvent) EventName() string {
	return "plan.mutated"
}

func (e PlanMutatedEvent) OccurredAt() time.Time {
	return e.MutatedAt
}

// PlanForkedEvent is raised when text-edit regeneration forks a new plan
// from an existing one within the same conversation
type PlanForkedEvent struct {
	PlanID       uuid.UUID
	SourcePlanID uuid.UUID
	ForkedAt     time.Time
}

func (e PlanForkedEvent) EventName() string {
	return "plan.forked"
}

func (e PlanForkedEvent) OccurredAt() time.Time {
	return e.ForkedAt
}
