// Package conversation models the per-plan chat thread as an append-only
// turn log. Preferences used in prompts are a projection recomputed from
// the log on every append, so the snapshot can never diverge from the
// history it was derived from.
package conversation

import (
	"time"

	"github.com/alchemorsel/planner/internal/domain/shared"
	"github.com/google/uuid"
)

// Role identifies who produced a turn
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Turn is one immutable entry in the conversation log
type Turn struct {
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	ProducedPlan bool      `json:"producedPlan,omitempty"`
}

// AnalysisContext captures how the latest generation turn was produced,
// persisted for durability and debuggability
type AnalysisContext struct {
	AIEnhanced        bool     `json:"aiEnhanced"`
	CandidatesFound   int      `json:"candidatesFound"`
	AverageSimilarity float64  `json:"averageSimilarity"`
	CollectionsUsed   []string `json:"collectionsUsed,omitempty"`
	FallbackUsed      bool     `json:"fallbackUsed,omitempty"`
}

// ConversationContext is the aggregate root for one meal-plan thread
type ConversationContext struct {
	shared.AggregateRoot

	id      uuid.UUID
	ownerID uuid.UUID
	title   string

	turns       []Turn
	preferences Preferences
	planHistory []uuid.UUID
	analysis    AnalysisContext

	createdAt time.Time
	updatedAt time.Time
}

// NewConversation starts a new thread for an owner
func NewConversation(ownerID uuid.UUID) *ConversationContext {
	now := time.Now()
	return &ConversationContext{
		id:        uuid.New(),
		ownerID:   ownerID,
		createdAt: now,
		updatedAt: now,
	}
}

// Rehydrate reconstructs a conversation from persisted state. Used by the
// persistence layer only.
func Rehydrate(id, ownerID uuid.UUID, title string, turns []Turn, planHistory []uuid.UUID, analysis AnalysisContext, createdAt, updatedAt time.Time) *ConversationContext {
	c := &ConversationContext{
		id:          id,
		ownerID:     ownerID,
		title:       title,
		turns:       turns,
		planHistory: planHistory,
		analysis:    analysis,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
	c.preferences = DerivePreferences(turns)
	return c
}

// ID returns the conversation's unique identifier
func (c *ConversationContext) ID() uuid.UUID {
	return c.id
}

// OwnerID returns the owning user's identifier
func (c *ConversationContext) OwnerID() uuid.UUID {
	return c.ownerID
}

// Title returns the derived human-readable title
func (c *ConversationContext) Title() string {
	return c.title
}

// Turns returns a copy of the full turn log in append order
func (c *ConversationContext) Turns() []Turn {
	turns := make([]Turn, len(c.turns))
	copy(turns, c.turns)
	return turns
}

// Preferences returns the projection derived from the turn log
func (c *ConversationContext) Preferences() Preferences {
	return c.preferences.Clone()
}

// PlanHistory returns the ids of plans produced in this thread, oldest first
func (c *ConversationContext) PlanHistory() []uuid.UUID {
	history := make([]uuid.UUID, len(c.planHistory))
	copy(history, c.planHistory)
	return history
}

// LatestPlanID returns the most recently produced plan id, or uuid.Nil
func (c *ConversationContext) LatestPlanID() uuid.UUID {
	if len(c.planHistory) == 0 {
		return uuid.Nil
	}
	return c.planHistory[len(c.planHistory)-1]
}

// Analysis returns the latest generation analysis snapshot
func (c *ConversationContext) Analysis() AnalysisContext {
	return c.analysis
}

// CreatedAt returns when the thread started
func (c *ConversationContext) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns when the thread last changed
func (c *ConversationContext) UpdatedAt() time.Time {
	return c.updatedAt
}

// Append adds a turn to the log. Appending is the only mutation; turns
// are never edited or removed. The preference projection and the title
// are recomputed from the log, never written directly.
func (c *ConversationContext) Append(turn Turn) error {
	if turn.Content == "" {
		return ErrEmptyTurn
	}
	if turn.Role != RoleUser && turn.Role != RoleSystem {
		return ErrInvalidRole
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	c.turns = append(c.turns, turn)
	c.preferences = DerivePreferences(c.turns)
	if c.title == "" && turn.Role == RoleUser {
		c.title = DeriveTitle(turn.Content)
	}
	c.updatedAt = time.Now()

	c.AddEvent(TurnAppendedEvent{
		ConversationID: c.id,
		Role:           turn.Role,
		ProducedPlan:   turn.ProducedPlan,
		AppendedAt:     c.updatedAt,
	})
	return nil
}

// RecordPlan appends a produced plan id to the thread's history
func (c *ConversationContext) RecordPlan(planID uuid.UUID) {
	c.planHistory = append(c.planHistory, planID)
	c.updatedAt = time.Now()
}

// SetAnalysis replaces the generation analysis snapshot
func (c *ConversationContext) SetAnalysis(analysis AnalysisContext) {
	c.analysis = analysis
	c.updatedAt = time.Now()
}
