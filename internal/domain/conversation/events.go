package conversation

import (
	"time"

	"github.com/google/uuid"
)

// TurnAppendedEvent fires when a turn is added to a thread
type TurnAppendedEvent struct {
	ConversationID uuid.UUID
	Role           Role
	ProducedPlan   bool
	AppendedAt     time.Time
}

func (e TurnAppendedEvent) EventName() string {
	return "conversation.turn_appended"
}

func (e TurnAppendedEvent) OccurredAt() time.Time {
	return e.AppendedAt
}
