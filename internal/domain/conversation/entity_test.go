package conversation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ConversationTestSuite struct {
	suite.Suite
	ownerID uuid.UUID
}

func (s *ConversationTestSuite) SetupTest() {
	s.ownerID = uuid.New()
}

func (s *ConversationTestSuite) TestAppendUserTurn() {
	c := NewConversation(s.ownerID)

	err := c.Append(Turn{Role: RoleUser, Content: "I need a 5-day vegetarian meal plan"})

	s.NoError(err)
	s.Len(c.Turns(), 1)
	s.Equal("5-Day Vegetarian Meal Plan", c.Title())
	s.Contains(c.Preferences().DietaryRestrictions, "vegetarian")
	s.Len(c.Events(), 1)
}

func (s *ConversationTestSuite) TestAppendRejectsEmptyContent() {
	c := NewConversation(s.ownerID)

	err := c.Append(Turn{Role: RoleUser, Content: ""})

	s.ErrorIs(err, ErrEmptyTurn)
	s.Empty(c.Turns())
}

func (s *ConversationTestSuite) TestAppendRejectsUnknownRole() {
	c := NewConversation(s.ownerID)

	err := c.Append(Turn{Role: Role("assistant"), Content: "hello"})

	s.ErrorIs(err, ErrInvalidRole)
}

func (s *ConversationTestSuite) TestTitleSetOnceFromFirstUserTurn() {
	c := NewConversation(s.ownerID)

	s.Require().NoError(c.Append(Turn{Role: RoleUser, Content: "3 day keto plan please"}))
	first := c.Title()
	s.Require().NoError(c.Append(Turn{Role: RoleUser, Content: "actually make it italian"}))

	s.Equal(first, c.Title())
	s.Equal("3-Day Keto Meal Plan", first)
}

func (s *ConversationTestSuite) TestSystemTurnDoesNotSetTitle() {
	c := NewConversation(s.ownerID)

	s.Require().NoError(c.Append(Turn{Role: RoleSystem, Content: "Generated a plan", ProducedPlan: true}))

	s.Empty(c.Title())
}

func (s *ConversationTestSuite) TestPreferencesAccumulateAcrossTurns() {
	c := NewConversation(s.ownerID)

	s.Require().NoError(c.Append(Turn{Role: RoleUser, Content: "vegan meals please"}))
	s.Require().NoError(c.Append(Turn{Role: RoleUser, Content: "I love thai food but I'm allergic to peanuts"}))

	p := c.Preferences()
	s.Contains(p.DietaryRestrictions, "vegan")
	s.Contains(p.PreferredCuisines, "thai")
	s.Contains(p.Allergies, "peanut")
}

func (s *ConversationTestSuite) TestPlanHistoryOrder() {
	c := NewConversation(s.ownerID)
	first, second := uuid.New(), uuid.New()

	c.RecordPlan(first)
	c.RecordPlan(second)

	s.Equal([]uuid.UUID{first, second}, c.PlanHistory())
	s.Equal(second, c.LatestPlanID())
}

func (s *ConversationTestSuite) TestLatestPlanIDEmptyHistory() {
	c := NewConversation(s.ownerID)

	s.Equal(uuid.Nil, c.LatestPlanID())
}

func (s *ConversationTestSuite) TestTurnsReturnsCopy() {
	c := NewConversation(s.ownerID)
	s.Require().NoError(c.Append(Turn{Role: RoleUser, Content: "something"}))

	turns := c.Turns()
	turns[0].Content = "mutated"

	s.Equal("something", c.Turns()[0].Content)
}

func (s *ConversationTestSuite) TestRehydrateRecomputesPreferences() {
	id := uuid.New()
	turns := []Turn{
		{Role: RoleUser, Content: "gluten free plan", Timestamp: time.Now()},
	}

	c := Rehydrate(id, s.ownerID, "Meal Plan", turns, nil, AnalysisContext{}, time.Now(), time.Now())

	s.Equal(id, c.ID())
	s.Contains(c.Preferences().DietaryRestrictions, "gluten-free")
}

func TestConversationTestSuite(t *testing.T) {
	suite.Run(t, new(ConversationTestSuite))
}
