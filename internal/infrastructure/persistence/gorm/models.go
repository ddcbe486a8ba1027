// Package gorm provides GORM-based persistence for plans, conversations
// and grocery lists
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alchemorsel/planner/internal/domain/conversation"
	"github.com/alchemorsel/planner/internal/domain/grocery"
	"github.com/alchemorsel/planner/internal/domain/plan"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealPlanModel represents the GORM model for meal plans
type MealPlanModel struct {
	ID             uuid.UUID `gorm:"type:char(36);primaryKey"`
	Version        int64     `gorm:"default:1"`
	OwnerID        uuid.UUID `gorm:"type:char(36);not null;index"`
	ConversationID uuid.UUID `gorm:"type:char(36);not null;index"`
	Name           string    `gorm:"type:varchar(255);not null"`
	Explanation    string    `gorm:"type:text"`
	MealsPerDay    int       `gorm:"not null"`
	Days           DaysJSON  `gorm:"type:json"`
	State          string    `gorm:"type:varchar(20);default:'stable'"`

	// Settings flattened into columns
	InstructionsSeen bool `gorm:"default:false"`

	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
	LastMutatedAt time.Time
}

// ConversationModel represents the GORM model for conversation threads
type ConversationModel struct {
	ID          uuid.UUID    `gorm:"type:char(36);primaryKey"`
	OwnerID     uuid.UUID    `gorm:"type:char(36);not null;index"`
	Title       string       `gorm:"type:varchar(255)"`
	Turns       TurnsJSON    `gorm:"type:json"`
	PlanHistory UUIDSlice    `gorm:"type:json"`
	Analysis    AnalysisJSON `gorm:"type:json"`
	CreatedAt   time.Time    `gorm:"index"`
	UpdatedAt   time.Time    `gorm:"index"`
}

// GroceryListModel represents the GORM model for grocery lists
type GroceryListModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	PlanID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex"`
	Items       ItemsJSON `gorm:"type:json"`
	PlanStamp   time.Time `gorm:"not null"`
	GeneratedAt time.Time `gorm:"not null"`
}

// DaysJSON stores a plan's day grid as a JSON document
type DaysJSON []plan.DaySlot

// Scan implements the sql.Scanner interface
func (d *DaysJSON) Scan(value interface{}) error {
	return scanJSON(value, d)
}

// Value implements the driver.Valuer interface
func (d DaysJSON) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "[]", nil
	}
	return json.Marshal(d)
}

// TurnsJSON stores a conversation's turn log as a JSON document
type TurnsJSON []conversation.Turn

// Scan implements the sql.Scanner interface
func (t *TurnsJSON) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// Value implements the driver.Valuer interface
func (t TurnsJSON) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	return json.Marshal(t)
}

// UUIDSlice stores an ordered id list as a JSON document
type UUIDSlice []uuid.UUID

// Scan implements the sql.Scanner interface
func (s *UUIDSlice) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// Value implements the driver.Valuer interface
func (s UUIDSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// AnalysisJSON stores the generation analysis snapshot as a JSON document
type AnalysisJSON conversation.AnalysisContext

// Scan implements the sql.Scanner interface
func (a *AnalysisJSON) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// Value implements the driver.Valuer interface
func (a AnalysisJSON) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// ItemsJSON stores grocery list lines as a JSON document
type ItemsJSON []grocery.Item

// Scan implements the sql.Scanner interface
func (i *ItemsJSON) Scan(value interface{}) error {
	return scanJSON(value, i)
}

// Value implements the driver.Valuer interface
func (i ItemsJSON) Value() (driver.Value, error) {
	if len(i) == 0 {
		return "[]", nil
	}
	return json.Marshal(i)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
}

// BeforeCreate hook for MealPlanModel
func (m *MealPlanModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for ConversationModel
func (c *ConversationModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for GroceryListModel
func (g *GroceryListModel) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (MealPlanModel) TableName() string {
	return "meal_plans"
}

func (ConversationModel) TableName() string {
	return "conversations"
}

func (GroceryListModel) TableName() string {
	return "grocery_lists"
}
