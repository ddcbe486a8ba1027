// Package grocery synthesizes shopping lists from the ingredient
// previews of a meal plan's assigned recipes.
package grocery

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is one line of a shopping list
type Item struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Category Category `json:"category"`
}

// List is a synthesized shopping list for one plan version. PlanStamp
// records the plan's last mutation time at synthesis, so staleness is a
// simple timestamp comparison.
type List struct {
	id          uuid.UUID
	planID      uuid.UUID
	items       []Item
	planStamp   time.Time
	generatedAt time.Time
}

// Synthesize builds a list from raw ingredient mentions. Mentions are
// normalized (case-folded, trimmed, best-effort singularized), merged by
// normalized name with occurrence counts as quantities, categorized, and
// ordered by CategoryOrder then name so the output is deterministic.
func Synthesize(planID uuid.UUID, ingredients []string, planStamp time.Time) (*List, error) {
	if len(ingredients) == 0 {
		return nil, ErrEmptyPlan
	}

	counts := make(map[string]int)
	for _, raw := range ingredients {
		name := Normalize(raw)
		if name == "" {
			continue
		}
		counts[name]++
	}
	if len(counts) == 0 {
		return nil, ErrEmptyPlan
	}

	items := make([]Item, 0, len(counts))
	for name, count := range counts {
		items = append(items, Item{
			Name:     name,
			Quantity: count,
			Category: Categorize(name),
		})
	}
	sortItems(items)

	return &List{
		id:          uuid.New(),
		planID:      planID,
		items:       items,
		planStamp:   planStamp,
		generatedAt: time.Now(),
	}, nil
}

// RehydrateList reconstructs a list from persisted state
func RehydrateList(id, planID uuid.UUID, items []Item, planStamp, generatedAt time.Time) *List {
	return &List{
		id:          id,
		planID:      planID,
		items:       items,
		planStamp:   planStamp,
		generatedAt: generatedAt,
	}
}

func (l *List) ID() uuid.UUID        { return l.id }
func (l *List) PlanID() uuid.UUID    { return l.planID }
func (l *List) PlanStamp() time.Time { return l.planStamp }

func (l *List) GeneratedAt() time.Time { return l.generatedAt }

// Items returns list lines in category-then-name order
func (l *List) Items() []Item {
	items := make([]Item, len(l.items))
	copy(items, l.items)
	return items
}

// StaleFor reports whether the plan mutated after this list was built
func (l *List) StaleFor(planLastMutatedAt time.Time) bool {
	return planLastMutatedAt.After(l.planStamp)
}

var categoryRank = func() map[Category]int {
	rank := make(map[Category]int, len(CategoryOrder))
	for i, c := range CategoryOrder {
		rank[c] = i
	}
	return rank
}()

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return categoryRank[items[i].Category] < categoryRank[items[j].Category]
		}
		return items[i].Name < items[j].Name
	})
}

// Normalize folds case, trims whitespace, and strips a trailing plural
// "s" for words longer than three letters. "ss" endings stay as-is so
// "swiss" does not become "swis".
func Normalize(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if len(name) > 3 && strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss") {
		name = strings.TrimSuffix(name, "s")
	}
	return name
}
