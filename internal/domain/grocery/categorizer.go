package grocery

import "strings"

// Category is the closed set of grocery store sections
type Category string

const (
	CategoryProduce   Category = "produce"
	CategoryMeat      Category = "meat"
	CategorySeafood   Category = "seafood"
	CategoryDairy     Category = "dairy"
	CategoryBakery    Category = "bakery"
	CategoryPantry    Category = "pantry"
	CategoryFrozen    Category = "frozen"
	CategoryBeverages Category = "beverages"
	CategoryOther     Category = "other"
)

// CategoryOrder is the stable display order for synthesized lists
var CategoryOrder = []Category{
	CategoryProduce,
	CategoryMeat,
	CategorySeafood,
	CategoryDairy,
	CategoryBakery,
	CategoryPantry,
	CategoryFrozen,
	CategoryBeverages,
	CategoryOther,
}

var categoryKeywords = map[Category][]string{
	CategoryProduce: {
		"apple", "banana", "tomato", "onion", "garlic", "carrot", "potato",
		"lettuce", "spinach", "kale", "broccoli", "pepper", "cucumber",
		"zucchini", "mushroom", "avocado", "lemon", "lime", "orange",
		"berry", "berries", "herb", "cilantro", "parsley", "basil",
		"ginger", "celery", "cabbage", "squash",
	},
	CategoryMeat: {
		"chicken", "beef", "pork", "turkey", "lamb", "bacon", "sausage",
		"ham", "steak", "ground",
	},
	CategorySeafood: {
		"salmon", "tuna", "shrimp", "cod", "tilapia", "crab", "fish",
		"scallop", "mussel",
	},
	CategoryDairy: {
		"milk", "cheese", "yogurt", "butter", "cream", "egg", "mozzarella",
		"parmesan", "cheddar", "feta",
	},
	CategoryBakery: {
		"bread", "bagel", "tortilla", "pita", "bun", "roll", "croissant",
		"baguette",
	},
	CategoryPantry: {
		"rice", "pasta", "flour", "sugar", "oil", "vinegar", "salt",
		"spice", "bean", "lentil", "chickpea", "quinoa", "oat", "noodle",
		"sauce", "stock", "broth", "honey", "nut", "almond", "peanut",
		"canned", "tomato paste", "soy sauce",
	},
	CategoryFrozen: {
		"frozen", "ice cream",
	},
	CategoryBeverages: {
		"juice", "coffee", "tea", "soda", "water", "wine",
	},
}

// Categorize maps an ingredient name to a store section. The keyword scan
// follows CategoryOrder so an ingredient matching several sections lands
// in the earliest one; unmatched ingredients go to CategoryOther.
func Categorize(name string) Category {
	lowered := strings.ToLower(name)
	for _, category := range CategoryOrder {
		for _, kw := range categoryKeywords[category] {
			if strings.Contains(lowered, kw) {
				return category
			}
		}
	}
	return CategoryOther
}
