package retrieval

import "strings"

// Collection names mirror the vector store's recipe partitions.
const (
	CollectionGeneral    = "recipes_general"
	CollectionVegetarian = "recipes_vegetarian"
	CollectionVegan      = "recipes_vegan"
	CollectionGlutenFree = "recipes_gluten_free"
	CollectionKeto       = "recipes_keto"
	CollectionDesserts   = "recipes_desserts"
)

var collectionTriggers = map[string][]string{
	CollectionVegetarian: {"vegetarian", "meatless", "no meat"},
	CollectionVegan:      {"vegan", "plant-based", "plant based"},
	CollectionGlutenFree: {"gluten-free", "gluten free", "celiac"},
	CollectionKeto:       {"keto", "low-carb", "low carb", "ketogenic"},
	CollectionDesserts:   {"dessert", "sweet", "cake", "treat"},
}

// DetectCollections decides which vector collections to search for a
// request. Dietary triggers in the request or the accumulated preference
// terms select specialized collections; the general collection is always
// included as a fallback pool unless a strict diet excludes it.
func DetectCollections(request string, preferenceTerms []string) []string {
	text := strings.ToLower(request)
	for _, term := range preferenceTerms {
		text += " " + strings.ToLower(term)
	}

	var selected []string
	for _, collection := range []string{
		CollectionVegan,
		CollectionVegetarian,
		CollectionGlutenFree,
		CollectionKeto,
		CollectionDesserts,
	} {
		for _, trigger := range collectionTriggers[collection] {
			if strings.Contains(text, trigger) {
				selected = append(selected, collection)
				break
			}
		}
	}

	// Vegan and vegetarian diets exclude the general pool entirely,
	// anything else still draws from it.
	strict := false
	for _, c := range selected {
		if c == CollectionVegan || c == CollectionVegetarian {
			strict = true
			break
		}
	}
	if !strict {
		selected = append(selected, CollectionGeneral)
	}
	return selected
}
