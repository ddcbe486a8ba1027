package conversation

import (
	"sort"
	"strings"
)

// Preferences is a read model derived from the user turns of a thread.
// It is recomputed from the full log on every append, so replaying the
// same turns always yields the same snapshot.
type Preferences struct {
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	DislikedIngredients []string `json:"dislikedIngredients,omitempty"`
	PreferredCuisines   []string `json:"preferredCuisines,omitempty"`
}

// Clone returns an independent copy
func (p Preferences) Clone() Preferences {
	return Preferences{
		DietaryRestrictions: copyStrings(p.DietaryRestrictions),
		Allergies:           copyStrings(p.Allergies),
		DislikedIngredients: copyStrings(p.DislikedIngredients),
		PreferredCuisines:   copyStrings(p.PreferredCuisines),
	}
}

// IsEmpty reports whether no preference has been detected yet
func (p Preferences) IsEmpty() bool {
	return len(p.DietaryRestrictions) == 0 &&
		len(p.Allergies) == 0 &&
		len(p.DislikedIngredients) == 0 &&
		len(p.PreferredCuisines) == 0
}

var dietaryKeywords = []string{
	"vegetarian", "vegan", "pescatarian", "keto", "paleo",
	"gluten-free", "gluten free", "dairy-free", "dairy free",
	"low-carb", "low carb", "halal", "kosher",
}

var allergyKeywords = []string{
	"peanut", "tree nut", "shellfish", "soy", "egg",
	"milk", "wheat", "sesame", "fish",
}

var cuisineKeywords = []string{
	"italian", "mexican", "chinese", "japanese", "thai",
	"indian", "mediterranean", "french", "korean", "greek",
	"vietnamese", "spanish", "middle eastern",
}

// DerivePreferences scans the user turns of a log and extracts dietary
// restrictions, allergies, disliked ingredients and preferred cuisines.
// Later turns win on conflicts because the scan runs in append order and
// additions are deduplicated, keeping first-mention position.
func DerivePreferences(turns []Turn) Preferences {
	var p Preferences
	for _, turn := range turns {
		if turn.Role != RoleUser {
			continue
		}
		text := strings.ToLower(turn.Content)

		for _, kw := range dietaryKeywords {
			if strings.Contains(text, kw) {
				p.DietaryRestrictions = appendUnique(p.DietaryRestrictions, canonicalKeyword(kw))
			}
		}
		for _, kw := range allergyKeywords {
			if containsAllergy(text, kw) {
				p.Allergies = appendUnique(p.Allergies, kw)
			}
		}
		for _, kw := range cuisineKeywords {
			if strings.Contains(text, kw) {
				p.PreferredCuisines = appendUnique(p.PreferredCuisines, kw)
			}
		}
		for _, disliked := range extractDislikes(text) {
			p.DislikedIngredients = appendUnique(p.DislikedIngredients, disliked)
		}
	}
	return p
}

// containsAllergy requires an allergy phrasing near the keyword so that
// "egg fried rice" does not register an egg allergy
func containsAllergy(text, keyword string) bool {
	if !strings.Contains(text, keyword) {
		return false
	}
	return strings.Contains(text, "allerg") ||
		strings.Contains(text, "intoleran") ||
		strings.Contains(text, "can't eat") ||
		strings.Contains(text, "cannot eat")
}

var dislikeMarkers = []string{
	"i don't like ", "i dont like ", "i hate ", "no ",
	"without ", "i dislike ", "avoid ",
}

// extractDislikes pulls single-ingredient mentions following a dislike
// marker. Only the first word after the marker is taken; multi-word
// ingredients are out of scope for the heuristic.
func extractDislikes(text string) []string {
	var out []string
	for _, marker := range dislikeMarkers {
		idx := 0
		for {
			pos := strings.Index(text[idx:], marker)
			if pos < 0 {
				break
			}
			start := idx + pos + len(marker)
			rest := strings.TrimLeft(text[start:], " ")
			word := firstWord(rest)
			if word != "" && !isStopWord(word) {
				out = append(out, word)
			}
			idx = start
		}
	}
	sort.Strings(out)
	return out
}

func firstWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == ';'
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "any": true, "more": true,
	"to": true, "it": true, "that": true, "this": true,
}

func isStopWord(w string) bool {
	return stopWords[w]
}

func canonicalKeyword(kw string) string {
	return strings.ReplaceAll(kw, " ", "-")
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
