package conversation

import (
	"fmt"
	"regexp"
	"strings"
)

var dayCountPattern = regexp.MustCompile(`(\d+)[- ]?day`)

// DeriveTitle builds a short human-readable title from the first user
// request. It prefers a day count plus a dietary or cuisine keyword, and
// falls back to a generic label when the text gives nothing usable.
func DeriveTitle(firstRequest string) string {
	text := strings.ToLower(firstRequest)

	var qualifier string
	for _, kw := range dietaryKeywords {
		if strings.Contains(text, kw) {
			qualifier = canonicalKeyword(kw)
			break
		}
	}
	if qualifier == "" {
		for _, kw := range cuisineKeywords {
			if strings.Contains(text, kw) {
				qualifier = kw
				break
			}
		}
	}

	var prefix string
	if m := dayCountPattern.FindStringSubmatch(text); m != nil {
		prefix = m[1] + "-Day "
	}

	switch {
	case qualifier != "":
		return fmt.Sprintf("%s%s Meal Plan", prefix, titleCase(qualifier))
	case prefix != "":
		return prefix + "Meal Plan"
	default:
		return "Meal Plan"
	}
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	sep := " "
	if strings.Contains(s, "-") {
		sep = "-"
	}
	return strings.Join(words, sep)
}
