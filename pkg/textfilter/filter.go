package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Common US English swear words that never belong in a children's story
var swearWords = []string{
	"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap",
	"piss", "cock", "dick", "pussy", "tits", "boobs", "whore", "slut",
	"fag", "retard", "nigger", "nigga", "spic", "chink", "kike",
	"motherfucker", "goddamn", "jesus christ", "christ", "asshole",
	"dumbass", "jackass", "smartass", "badass", "bullshit", "horseshit",
	"dipshit", "shithead", "dickhead", "prick", "douche", "douchebag",
}

// swearWordReplacements maps swear words to family-friendly alternatives
var swearWordReplacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"hell":         "heck",
	"ass":          "butt",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"cock":         "[censored]",
	"dick":         "jerk",
	"pussy":        "[censored]",
	"tits":         "[censored]",
	"boobs":        "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
	"fag":          "[censored]",
	"retard":       "[censored]",
	"nigger":       "[censored]",
	"nigga":        "[censored]",
	"spic":         "[censored]",
	"chink":        "[censored]",
	"kike":         "[censored]",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"jesus christ": "jeez",
	"christ":       "crikey",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"smartass":     "smarty",
	"badass":       "tough",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douche":       "jerk",
	"douchebag":    "jerk",
}

// ProfanityFilter finds and softens profanity in requests and story text.
type ProfanityFilter struct {
	regexes map[string]*regexp.Regexp
}

// NewProfanityFilter creates a new profanity filter
func NewProfanityFilter() *ProfanityFilter {
	pf := &ProfanityFilter{
		regexes: make(map[string]*regexp.Regexp),
	}

	// Whole words only, with an optional plural suffix captured in group 1.
	for _, word := range swearWords {
		pattern := `\b` + regexp.QuoteMeta(word) + `(s|es)?\b`
		pf.regexes[word] = regexp.MustCompile(`(?i)` + pattern)
	}

	return pf
}

// FilterText replaces profanity with family-friendly alternatives, keeping
// the case pattern and any plural suffix of the original.
func (pf *ProfanityFilter) FilterText(text string) string {
	result := text

	for _, word := range swearWords {
		regex := pf.regexes[word]
		replacement, ok := swearWordReplacements[word]
		if regex == nil || !ok {
			continue
		}
		result = regex.ReplaceAllStringFunc(result, func(match string) string {
			stem, suffix := match[:len(word)], match[len(word):]
			if strings.HasPrefix(replacement, "[") {
				return replacement
			}
			return preserveCase(stem, replacement) + pluralSuffix(replacement, suffix)
		})
	}

	return result
}

// pluralSuffix pluralizes replacement when the original match was plural.
func pluralSuffix(replacement, suffix string) string {
	if suffix == "" {
		return ""
	}
	upper := strings.ToUpper(suffix) == suffix
	s := "s"
	if strings.HasSuffix(replacement, "s") || strings.HasSuffix(replacement, "ch") {
		s = "es"
	}
	if upper {
		return strings.ToUpper(s)
	}
	return s
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	// Title case (first letter uppercase, rest lowercase)
	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case - follow the original character by character
	result := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	for i, r := range []rune(replacement) {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}

	return string(result)
}

// ContainsProfanity checks if the text contains any profanity
func (pf *ProfanityFilter) ContainsProfanity(text string) bool {
	return len(pf.Matches(text)) > 0
}

// Matches returns the listed words found in text, in list order.
func (pf *ProfanityFilter) Matches(text string) []string {
	var found []string
	for _, word := range swearWords {
		if regex, exists := pf.regexes[word]; exists && regex.MatchString(text) {
			found = append(found, word)
		}
	}
	return found
}
