package arcs

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// DefaultArcID is chosen when no arc keyword appears in the request.
const DefaultArcID = "exploration"

// DefaultKeywords maps arc id to trigger keywords. A catalog arc with its own
// Keywords list uses that list instead.
var DefaultKeywords = map[string][]string{
	"adventure": {
		"adventure", "quest", "journey", "travel", "explore", "dragon",
		"treasure", "forest", "mountain", "castle", "brave", "hero",
		"knight", "pirate", "map",
	},
	"friendship": {
		"friend", "friends", "friendship", "kind", "kindness",
		"help", "together", "sharing", "team", "caring",
		"nice", "cooperate", "play", "buddy",
	},
	"exploration": {
		"explore", "exploration", "discover", "discovery",
		"new place", "unknown", "travel", "journey",
		"island", "space", "ocean", "planet", "map",
	},
	"problem_solving": {
		"problem", "solve", "solution", "figure out",
		"fix", "build", "create", "plan",
		"think", "idea", "puzzle", "challenge",
	},
	"kindness": {
		"kind", "kindness", "help", "care", "share",
		"gentle", "nice", "smile", "thank",
		"happy", "helpful", "good deed",
	},
}

// Keywords returns the trigger keywords for arc.
func Keywords(arc story.Arc) []string {
	if len(arc.Keywords) > 0 {
		return arc.Keywords
	}
	return DefaultKeywords[arc.ID]
}

// Score counts how many of the arc's keywords occur in the lowercased input.
// Each keyword counts once no matter how often it appears.
func Score(arc story.Arc, lowered string) int {
	n := 0
	for _, kw := range Keywords(arc) {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// SelectArc picks the arc whose keywords best match the input. Ties go to the
// arc listed first in the catalog; no match at all falls back to DefaultArcID.
func SelectArc(catalog *story.Catalog, userInput string) (story.Arc, error) {
	lowered := strings.ToLower(userInput)

	bestID, bestScore := "", 0
	for _, arc := range catalog.Arcs() {
		if s := Score(arc, lowered); s > bestScore {
			bestID, bestScore = arc.ID, s
		}
	}
	if bestScore == 0 {
		bestID = DefaultArcID
	}

	arc, ok := catalog.Get(bestID)
	if !ok {
		return story.Arc{}, &story.ConfigurationError{
			Msg: fmt.Sprintf("arc %q is not in the catalog", bestID),
		}
	}
	return arc, nil
}

// ArcForSession returns the arc a continuing session was told with. Sessions
// that never recorded an arc are matched against the input like a new story.
func ArcForSession(catalog *story.Catalog, session *story.Session, userInput string) (story.Arc, error) {
	if session == nil || session.ArcID == nil {
		return SelectArc(catalog, userInput)
	}
	arc, ok := catalog.Get(*session.ArcID)
	if !ok {
		return story.Arc{}, &story.ConfigurationError{
			Msg: fmt.Sprintf("session %s refers to unknown arc %q", session.ID, *session.ArcID),
		}
	}
	return arc, nil
}
