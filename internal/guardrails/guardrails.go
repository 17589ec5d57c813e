package guardrails

import (
	"errors"
	"strings"

	"github.com/jwebster45206/storyteller/pkg/textfilter"
)

// MinPromptLength is the shortest trimmed request accepted.
const MinPromptLength = 5

var (
	// ErrNotStoryPrompt means the request does not look like a story request.
	ErrNotStoryPrompt = errors.New("please enter a short description of a children's story you'd like to hear")
	// ErrInappropriate means the request contains language not fit for a children's story.
	ErrInappropriate = errors.New("please keep story requests suitable for children")
)

// StoryIndicators are the words at least one of which a request must contain.
var StoryIndicators = []string{
	"story", "tell", "about", "adventure", "once upon",
	"dog", "cat", "bear", "child", "kid", "animal",
	"friend", "journey",
}

var filter = textfilter.NewProfanityFilter()

// IsStoryPrompt reports whether text is long enough and mentions a story
// indicator as a substring.
func IsStoryPrompt(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < MinPromptLength {
		return false
	}
	lowered := strings.ToLower(trimmed)
	for _, word := range StoryIndicators {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// CheckStoryPrompt returns ErrNotStoryPrompt or ErrInappropriate when the
// request should not reach the model.
func CheckStoryPrompt(text string) error {
	if !IsStoryPrompt(text) {
		return ErrNotStoryPrompt
	}
	if filter.ContainsProfanity(text) {
		return ErrInappropriate
	}
	return nil
}

// SoftenStory replaces any profanity that slipped into generated text.
func SoftenStory(text string) string {
	return filter.FilterText(text)
}
