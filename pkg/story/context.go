package story

import (
	"maps"
)

// Mode selects the storyteller prompt.
type Mode string

const (
	ModeNewStory     Mode = "new_story"
	ModeContinuation Mode = "continuation"
)

// StoryState is the prior-story snapshot handed to the storyteller when continuing.
type StoryState struct {
	Characters map[string]string `json:"characters"`
	Setting    string            `json:"setting"`
	Summary    string            `json:"summary"`
	ArcStage   string            `json:"arc_stage"`
}

// GenerationContext is everything one request needs to generate a story.
// Only the retry loop writes Feedback.
type GenerationContext struct {
	Mode       Mode        `json:"mode"`
	Arc        Arc         `json:"arc"`
	Feedback   string      `json:"feedback"`
	StoryState *StoryState `json:"story_state"`
	UserInput  string      `json:"user_input"`
}

// BuildContext merges session, arc and input. It has no side effects; the
// session's character map is copied.
func BuildContext(session *Session, arc Arc, userInput string, isContinuation bool) GenerationContext {
	gc := GenerationContext{
		Mode:      ModeNewStory,
		Arc:       arc,
		UserInput: userInput,
	}
	if isContinuation && session != nil {
		gc.Mode = ModeContinuation
		gc.StoryState = &StoryState{
			Characters: maps.Clone(session.Characters),
			Setting:    session.Setting,
			Summary:    session.Summary,
			ArcStage:   session.ArcStageOrEmpty(),
		}
	}
	return gc
}
