package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/storyteller/pkg/story"
)

// Builder assembles the storyteller prompt using a fluent interface.
// Without a story state it renders the new-story template.
type Builder struct {
	set       *Set
	arc       *story.Arc
	userInput string
	state     *story.StoryState
	feedback  string
}

// NewBuilder creates a builder over the given template set.
// A nil set uses the embedded templates.
func NewBuilder(set *Set) *Builder {
	if set == nil {
		set = Default()
	}
	return &Builder{set: set}
}

// WithArc sets the arc the story must follow.
func (b *Builder) WithArc(arc story.Arc) *Builder {
	b.arc = &arc
	return b
}

// WithUserInput sets the child's request.
func (b *Builder) WithUserInput(input string) *Builder {
	b.userInput = input
	return b
}

// WithStoryState switches the builder to continuation mode.
func (b *Builder) WithStoryState(state *story.StoryState) *Builder {
	b.state = state
	return b
}

// WithFeedback sets the latest judge feedback.
func (b *Builder) WithFeedback(feedback string) *Builder {
	b.feedback = feedback
	return b
}

// FromContext copies everything from a generation context.
func (b *Builder) FromContext(gc story.GenerationContext) *Builder {
	b.WithArc(gc.Arc).
		WithUserInput(gc.UserInput).
		WithFeedback(gc.Feedback)
	if gc.Mode == story.ModeContinuation {
		b.WithStoryState(gc.StoryState)
	} else {
		b.WithStoryState(nil)
	}
	return b
}

// Build renders the prompt.
func (b *Builder) Build() (string, error) {
	if b.arc == nil {
		return "", fmt.Errorf("arc is required")
	}

	data := storyData{
		ArcTheme:        b.arc.Theme,
		ArcDescription:  b.arc.Description,
		ArcStages:       strings.Join(b.arc.Stages, ", "),
		UserInput:       b.userInput,
		FeedbackSection: FeedbackSection(b.feedback),
	}

	if b.state == nil {
		return render(b.set.storyNew, data)
	}

	characters, err := FormatCharacters(b.state.Characters)
	if err != nil {
		return "", fmt.Errorf("error formatting characters: %w", err)
	}
	data.Characters = characters
	data.Setting = b.state.Setting
	data.Summary = b.state.Summary
	data.ArcStage = b.state.ArcStage
	return render(b.set.storyContinue, data)
}
