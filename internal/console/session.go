package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jwebster45206/storyteller/internal/continuity"
	"github.com/jwebster45206/storyteller/internal/guardrails"
	"github.com/jwebster45206/storyteller/internal/teller"
)

// MaxPromptTries is how many times a rejected request is asked for again.
const MaxPromptTries = 3

// Prompter asks a question and returns the answer.
type Prompter interface {
	Ask(question string) (string, error)
}

// Teller is the part of the pipeline the console drives.
type Teller interface {
	Tell(ctx context.Context, userInput string, chooser continuity.Chooser) (*teller.Outcome, error)
	ClearSessions(ctx context.Context) error
}

const (
	actionQuestion  = "Do you want to clear previous story sessions or tell a story? Respond either clear or story:"
	requestQuestion = "What kind of story do you want to hear? Or what story did you want to continue (give description of previous story) and what you want next?"
	retryQuestion   = "Please enter a short description of a children's story you'd like to hear."
)

// Session runs one interactive turn.
type Session struct {
	Teller   Teller
	Prompter Prompter
	Chooser  continuity.Chooser
	Renderer Renderer
	Out      io.Writer
}

// Run asks for an action and carries it out. request, when non-empty, skips
// the action and request questions.
func (s *Session) Run(ctx context.Context, request string) error {
	if request == "" {
		action, err := s.Prompter.Ask(actionQuestion)
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(action)) {
		case "clear":
			if err := s.Teller.ClearSessions(ctx); err != nil {
				return err
			}
			fmt.Fprintln(s.Out, "Previous sessions cleared.")
			return nil
		case "story":
		default:
			fmt.Fprintln(s.Out, "Please answer clear or story.")
			return nil
		}

		request, err = s.askRequest()
		if err != nil {
			return err
		}
		if request == "" {
			fmt.Fprintln(s.Out, retryQuestion)
			return nil
		}
	} else if err := guardrails.CheckStoryPrompt(request); err != nil {
		fmt.Fprintln(s.Out, s.Renderer.style(err.Error(), errorStyle.Render))
		return nil
	}

	out, err := s.Teller.Tell(ctx, request, s.Chooser)
	if out != nil {
		fmt.Fprint(s.Out, s.Renderer.Story(out))
	}
	if err != nil {
		if out != nil {
			// The story was shown but could not be saved.
			fmt.Fprint(s.Out, s.Renderer.Failure(err))
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprint(s.Out, s.Renderer.Failure(err))
	}
	return nil
}

// askRequest asks for the story request, re-asking up to MaxPromptTries
// times when guardrails reject it. An empty result means every try failed.
func (s *Session) askRequest() (string, error) {
	question := requestQuestion
	for i := 0; i < MaxPromptTries; i++ {
		answer, err := s.Prompter.Ask(question)
		if err != nil {
			return "", err
		}
		err = guardrails.CheckStoryPrompt(answer)
		if err == nil {
			return answer, nil
		}
		if errors.Is(err, guardrails.ErrInappropriate) {
			fmt.Fprintln(s.Out, s.Renderer.style(err.Error(), errorStyle.Render))
		}
		question = retryQuestion
	}
	return "", nil
}
