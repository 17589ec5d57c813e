package console

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/storyteller/internal/teller"
	"github.com/jwebster45206/storyteller/pkg/story"
)

// DefaultWidth is the wrap width when the terminal size is unknown.
const DefaultWidth = 80

// Renderer formats pipeline results for the terminal.
type Renderer struct {
	Width int
	Plain bool // no ANSI styling
}

func (r Renderer) width() int {
	if r.Width <= 0 {
		return DefaultWidth
	}
	return r.Width
}

func (r Renderer) style(s string, render func(...string) string) string {
	if r.Plain {
		return s
	}
	return render(s)
}

// Story renders an accepted story with its arc and stage.
func (r Renderer) Story(out *teller.Outcome) string {
	var b strings.Builder
	b.WriteString(r.style("Here is your story:", titleStyle.Render))
	b.WriteString("\n\n")
	b.WriteString(r.style(wordwrap.String(out.Story.StoryText, r.width()), storyStyle.Render))
	b.WriteString("\n\n")

	meta := fmt.Sprintf("Arc: %s  Stage: %s  Attempts: %d", out.Arc.Theme, out.Story.Metadata.CurrentStage, out.Attempts)
	if out.Continued {
		meta += "  (continued)"
	}
	b.WriteString(r.style(meta, metaStyle.Render))
	b.WriteString("\n")
	return b.String()
}

// Failure renders an error from Tell in words a child's grown-up can read.
func (r Renderer) Failure(err error) string {
	var exhausted *teller.ExhaustedError
	if errors.As(err, &exhausted) {
		return r.style(fmt.Sprintf("Sorry, we couldn't generate a satisfactory story due to %s", exhausted.Reason()), errorStyle.Render) + "\n"
	}
	return r.style("Sorry, something went wrong: "+err.Error(), errorStyle.Render) + "\n"
}

// Sessions renders a listing of stored sessions.
func (r Renderer) Sessions(sessions []*story.Session) string {
	if len(sessions) == 0 {
		return "No saved stories.\n"
	}
	var b strings.Builder
	for _, s := range sessions {
		names := make([]string, 0, len(s.Characters))
		for name := range s.Characters {
			names = append(names, name)
		}
		sort.Strings(names)

		arc := "-"
		if s.ArcID != nil {
			arc = *s.ArcID
		}
		header := fmt.Sprintf("%s  %s  %s", s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), arc)
		b.WriteString(r.style(header, titleStyle.Render))
		b.WriteString("\n")
		if len(names) > 0 {
			b.WriteString("  Characters: " + strings.Join(names, ", ") + "\n")
		}
		b.WriteString(wordwrap.String("  "+s.Summary, r.width()) + "\n\n")
	}
	return b.String()
}

// Arcs renders the catalog in order.
func (r Renderer) Arcs(arcs []story.Arc) string {
	var b strings.Builder
	for _, a := range arcs {
		b.WriteString(r.style(fmt.Sprintf("%s (%s)", a.ID, a.Theme), titleStyle.Render))
		b.WriteString("\n")
		b.WriteString(wordwrap.String("  "+a.Description, r.width()) + "\n")
		b.WriteString("  Stages: " + strings.Join(a.Stages, " → ") + "\n\n")
	}
	return b.String()
}
