package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/jwebster45206/storyteller/internal/continuity"
)

// StartNewLabel is the last option in every candidate list.
const StartNewLabel = "Start a new story"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "new story")),
}

// chooserModel lists continuity candidates plus a start-new option.
type chooserModel struct {
	candidates []continuity.Candidate
	selected   int
	done       bool
	width      int
}

func newChooserModel(candidates []continuity.Candidate) chooserModel {
	return chooserModel{candidates: candidates, width: DefaultWidth}
}

func (m chooserModel) Init() tea.Cmd {
	return nil
}

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.candidates) {
				m.selected++
			}
		case key.Matches(msg, keys.Choose):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			m.selected = len(m.candidates)
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// choice returns the selected session id, or ok=false for a new story.
func (m chooserModel) choice() (string, bool) {
	if !m.done || m.selected >= len(m.candidates) {
		return "", false
	}
	return m.candidates[m.selected].SessionID, true
}

func (m chooserModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("This sounds like a story we've told before. Continue one?"))
	b.WriteString("\n\n")

	lineWidth := uint(max(m.width-8, 20))
	for i := 0; i <= len(m.candidates); i++ {
		label := StartNewLabel
		if i < len(m.candidates) {
			label = candidateLabel(m.candidates[i])
		}
		label = truncate.StringWithTail(label, lineWidth, "…")
		if i == m.selected {
			b.WriteString(selectedItemStyle.Render("> " + label))
		} else {
			b.WriteString(itemStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("%s • %s • %s",
		keys.Up.Help().Key+"/"+keys.Down.Help().Key+" move",
		keys.Choose.Help().Key+" "+keys.Choose.Help().Desc,
		keys.Quit.Help().Key+" "+keys.Quit.Help().Desc,
	)))
	return modalStyle.Render(b.String())
}

func candidateLabel(c continuity.Candidate) string {
	summary := strings.TrimSpace(c.Summary)
	if summary == "" {
		summary = "(no summary)"
	}
	return fmt.Sprintf("%s: %s", strings.Join(c.Characters, ", "), summary)
}

// TUIChooser asks with a full-screen list. It implements continuity.Chooser.
type TUIChooser struct {
	In  io.Reader
	Out io.Writer
}

func (c TUIChooser) Choose(ctx context.Context, candidates []continuity.Candidate) (string, bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}

	final, err := tea.NewProgram(newChooserModel(candidates), opts...).Run()
	if err != nil {
		return "", false, fmt.Errorf("chooser failed: %w", err)
	}
	id, ok := final.(chooserModel).choice()
	return id, ok, nil
}
