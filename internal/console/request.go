package console

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// requestModel is a single-line text entry for the story request.
type requestModel struct {
	question  string
	input     textinput.Model
	submitted bool
}

func newRequestModel(question string) requestModel {
	ti := textinput.New()
	ti.Placeholder = "a story about a brave little bear..."
	ti.CharLimit = 500
	ti.Width = DefaultWidth - 4
	ti.Focus()
	return requestModel{question: question, input: ti}
}

func (m requestModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m requestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-4, 10)
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m requestModel) View() string {
	if m.submitted {
		return ""
	}
	return promptStyle.Render(m.question) + "\n\n" + m.input.View() + "\n\n" +
		metaStyle.Render("enter submit • esc quit") + "\n"
}

// TUIPrompter asks questions with a text input.
type TUIPrompter struct {
	Ctx context.Context
	In  io.Reader
	Out io.Writer
}

// Ask returns the typed answer, or ErrNoInput when the user quit.
func (p TUIPrompter) Ask(question string) (string, error) {
	ctx := p.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newRequestModel(question), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(requestModel)
	if !m.submitted {
		return "", ErrNoInput
	}
	return m.input.Value(), nil
}
