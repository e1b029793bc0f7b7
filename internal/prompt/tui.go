package prompt

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// TUI runs a short bubbletea program for every prompt.
type TUI struct {
	in  io.Reader
	out io.Writer
}

// NewTUI builds a terminal prompter reading keys from in and drawing on out.
func NewTUI(in io.Reader, out io.Writer) *TUI {
	return &TUI{in: in, out: out}
}

// Text implements Prompter.
func (t *TUI) Text(ctx context.Context, label string) (string, error) {
	return t.run(ctx, newInputModel(label, ""))
}

// Confirm implements Prompter.
func (t *TUI) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	placeholder := "n"
	if def {
		placeholder = "y"
	}
	answer, err := t.run(ctx, newInputModel(label, placeholder))
	if err != nil {
		return false, err
	}
	return parseConfirm(answer, def), nil
}

func (t *TUI) run(ctx context.Context, model inputModel) (string, error) {
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	result, ok := final.(inputModel)
	if !ok {
		return "", fmt.Errorf("prompt: unexpected model %T", final)
	}
	if result.interrupted {
		return "", ErrInterrupted
	}
	return result.value, nil
}

// inputModel is a single-line question. It quits on Enter, Esc or Ctrl+C.
type inputModel struct {
	label       string
	input       textinput.Model
	value       string
	done        bool
	interrupted bool
}

func newInputModel(label, placeholder string) inputModel {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = placeholder
	input.Focus()
	return inputModel{label: label, input: input}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.value = m.input.Value()
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.interrupted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	switch {
	case m.done:
		return labelStyle.Render(m.label) + answerStyle.Render(m.value) + "\n"
	case m.interrupted:
		return labelStyle.Render(m.label) + hintStyle.Render("(interrupted)") + "\n"
	}
	return labelStyle.Render(m.label) + m.input.View() + "\n" +
		hintStyle.Render("enter to submit · esc to abort")
}
