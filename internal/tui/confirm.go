package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmModel asks a yes/no question before the search screen starts.
type ConfirmModel struct {
	question string
	answer   bool
	done     bool
	aborted  bool
}

// NewConfirm creates a yes/no prompt. Enter accepts the default answer.
func NewConfirm(question string, defaultYes bool) ConfirmModel {
	return ConfirmModel{question: question, answer: defaultYes}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd { return nil }

// Update handles y/n/enter and quits once answered or aborted.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y", "t", "T":
		m.answer, m.done = true, true
	case "n", "N", "esc":
		m.answer, m.done = false, true
	case "ctrl+c":
		m.answer, m.done, m.aborted = false, true, true
	case "enter":
		m.done = true
	default:
		return m, nil
	}
	return m, tea.Quit
}

// View renders the question.
func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	hint := "[y/N]"
	if m.answer {
		hint = "[Y/n]"
	}
	return lipgloss.NewStyle().Bold(true).Render(m.question) + " " + hint + "\n"
}

// Answer reports the user's choice.
func (m ConfirmModel) Answer() bool { return m.answer }

// Aborted reports whether the user quit with ctrl+c instead of answering.
func (m ConfirmModel) Aborted() bool { return m.aborted }
