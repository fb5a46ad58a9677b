// Package prompt asks a single yes/no question in the terminal.
package prompt

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// maxItems caps how many detail lines the prompt lists.
const maxItems = 20

// Model is the bubbletea model behind Confirm.
type Model struct {
	question string
	items    []string
	keys     KeyMap

	done   bool
	answer bool
}

// New returns a model asking question, listing items beneath it.
func New(question string, items []string) Model {
	return Model{question: question, items: items, keys: DefaultKeyMap()}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Yes):
		m.done, m.answer = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.No), key.Matches(keyMsg, m.keys.Quit):
		m.done, m.answer = true, false
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.question))
	b.WriteByte('\n')
	for i, item := range m.items {
		if i == maxItems {
			b.WriteString(itemStyle.Render(fmt.Sprintf("... and %d more", len(m.items)-maxItems)))
			b.WriteByte('\n')
			break
		}
		b.WriteString(itemStyle.Render(item))
		b.WriteByte('\n')
	}
	b.WriteString(hintStyle.Render(fmt.Sprintf("[%s/%s]", m.keys.Yes.Help().Key, m.keys.No.Help().Key)))
	b.WriteByte(' ')
	return b.String()
}

// Answer returns the user's choice and whether one was made.
func (m Model) Answer() (yes, answered bool) {
	return m.answer, m.done
}

// Confirm runs the prompt on in and out. Anything but an explicit yes,
// including cancellation, is a no.
func Confirm(ctx context.Context, question string, items []string, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(New(question, items),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return false, nil
	}
	yes, _ := m.Answer()
	return yes, nil
}
